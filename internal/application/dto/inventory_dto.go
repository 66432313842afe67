package dto

import "time"

// MovementLineRequest línea de un movimiento: código de producto + cantidad.
type MovementLineRequest struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

// RegisterMovementRequest body para POST /api/inventory/movements.
// En multipart viaja como JSON en el campo "payload" y el comprobante en "receipt".
type RegisterMovementRequest struct {
	Kind  string                `json:"kind"` // Entrada | Salida
	Notes string                `json:"notes,omitempty"`
	Items []MovementLineRequest `json:"items"`
}

// RegisterMovementResponse respuesta de registro exitoso.
type RegisterMovementResponse struct {
	Success    bool   `json:"success"`
	MovementID string `json:"movement_id"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

// MovementLineResponse línea de un movimiento en lecturas.
type MovementLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// MovementResponse cabecera + líneas.
type MovementResponse struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	Date              time.Time              `json:"date"`
	Kind              string                 `json:"kind"`
	ReceiptURL        string                 `json:"receipt_url,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	MaterialRequestID string                 `json:"material_request_id,omitempty"`
	Items             []MovementLineResponse `json:"items"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReplenishmentSuggestionDTO producto con stock bajo y sugerencia de reposición.
type ReplenishmentSuggestionDTO struct {
	ProductID          string `json:"product_id"`
	ProductCode        string `json:"product_code"`
	ProductName        string `json:"product_name"`
	CurrentStock       int    `json:"current_stock"`
	UnitsOutLast30Days int    `json:"units_out_last_30_days"`
	SuggestedOrderQty  int    `json:"suggested_order_qty"`
	Priority           int    `json:"priority"`
}
