package dto

import "time"

// MaterialRequestItemRequest línea solicitada.
type MaterialRequestItemRequest struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

// CreateMaterialRequestRequest body para POST /api/material-requests.
type CreateMaterialRequestRequest struct {
	ProjectID string                       `json:"project_id"`
	Notes     string                       `json:"notes"`
	Items     []MaterialRequestItemRequest `json:"items"`
}

// ReviewMaterialRequestRequest body para aprobar/rechazar.
type ReviewMaterialRequestRequest struct {
	Note string `json:"note"`
}

// MaterialRequestItemResponse línea de una solicitud.
type MaterialRequestItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

// MaterialRequestResponse salida de una solicitud.
type MaterialRequestResponse struct {
	ID          string                        `json:"id"`
	ProjectID   string                        `json:"project_id"`
	RequestedBy string                        `json:"requested_by"`
	Status      string                        `json:"status"`
	Notes       string                        `json:"notes,omitempty"`
	ReviewedBy  string                        `json:"reviewed_by,omitempty"`
	ReviewNote  string                        `json:"review_note,omitempty"`
	MovementID  string                        `json:"movement_id,omitempty"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
	Items       []MaterialRequestItemResponse `json:"items"`
}

// MaterialRequestListResponse lista paginada de solicitudes.
type MaterialRequestListResponse struct {
	Items []MaterialRequestResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}
