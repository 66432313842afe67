package entity

import "time"

// Estados de una solicitud de material.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusFulfilled = "fulfilled"
)

// MaterialRequest solicitud de materiales de una obra. Flujo:
// pending → approved | rejected; approved → fulfilled (genera una Salida).
type MaterialRequest struct {
	ID          string
	ProjectID   string
	RequestedBy string
	Status      string
	Notes       string
	ReviewedBy  string
	ReviewNote  string
	MovementID  string // salida que despachó la solicitud
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []MaterialRequestItem
}

// MaterialRequestItem línea de una solicitud.
type MaterialRequestItem struct {
	ID          string
	RequestID   string
	ProductID   string
	ProductCode string
	Quantity    int
}
