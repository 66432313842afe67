package repository

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MovementFilter filtros para consultas de movimientos.
type MovementFilter struct {
	Kind      string
	UserID    string
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// InventoryMovementRepository define el puerto de persistencia para movimientos y sus líneas.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	CreateLineItem(ctx context.Context, item *entity.MovementLineItem) error
	// AttachReceipt es la única mutación permitida sobre la cabecera.
	AttachReceipt(ctx context.Context, movementID, receiptURL string) error
	// GetByID devuelve la cabecera con sus líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
	// UnitsByProduct suma cantidades por producto para un tipo de movimiento en [from, to).
	UnitsByProduct(ctx context.Context, kind string, from, to time.Time) (map[string]int, error)
}
