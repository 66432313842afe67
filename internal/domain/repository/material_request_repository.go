package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MaterialRequestFilter filtros para listar solicitudes.
type MaterialRequestFilter struct {
	Status    string
	ProjectID string
	Limit     int
	Offset    int
}

// MaterialRequestRepository define el puerto de persistencia para solicitudes de material.
type MaterialRequestRepository interface {
	Create(ctx context.Context, req *entity.MaterialRequest) error
	GetByID(ctx context.Context, id string) (*entity.MaterialRequest, error)
	// GetByIDForUpdate bloquea la solicitud para transiciones de estado concurrentes.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.MaterialRequest, error)
	// UpdateReview persiste Status, ReviewedBy, ReviewNote, MovementID y UpdatedAt.
	UpdateReview(ctx context.Context, req *entity.MaterialRequest) error
	List(ctx context.Context, filter MaterialRequestFilter) ([]*entity.MaterialRequest, error)
}
