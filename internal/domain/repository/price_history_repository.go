package repository

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// PriceHistoryRepository puerto append-only del historial de precios.
// No expone Update ni Delete: los registros son inmutables.
type PriceHistoryRepository interface {
	Append(ctx context.Context, record *entity.PriceHistoryRecord) error
	// ListByProduct devuelve el historial más reciente primero (change_date DESC, created_at DESC).
	ListByProduct(ctx context.Context, productID string) ([]*entity.PriceHistoryRecord, error)
	CountByDate(ctx context.Context, day time.Time) (int, error)
}
