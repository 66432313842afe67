package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ PriceChangeListener = (*PriceHistoryRecorder)(nil)

// PriceHistoryRecorder guarda una foto inmutable de ambos precios cada vez que un producto
// nace o cambia list_price/public_price. Un solo registro por cambio, aunque cambie un solo campo.
type PriceHistoryRecorder struct {
	metrics PriceHistoryMetrics
}

// NewPriceHistoryRecorder construye el recorder. metrics puede ser nil.
func NewPriceHistoryRecorder(metrics PriceHistoryMetrics) *PriceHistoryRecorder {
	return &PriceHistoryRecorder{metrics: metrics}
}

// ProductCreated registra la foto "creation" con los precios iniciales.
func (r *PriceHistoryRecorder) ProductCreated(
	ctx context.Context,
	history repository.PriceHistoryRepository,
	product *entity.Product,
	at time.Time,
) error {
	return r.record(ctx, history, product, entity.PriceChangeCreation, at)
}

// ProductUpdated compara contra los valores persistidos antes de la edición.
// Si ningún precio cambió no registra nada.
func (r *PriceHistoryRecorder) ProductUpdated(
	ctx context.Context,
	history repository.PriceHistoryRepository,
	before, after *entity.Product,
	at time.Time,
) error {
	if !before.PricesDiffer(after) {
		return nil
	}
	return r.record(ctx, history, after, entity.PriceChangeUpdate, at)
}

func (r *PriceHistoryRecorder) record(
	ctx context.Context,
	history repository.PriceHistoryRepository,
	product *entity.Product,
	kind string,
	at time.Time,
) error {
	rec := &entity.PriceHistoryRecord{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		SupplierID:  product.SupplierID,
		ListPrice:   product.ListPrice,
		PublicPrice: product.PublicPrice,
		ChangeDate:  entity.DateOnly(at),
		ChangeKind:  kind,
		CreatedAt:   at,
	}
	if err := history.Append(ctx, rec); err != nil {
		return fmt.Errorf("historial de precios (%s): %w", kind, err)
	}
	if r.metrics != nil {
		r.metrics.PriceSnapshotRecorded(kind)
	}
	return nil
}
