package catalog

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// PriceChangeListener recibe los eventos de escritura de productos dentro de la misma tx.
// Toda ruta de escritura del ledger (alta, edición, alta masiva) lo invoca de forma explícita;
// un error del listener aborta la transacción.
type PriceChangeListener interface {
	ProductCreated(ctx context.Context, history repository.PriceHistoryRepository, product *entity.Product, at time.Time) error
	ProductUpdated(ctx context.Context, history repository.PriceHistoryRepository, before, after *entity.Product, at time.Time) error
}

// PriceHistoryMetrics contador de fotos de precio registradas (opcional).
type PriceHistoryMetrics interface {
	PriceSnapshotRecorded(kind string)
}
