package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.PriceHistoryRepository = (*PriceHistoryRepo)(nil)

// PriceHistoryRepo historial de precios append-only: solo INSERT y SELECT.
type PriceHistoryRepo struct {
	q Querier
}

// NewPriceHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPriceHistoryRepository(q Querier) *PriceHistoryRepo {
	return &PriceHistoryRepo{q: q}
}

// Append inserta un registro inmutable.
func (r *PriceHistoryRepo) Append(ctx context.Context, record *entity.PriceHistoryRecord) error {
	query := `
		INSERT INTO price_history (id, product_id, supplier_id, list_price, public_price, change_date, change_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.ProductID, nullable(record.SupplierID), record.ListPrice, record.PublicPrice,
		entity.DateOnly(record.ChangeDate), record.ChangeKind, record.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}

// ListByProduct historial de un producto, más reciente primero.
func (r *PriceHistoryRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.PriceHistoryRecord, error) {
	query := `
		SELECT id, product_id, supplier_id, list_price, public_price, change_date, change_kind, created_at
		FROM price_history WHERE product_id = $1
		ORDER BY change_date DESC, created_at DESC`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()
	var list []*entity.PriceHistoryRecord
	for rows.Next() {
		var (
			h          entity.PriceHistoryRecord
			supplierID *string
		)
		if err := rows.Scan(&h.ID, &h.ProductID, &supplierID, &h.ListPrice, &h.PublicPrice,
			&h.ChangeDate, &h.ChangeKind, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		h.SupplierID = deref(supplierID)
		list = append(list, &h)
	}
	return list, rows.Err()
}

// CountByDate cuenta los cambios de precio con change_date igual al día dado.
func (r *PriceHistoryRepo) CountByDate(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM price_history WHERE change_date = $1`, entity.DateOnly(day),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count price history: %w", err)
	}
	return n, nil
}
