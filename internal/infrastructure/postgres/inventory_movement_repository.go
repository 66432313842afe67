package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `m.id, m.user_id, m.date, m.kind, m.receipt_url, m.notes, m.material_request_id, m.created_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste la cabecera de un movimiento. Las líneas van por CreateLineItem.
func (r *InventoryMovementRepo) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (id, user_id, date, kind, receipt_url, notes, material_request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.UserID, movement.Date, movement.Kind, nullable(movement.ReceiptURL),
		movement.Notes, nullable(movement.MaterialRequestID), movement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: usuario o solicitud inexistente", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea del movimiento.
func (r *InventoryMovementRepo) CreateLineItem(ctx context.Context, item *entity.MovementLineItem) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO movement_line_items (id, movement_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		item.ID, item.MovementID, item.ProductID, item.Quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert movement line item: %w", err)
	}
	return nil
}

// AttachReceipt guarda la URL del comprobante. Es la única actualización sobre la cabecera.
func (r *InventoryMovementRepo) AttachReceipt(ctx context.Context, movementID, receiptURL string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE inventory_movements SET receipt_url = $2 WHERE id = $1`, movementID, receiptURL)
	if err != nil {
		return fmt.Errorf("attach receipt: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene el movimiento con sus líneas.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory movement: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.InventoryMovement{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// List lista movimientos por fecha descendente. From es inclusivo y To exclusivo.
func (r *InventoryMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Kind != "" {
		add("m.kind = $%d", filter.Kind)
	}
	if filter.UserID != "" {
		add("m.user_id = $%d", filter.UserID)
	}
	if filter.ProductID != "" {
		add("EXISTS (SELECT 1 FROM movement_line_items li WHERE li.movement_id = m.id AND li.product_id = $%d)", filter.ProductID)
	}
	if filter.From != nil {
		add("m.date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("m.date < $%d", *filter.To)
	}
	query := `SELECT ` + movementColumns + ` FROM inventory_movements m`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.date DESC, m.created_at DESC" + limitClause(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		list = append(list, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnitsByProduct suma unidades por producto para un tipo de movimiento en [from, to).
func (r *InventoryMovementRepo) UnitsByProduct(ctx context.Context, kind string, from, to time.Time) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT li.product_id, SUM(li.quantity)
		FROM movement_line_items li
		JOIN inventory_movements m ON m.id = li.movement_id
		WHERE m.kind = $1 AND m.date >= $2 AND m.date < $3
		GROUP BY li.product_id`, kind, from, to)
	if err != nil {
		return nil, fmt.Errorf("units by product: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			productID string
			units     int64
		)
		if err := rows.Scan(&productID, &units); err != nil {
			return nil, fmt.Errorf("scan units by product: %w", err)
		}
		out[productID] = int(units)
	}
	return out, rows.Err()
}

// loadItems carga las líneas (con código y nombre del producto) de todos los movimientos en una consulta.
func (r *InventoryMovementRepo) loadItems(ctx context.Context, list []*entity.InventoryMovement) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*entity.InventoryMovement, len(list))
	for i, m := range list {
		ids[i] = m.ID
		byID[m.ID] = m
	}
	rows, err := r.q.Query(ctx, `
		SELECT li.id, li.movement_id, li.product_id, p.code, p.name, li.quantity
		FROM movement_line_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.movement_id = ANY($1::uuid[])
		ORDER BY li.movement_id, p.code`, ids)
	if err != nil {
		return fmt.Errorf("list movement line items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.MovementLineItem
		if err := rows.Scan(&it.ID, &it.MovementID, &it.ProductID, &it.ProductCode, &it.ProductName, &it.Quantity); err != nil {
			return fmt.Errorf("scan movement line item: %w", err)
		}
		if m := byID[it.MovementID]; m != nil {
			m.Items = append(m.Items, it)
		}
	}
	return rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var (
		m          entity.InventoryMovement
		receiptURL *string
		requestID  *string
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Date, &m.Kind, &receiptURL, &m.Notes, &requestID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.ReceiptURL = deref(receiptURL)
	m.MaterialRequestID = deref(requestID)
	return &m, nil
}
