package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.MaterialRequestRepository = (*MaterialRequestRepo)(nil)

const requestColumns = `id, project_id, requested_by, status, notes, reviewed_by, review_note, movement_id, created_at, updated_at`

// MaterialRequestRepo solicitudes de material sobre PostgreSQL (usable con pool o tx).
type MaterialRequestRepo struct {
	q Querier
}

// NewMaterialRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRequestRepository(q Querier) *MaterialRequestRepo {
	return &MaterialRequestRepo{q: q}
}

// Create inserta la solicitud y sus líneas en un solo batch.
func (r *MaterialRequestRepo) Create(ctx context.Context, req *entity.MaterialRequest) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO material_requests (`+requestColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.ProjectID, req.RequestedBy, req.Status, req.Notes, nullable(req.ReviewedBy),
		req.ReviewNote, nullable(req.MovementID), req.CreatedAt, req.UpdatedAt)
	for _, it := range req.Items {
		batch.Queue(`INSERT INTO material_request_items (id, request_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			it.ID, req.ID, it.ProductID, it.Quantity)
	}
	br := r.q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: obra, usuario o producto inexistente", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert material request: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert material request: %w", err)
	}
	return nil
}

// GetByID obtiene la solicitud con sus líneas.
func (r *MaterialRequestRepo) GetByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return r.getOne(ctx, `SELECT `+requestColumns+` FROM material_requests WHERE id = $1`, id)
}

// GetByIDForUpdate bloquea la fila de la solicitud hasta el fin de la tx.
func (r *MaterialRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return r.getOne(ctx, `SELECT `+requestColumns+` FROM material_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *MaterialRequestRepo) getOne(ctx context.Context, query, id string) (*entity.MaterialRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material request: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.MaterialRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateReview persiste estado, revisor, nota, movimiento y fecha de actualización.
func (r *MaterialRequestRepo) UpdateReview(ctx context.Context, req *entity.MaterialRequest) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE material_requests
		SET status = $2, reviewed_by = $3, review_note = $4, movement_id = $5, updated_at = $6
		WHERE id = $1`,
		req.ID, req.Status, nullable(req.ReviewedBy), req.ReviewNote, nullable(req.MovementID), req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update material request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista solicitudes, más recientes primero.
func (r *MaterialRequestRepo) List(ctx context.Context, filter repository.MaterialRequestFilter) ([]*entity.MaterialRequest, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	query := `SELECT ` + requestColumns + ` FROM material_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC" + limitClause(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list material requests: %w", err)
	}
	var list []*entity.MaterialRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan material request: %w", err)
		}
		list = append(list, req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list material requests: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *MaterialRequestRepo) loadItems(ctx context.Context, list []*entity.MaterialRequest) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*entity.MaterialRequest, len(list))
	for i, req := range list {
		ids[i] = req.ID
		byID[req.ID] = req
	}
	rows, err := r.q.Query(ctx, `
		SELECT i.id, i.request_id, i.product_id, p.code, i.quantity
		FROM material_request_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.request_id = ANY($1::uuid[])
		ORDER BY i.request_id, p.code`, ids)
	if err != nil {
		return fmt.Errorf("list material request items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.MaterialRequestItem
		if err := rows.Scan(&it.ID, &it.RequestID, &it.ProductID, &it.ProductCode, &it.Quantity); err != nil {
			return fmt.Errorf("scan material request item: %w", err)
		}
		if req := byID[it.RequestID]; req != nil {
			req.Items = append(req.Items, it)
		}
	}
	return rows.Err()
}

func scanRequest(row pgx.Row) (*entity.MaterialRequest, error) {
	var (
		req        entity.MaterialRequest
		reviewedBy *string
		movementID *string
	)
	if err := row.Scan(&req.ID, &req.ProjectID, &req.RequestedBy, &req.Status, &req.Notes, &reviewedBy,
		&req.ReviewNote, &movementID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.ReviewedBy = deref(reviewedBy)
	req.MovementID = deref(movementID)
	return &req, nil
}
