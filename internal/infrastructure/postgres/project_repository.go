package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

const (
	projectColumns = `id, name, description, start_date, target_end_date, status, created_by, created_at, updated_at`
	insertFileSQL  = `
		INSERT INTO project_files (id, project_id, file_name, content_type, url, storage_key, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertLogSQL = `INSERT INTO project_logs (id, project_id, user_id, entry, created_at) VALUES ($1, $2, $3, $4, $5)`
)

// ProjectRepo obras, adjuntos y bitácora sobre PostgreSQL.
type ProjectRepo struct {
	q Querier
}

// NewProjectRepository construye el adaptador de obras.
func NewProjectRepository(q Querier) *ProjectRepo {
	return &ProjectRepo{q: q}
}

// Create inserta la obra con sus archivos y bitácora iniciales en un solo batch (transacción implícita).
func (r *ProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.StartDate, p.TargetEndDate, p.Status, nullable(p.CreatedBy),
		p.CreatedAt, p.UpdatedAt)
	for _, f := range p.Files {
		batch.Queue(insertFileSQL, f.ID, p.ID, f.FileName, f.ContentType, f.URL, f.StorageKey,
			nullable(f.UploadedBy), f.CreatedAt)
	}
	for _, l := range p.Logs {
		batch.Queue(insertLogSQL, l.ID, p.ID, nullable(l.UserID), l.Entry, l.CreatedAt)
	}

	br := r.q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert project: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID obtiene la obra con archivos y bitácora.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, project_id, file_name, content_type, url, storage_key, uploaded_by, created_at
		FROM project_files WHERE project_id = $1 ORDER BY created_at, file_name`, id)
	if err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}
	for rows.Next() {
		var (
			f          entity.ProjectFile
			uploadedBy *string
		)
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.ContentType, &f.URL, &f.StorageKey, &uploadedBy, &f.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project file: %w", err)
		}
		f.UploadedBy = deref(uploadedBy)
		p.Files = append(p.Files, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT id, project_id, user_id, entry, created_at
		FROM project_logs WHERE project_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list project logs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l      entity.ProjectLog
			userID *string
		)
		if err := rows.Scan(&l.ID, &l.ProjectID, &userID, &l.Entry, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project log: %w", err)
		}
		l.UserID = deref(userID)
		p.Logs = append(p.Logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list project logs: %w", err)
	}
	return p, nil
}

// List lista obras (sin archivos ni bitácora), más recientes primero.
func (r *ProjectRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC` + limitClause(limit, offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var list []*entity.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de la obra.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddFile agrega un adjunto a la obra.
func (r *ProjectRepo) AddFile(ctx context.Context, f *entity.ProjectFile) error {
	_, err := r.q.Exec(ctx, insertFileSQL, f.ID, f.ProjectID, f.FileName, f.ContentType, f.URL, f.StorageKey,
		nullable(f.UploadedBy), f.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert project file: %w", err)
	}
	return nil
}

// AddLog agrega una entrada de bitácora.
func (r *ProjectRepo) AddLog(ctx context.Context, l *entity.ProjectLog) error {
	_, err := r.q.Exec(ctx, insertLogSQL, l.ID, l.ProjectID, nullable(l.UserID), l.Entry, l.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert project log: %w", err)
	}
	return nil
}

// CountCreatedOn cuenta obras creadas en el día dado (zona de day).
func (r *ProjectRepo) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	from := entity.DateOnly(day)
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM projects WHERE created_at >= $1 AND created_at < $2`,
		from, from.AddDate(0, 0, 1),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func scanProject(row pgx.Row) (*entity.Project, error) {
	var (
		p         entity.Project
		createdBy *string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.TargetEndDate, &p.Status,
		&createdBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedBy = deref(createdBy)
	return &p, nil
}
