package repository

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// ProjectRepository define el puerto de persistencia para obras, adjuntos y bitácora.
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	// GetByID devuelve la obra con archivos y bitácora, o (nil, nil).
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Project, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	AddFile(ctx context.Context, file *entity.ProjectFile) error
	AddLog(ctx context.Context, log *entity.ProjectLog) error
	CountCreatedOn(ctx context.Context, day time.Time) (int, error)
}
