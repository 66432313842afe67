// Package project casos de uso de obras: alta con adjuntos, estado, archivos y bitácora.
package project

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
	"github.com/jhoicas/materiales-api/pkg/slug"
)

// ObjectStorage almacenamiento de los adjuntos de obra.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Upload archivo recibido para adjuntar a una obra.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// UseCase casos de uso de obras.
type UseCase struct {
	repo    repository.ProjectRepository
	storage ObjectStorage
	log     *logger.Logger
	now     func() time.Time
}

// New construye el caso de uso. log puede ser nil.
func New(repo repository.ProjectRepository, storage ObjectStorage, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{repo: repo, storage: storage, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Create valida, sube de 1 a 3 archivos a projects/<id>/<nombre> y persiste la obra.
// Si una subida falla no se persiste nada.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreateProjectRequest, files []Upload) (*dto.ProjectResponse, error) {
	verr := domain.NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "el nombre es requerido")
	}
	start, startErr := parseDate(in.StartDate)
	switch {
	case strings.TrimSpace(in.StartDate) == "":
		verr.Add("start_date", "la fecha de inicio es requerida")
	case startErr != nil:
		verr.Add("start_date", "formato esperado YYYY-MM-DD")
	}
	var target *time.Time
	if strings.TrimSpace(in.TargetEndDate) != "" {
		t, err := parseDate(in.TargetEndDate)
		switch {
		case err != nil:
			verr.Add("target_end_date", "formato esperado YYYY-MM-DD")
		case startErr == nil && t.Before(start):
			verr.Add("target_end_date", "no puede ser anterior a la fecha de inicio")
		default:
			target = &t
		}
	}
	if len(files) < entity.ProjectMinFilesOnCreate || len(files) > entity.ProjectMaxFilesOnCreate {
		verr.Add("files", fmt.Sprintf("se requieren entre %d y %d archivos",
			entity.ProjectMinFilesOnCreate, entity.ProjectMaxFilesOnCreate))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := uc.now()
	p := &entity.Project{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		StartDate:     start,
		TargetEndDate: target,
		Status:        entity.ProjectStatusInProgress,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	stored, err := uc.upload(ctx, p.ID, userID, files, nil, now)
	if err != nil {
		return nil, err
	}
	p.Files = stored
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("project_id", p.ID).Int("files", len(stored)).Msg("obra creada")
	return ToProjectResponse(p), nil
}

// Get obtiene una obra con archivos y bitácora.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.ProjectResponse, error) {
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProjectResponse(p), nil
}

// List lista obras, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status string, page dto.PageRequest) (*dto.ProjectListResponse, error) {
	if status != "" && !entity.ValidProjectStatus(status) {
		verr := domain.NewValidationError()
		verr.Add("status", "debe ser in_progress o finished")
		return nil, verr
	}
	page.DefaultPage()
	list, err := uc.repo.List(ctx, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProjectResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProjectResponse(p))
	}
	return &dto.ProjectListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// ChangeStatus mueve la obra entre in_progress y finished (en ambos sentidos).
func (uc *UseCase) ChangeStatus(ctx context.Context, id, status string) (*dto.ProjectResponse, error) {
	if !entity.ValidProjectStatus(status) {
		verr := domain.NewValidationError()
		verr.Add("status", "debe ser in_progress o finished")
		return nil, verr
	}
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != status {
		now := uc.now()
		if err := uc.repo.UpdateStatus(ctx, id, status, now); err != nil {
			return nil, err
		}
		p.Status = status
		p.UpdatedAt = now
		uc.log.Info().Str("project_id", id).Str("status", status).Msg("estado de obra actualizado")
	}
	return ToProjectResponse(p), nil
}

// AddFiles agrega uno o más adjuntos, sin importar el estado de la obra.
func (uc *UseCase) AddFiles(ctx context.Context, id, userID string, files []Upload) (*dto.ProjectResponse, error) {
	if len(files) == 0 {
		verr := domain.NewValidationError()
		verr.Add("files", "debe adjuntar al menos un archivo")
		return nil, verr
	}
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stored, err := uc.upload(ctx, id, userID, files, p.Files, uc.now())
	if err != nil {
		return nil, err
	}
	for i := range stored {
		if err := uc.repo.AddFile(ctx, &stored[i]); err != nil {
			return nil, err
		}
	}
	p.Files = append(p.Files, stored...)
	return ToProjectResponse(p), nil
}

// AddLog agrega una entrada de bitácora.
func (uc *UseCase) AddLog(ctx context.Context, id, userID string, in dto.AddProjectLogRequest) (*dto.ProjectLogResponse, error) {
	entry := strings.TrimSpace(in.Entry)
	if entry == "" {
		verr := domain.NewValidationError()
		verr.Add("entry", "el texto es requerido")
		return nil, verr
	}
	if _, err := uc.find(ctx, id); err != nil {
		return nil, err
	}
	l := &entity.ProjectLog{
		ID:        uuid.New().String(),
		ProjectID: id,
		UserID:    userID,
		Entry:     entry,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.AddLog(ctx, l); err != nil {
		return nil, err
	}
	out := toLogResponse(*l)
	return &out, nil
}

func (uc *UseCase) find(ctx context.Context, id string) (*entity.Project, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("obra %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (uc *UseCase) upload(ctx context.Context, projectID, userID string, files []Upload, existing []entity.ProjectFile, now time.Time) ([]entity.ProjectFile, error) {
	if uc.storage == nil {
		return nil, &domain.StorageError{Key: "projects/" + projectID, Err: fmt.Errorf("almacenamiento no configurado")}
	}
	taken := make(map[string]bool, len(existing)+len(files))
	for _, f := range existing {
		taken[f.StorageKey] = true
	}
	out := make([]entity.ProjectFile, 0, len(files))
	for _, f := range files {
		key := uniqueKey(projectID, slug.FileName(f.FileName), taken)
		taken[key] = true
		url, err := uc.storage.Put(ctx, key, f.ContentType, f.Body)
		if err != nil {
			uc.log.Error().Err(err).Str("project_id", projectID).Str("key", key).Msg("fallo al subir adjunto de obra")
			return nil, &domain.StorageError{Key: key, Err: err}
		}
		out = append(out, entity.ProjectFile{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			URL:         url,
			StorageKey:  key,
			UploadedBy:  userID,
			CreatedAt:   now,
		})
	}
	return out, nil
}

// uniqueKey evita pisar un adjunto con el mismo nombre: foto.jpg, 2-foto.jpg, 3-foto.jpg...
func uniqueKey(projectID, name string, taken map[string]bool) string {
	key := fmt.Sprintf("projects/%s/%s", projectID, name)
	for n := 2; taken[key]; n++ {
		key = fmt.Sprintf("projects/%s/%d-%s", projectID, n, name)
	}
	return key
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}

// ToProjectResponse mapea la entidad al DTO.
func ToProjectResponse(p *entity.Project) *dto.ProjectResponse {
	out := &dto.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate.Format(time.DateOnly),
		Status:      p.Status,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Files:       make([]dto.ProjectFileResponse, 0, len(p.Files)),
		Logs:        make([]dto.ProjectLogResponse, 0, len(p.Logs)),
	}
	if p.TargetEndDate != nil {
		out.TargetEndDate = p.TargetEndDate.Format(time.DateOnly)
	}
	for _, f := range p.Files {
		out.Files = append(out.Files, dto.ProjectFileResponse{
			ID:          f.ID,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			URL:         f.URL,
			UploadedBy:  f.UploadedBy,
			CreatedAt:   f.CreatedAt,
		})
	}
	for _, l := range p.Logs {
		out.Logs = append(out.Logs, toLogResponse(l))
	}
	return out
}

func toLogResponse(l entity.ProjectLog) dto.ProjectLogResponse {
	return dto.ProjectLogResponse{ID: l.ID, UserID: l.UserID, Entry: l.Entry, CreatedAt: l.CreatedAt}
}
