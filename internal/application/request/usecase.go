// Package request flujo de solicitudes de material: solicitud, autorización y despacho.
package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// MovementRegistrar registra una salida dentro de una transacción ya abierta.
// Committed se invoca tras el commit (métricas y log del movimiento).
type MovementRegistrar interface {
	RegisterMovementInTx(ctx context.Context, repos repository.TxRepos, in inventory.MovementInput) (*entity.InventoryMovement, error)
	Committed(mov *entity.InventoryMovement)
}

// UseCase casos de uso de solicitudes de material.
type UseCase struct {
	txRunner  inventory.TxRunner
	requests  repository.MaterialRequestRepository
	projects  repository.ProjectRepository
	products  repository.ProductRepository
	registrar MovementRegistrar
	log       *logger.Logger
	now       func() time.Time
}

// New construye el caso de uso. log puede ser nil.
func New(
	txRunner inventory.TxRunner,
	requests repository.MaterialRequestRepository,
	projects repository.ProjectRepository,
	products repository.ProductRepository,
	registrar MovementRegistrar,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:  txRunner,
		requests:  requests,
		projects:  projects,
		products:  products,
		registrar: registrar,
		log:       log,
		now:       time.Now,
	}
}

// Create registra una solicitud pendiente para una obra en curso.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreateMaterialRequestRequest) (*dto.MaterialRequestResponse, error) {
	verr := domain.NewValidationError()
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		verr.Add("project_id", "la obra es requerida")
	} else if _, err := uuid.Parse(projectID); err != nil {
		verr.Add("project_id", "identificador de obra inválido")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "debe incluir al menos un material")
	}
	now := uc.now()
	req := &entity.MaterialRequest{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		RequestedBy: userID,
		Status:      entity.RequestStatusPending,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case it.Quantity <= 0:
			verr.Add(field+".quantity", "la cantidad debe ser un entero positivo")
		case it.Quantity > entity.StockMax:
			verr.Add(field+".quantity", fmt.Sprintf("máximo %d", entity.StockMax))
		}
		code := strings.TrimSpace(it.ProductCode)
		if code == "" {
			verr.Add(field+".product_code", "el código es requerido")
			continue
		}
		p, err := uc.products.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if p == nil {
			verr.Add(field+".product_code", "el producto no existe")
			continue
		}
		req.Items = append(req.Items, entity.MaterialRequestItem{
			ID:          uuid.New().String(),
			RequestID:   req.ID,
			ProductID:   p.ID,
			ProductCode: p.Code,
			Quantity:    it.Quantity,
		})
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	project, err := uc.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("obra %s: %w", req.ProjectID, domain.ErrNotFound)
	}
	if project.Status != entity.ProjectStatusInProgress {
		return nil, fmt.Errorf("la obra no está en curso: %w", domain.ErrInvalidState)
	}

	if err := uc.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	uc.log.Info().Str("request_id", req.ID).Str("project_id", req.ProjectID).Msg("solicitud de material creada")
	return ToResponse(req), nil
}

// Get obtiene una solicitud.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.MaterialRequestResponse, error) {
	req, err := uc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("solicitud %s: %w", id, domain.ErrNotFound)
	}
	return ToResponse(req), nil
}

// List lista solicitudes por estado y/o obra, más recientes primero.
func (uc *UseCase) List(ctx context.Context, status, projectID string, page dto.PageRequest) (*dto.MaterialRequestListResponse, error) {
	page.DefaultPage()
	list, err := uc.requests.List(ctx, repository.MaterialRequestFilter{
		Status:    status,
		ProjectID: projectID,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialRequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *ToResponse(r))
	}
	return &dto.MaterialRequestListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Approve autoriza una solicitud pendiente.
func (uc *UseCase) Approve(ctx context.Context, id, reviewerID string, in dto.ReviewMaterialRequestRequest) (*dto.MaterialRequestResponse, error) {
	return uc.review(ctx, id, reviewerID, entity.RequestStatusApproved, strings.TrimSpace(in.Note))
}

// Reject rechaza una solicitud pendiente; la nota es obligatoria.
func (uc *UseCase) Reject(ctx context.Context, id, reviewerID string, in dto.ReviewMaterialRequestRequest) (*dto.MaterialRequestResponse, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" {
		verr := domain.NewValidationError()
		verr.Add("note", "indique el motivo del rechazo")
		return nil, verr
	}
	return uc.review(ctx, id, reviewerID, entity.RequestStatusRejected, note)
}

func (uc *UseCase) review(ctx context.Context, id, reviewerID, status, note string) (*dto.MaterialRequestResponse, error) {
	var out *entity.MaterialRequest
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		req, err := uc.lock(ctx, repos, id)
		if err != nil {
			return err
		}
		if req.Status != entity.RequestStatusPending {
			return fmt.Errorf("solicitud en estado %s: %w", req.Status, domain.ErrInvalidState)
		}
		req.Status = status
		req.ReviewedBy = reviewerID
		req.ReviewNote = note
		req.UpdatedAt = uc.now()
		if err := repos.MaterialRequests.UpdateReview(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("request_id", id).Str("status", status).Str("reviewer_id", reviewerID).Msg("solicitud revisada")
	return ToResponse(out), nil
}

// Fulfil despacha una solicitud aprobada: registra la Salida y marca la solicitud como despachada
// en la misma transacción. Si falta stock no cambia nada.
func (uc *UseCase) Fulfil(ctx context.Context, id, userID string) (*dto.MaterialRequestResponse, error) {
	var (
		out *entity.MaterialRequest
		mov *entity.InventoryMovement
	)
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		req, err := uc.lock(ctx, repos, id)
		if err != nil {
			return err
		}
		if req.Status != entity.RequestStatusApproved {
			return fmt.Errorf("solicitud en estado %s: %w", req.Status, domain.ErrInvalidState)
		}
		in := inventory.MovementInput{
			UserID:            userID,
			Kind:              entity.MovementKindSalida,
			Notes:             "Despacho de solicitud " + req.ID,
			MaterialRequestID: req.ID,
			Lines:             make([]inventory.LineInput, 0, len(req.Items)),
		}
		for _, it := range req.Items {
			in.Lines = append(in.Lines, inventory.LineInput{ProductCode: it.ProductCode, Quantity: it.Quantity})
		}
		mov, err = uc.registrar.RegisterMovementInTx(ctx, repos, in)
		if err != nil {
			return err
		}
		req.Status = entity.RequestStatusFulfilled
		req.MovementID = mov.ID
		req.UpdatedAt = uc.now()
		if err := repos.MaterialRequests.UpdateReview(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.registrar.Committed(mov)
	uc.log.Info().Str("request_id", id).Str("movement_id", out.MovementID).Msg("solicitud despachada")
	return ToResponse(out), nil
}

func (uc *UseCase) lock(ctx context.Context, repos repository.TxRepos, id string) (*entity.MaterialRequest, error) {
	req, err := repos.MaterialRequests.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("solicitud %s: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

// ToResponse mapea la entidad al DTO.
func ToResponse(r *entity.MaterialRequest) *dto.MaterialRequestResponse {
	out := &dto.MaterialRequestResponse{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		RequestedBy: r.RequestedBy,
		Status:      r.Status,
		Notes:       r.Notes,
		ReviewedBy:  r.ReviewedBy,
		ReviewNote:  r.ReviewNote,
		MovementID:  r.MovementID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Items:       make([]dto.MaterialRequestItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.MaterialRequestItemResponse{
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			Quantity:    it.Quantity,
		})
	}
	return out
}
