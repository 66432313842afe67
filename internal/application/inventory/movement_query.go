package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// MovementQueryUseCase lecturas de movimientos (lado de consulta).
type MovementQueryUseCase struct {
	movements repository.InventoryMovementRepository
	products  repository.ProductRepository
}

// NewMovementQueryUseCase construye el caso de uso.
func NewMovementQueryUseCase(movements repository.InventoryMovementRepository, products repository.ProductRepository) *MovementQueryUseCase {
	return &MovementQueryUseCase{movements: movements, products: products}
}

// MovementQuery filtros aceptados por List. ProductCode se resuelve a ID.
type MovementQuery struct {
	Kind        string
	UserID      string
	ProductCode string
	From        *time.Time
	To          *time.Time
	Page        dto.PageRequest
}

// Get obtiene un movimiento con sus líneas.
func (uc *MovementQueryUseCase) Get(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	out := ToMovementResponse(m)
	return &out, nil
}

// List lista movimientos, más recientes primero.
func (uc *MovementQueryUseCase) List(ctx context.Context, q MovementQuery) (*dto.MovementListResponse, error) {
	verr := domain.NewValidationError()
	if q.Kind != "" && !entity.ValidMovementKind(q.Kind) {
		verr.Add("kind", "debe ser Entrada o Salida")
	}
	if q.UserID != "" {
		if _, err := uuid.Parse(q.UserID); err != nil {
			verr.Add("user_id", "identificador de usuario inválido")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	q.Page.DefaultPage()
	filter := repository.MovementFilter{
		Kind:   q.Kind,
		UserID: q.UserID,
		From:   q.From,
		To:     q.To,
		Limit:  q.Page.Limit,
		Offset: q.Page.Offset,
	}
	if q.ProductCode != "" {
		p, err := uc.products.GetByCode(ctx, q.ProductCode)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		filter.ProductID = p.ID
	}
	list, err := uc.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Page.Limit, Offset: q.Page.Offset},
	}, nil
}

// ToMovementResponse mapea la entidad al DTO de lectura.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:                m.ID,
		UserID:            m.UserID,
		Date:              m.Date,
		Kind:              m.Kind,
		ReceiptURL:        m.ReceiptURL,
		Notes:             m.Notes,
		MaterialRequestID: m.MaterialRequestID,
		Items:             make([]dto.MovementLineResponse, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		out.Items = append(out.Items, dto.MovementLineResponse{
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}
	return out
}
