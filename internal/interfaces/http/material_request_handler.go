package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/request"
)

// MaterialRequestHandler expone el flujo de solicitudes de material de obra.
type MaterialRequestHandler struct {
	uc   *request.UseCase
	errs errorMapper
}

// NewMaterialRequestHandler construye el handler.
func NewMaterialRequestHandler(uc *request.UseCase, errs errorMapper) *MaterialRequestHandler {
	return &MaterialRequestHandler{uc: uc, errs: errs}
}

// Create godoc
// @Summary      Crear solicitud de material para una obra en curso
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequestRequest  true  "project_id, items[{product_code, quantity}], notes"
// @Success      201  {object}  dto.SuccessResponse{data=dto.MaterialRequestResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/material-requests [post]
func (h *MaterialRequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMaterialRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// List godoc
// @Summary      Listar solicitudes de material
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "pending | approved | rejected | fulfilled"
// @Param        project_id  query  string  false  "Obra"
// @Param        limit       query  int     false  "Límite"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MaterialRequestListResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/material-requests [get]
func (h *MaterialRequestHandler) List(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID != "" {
		if _, err := uuid.Parse(projectID); err != nil {
			return fail(c, fiber.StatusBadRequest, "VALIDATION", "project_id inválido")
		}
	}
	out, err := h.uc.List(c.UserContext(), c.Query("status"), projectID, pageFrom(c))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Get godoc
// @Summary      Obtener solicitud de material
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MaterialRequestResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id} [get]
func (h *MaterialRequestHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Approve godoc
// @Summary      Aprobar solicitud pendiente
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                            true   "ID de la solicitud"
// @Param        body  body  dto.ReviewMaterialRequestRequest  false  "Nota opcional"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MaterialRequestResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/approve [post]
func (h *MaterialRequestHandler) Approve(c *fiber.Ctx) error {
	return h.review(c, h.uc.Approve)
}

// Reject godoc
// @Summary      Rechazar solicitud pendiente
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                            true  "ID de la solicitud"
// @Param        body  body  dto.ReviewMaterialRequestRequest  true  "Motivo del rechazo"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MaterialRequestResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/reject [post]
func (h *MaterialRequestHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, h.uc.Reject)
}

// Fulfil godoc
// @Summary      Despachar solicitud aprobada
// @Description  Registra la Salida de las líneas y marca la solicitud como fulfilled en la misma transacción.
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MaterialRequestResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/fulfil [post]
func (h *MaterialRequestHandler) Fulfil(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.uc.Fulfil(c.UserContext(), id, GetUserID(c))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

type reviewFunc func(ctx context.Context, id, reviewerID string, in dto.ReviewMaterialRequestRequest) (*dto.MaterialRequestResponse, error)

func (h *MaterialRequestHandler) review(c *fiber.Ctx, fn reviewFunc) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	var in dto.ReviewMaterialRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := fn(c.UserContext(), id, GetUserID(c), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}
