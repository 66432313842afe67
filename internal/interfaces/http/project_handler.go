package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/project"
)

// ProjectHandler expone las obras: alta con adjuntos, estado, archivos y bitácora.
type ProjectHandler struct {
	uc   *project.UseCase
	errs errorMapper
}

// NewProjectHandler construye el handler.
func NewProjectHandler(uc *project.UseCase, errs errorMapper) *ProjectHandler {
	return &ProjectHandler{uc: uc, errs: errs}
}

// Create godoc
// @Summary      Crear obra
// @Description  multipart/form-data con name, description, start_date, target_end_date y de 1 a 3 "files".
// @Description  Si un adjunto falla no se crea la obra (502).
// @Tags         projects
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        name             formData  string  true   "Nombre"
// @Param        description      formData  string  false  "Descripción"
// @Param        start_date       formData  string  true   "YYYY-MM-DD"
// @Param        target_end_date  formData  string  false  "YYYY-MM-DD"
// @Param        files            formData  file    true   "Adjuntos (1 a 3)"
// @Success      201  {object}  dto.SuccessResponse{data=dto.ProjectResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProjectRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	uploads, closeAll, err := formUploads(c, "files")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", "no se pudieron leer los adjuntos")
	}
	defer closeAll()

	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in, uploads)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// List godoc
// @Summary      Listar obras
// @Tags         projects
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "in_progress | finished"
// @Param        limit   query  int     false  "Límite"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.ProjectListResponse}
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("status"), pageFrom(c))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Get godoc
// @Summary      Obtener obra con adjuntos y bitácora
// @Tags         projects
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la obra"
// @Success      200  {object}  dto.SuccessResponse{data=dto.ProjectResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
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

// ChangeStatus godoc
// @Summary      Cambiar estado de la obra
// @Tags         projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la obra"
// @Param        body  body  dto.ChangeProjectStatusRequest  true  "in_progress | finished"
// @Success      200  {object}  dto.SuccessResponse{data=dto.ProjectResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/status [patch]
func (h *ProjectHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	var in dto.ChangeProjectStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), id, in.Status)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// AddFiles godoc
// @Summary      Adjuntar archivos a la obra
// @Tags         projects
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        id     path      string  true  "ID de la obra"
// @Param        files  formData  file    true  "Adjuntos"
// @Success      201  {object}  dto.SuccessResponse{data=dto.ProjectResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/files [post]
func (h *ProjectHandler) AddFiles(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	uploads, closeAll, err := formUploads(c, "files")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", "no se pudieron leer los adjuntos")
	}
	defer closeAll()

	out, err := h.uc.AddFiles(c.UserContext(), id, GetUserID(c), uploads)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// AddLog godoc
// @Summary      Agregar entrada a la bitácora de la obra
// @Tags         projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la obra"
// @Param        body  body  dto.AddProjectLogRequest  true  "Entrada"
// @Success      201  {object}  dto.SuccessResponse{data=dto.ProjectLogResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/logs [post]
func (h *ProjectHandler) AddLog(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	var in dto.AddProjectLogRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.AddLog(c.UserContext(), id, GetUserID(c), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// formUploads abre los archivos del campo field. Sin multipart devuelve lista vacía.
func formUploads(c *fiber.Ctx, field string) ([]project.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	var (
		uploads []project.Upload
		closers []func() error
	)
	closeAll := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		closers = append(closers, f.Close)
		uploads = append(uploads, project.Upload{FileName: fh.Filename, ContentType: contentType(fh), Body: f})
	}
	return uploads, closeAll, nil
}
