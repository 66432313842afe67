package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
)

// CatalogHandler categorías y proveedores.
type CatalogHandler struct {
	categories *catalog.CategoryUseCase
	suppliers  *catalog.SupplierUseCase
	errs       errorMapper
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(categories *catalog.CategoryUseCase, suppliers *catalog.SupplierUseCase, errs errorMapper) *CatalogHandler {
	return &CatalogHandler{categories: categories, suppliers: suppliers, errs: errs}
}

// CreateCategory godoc
// @Summary      Crear categoría
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCategoryRequest  true  "name, description"
// @Success      201   {object}  dto.SuccessResponse{data=dto.CategoryResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.categories.Create(c.UserContext(), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// ListCategories godoc
// @Summary      Listar categorías
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.CategoryResponse}
// @Router       /api/categories [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.categories.List(c.UserContext())
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// CreateSupplier godoc
// @Summary      Crear proveedor
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSupplierRequest  true  "name, contact, phone, email"
// @Success      201   {object}  dto.SuccessResponse{data=dto.SupplierResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/suppliers [post]
func (h *CatalogHandler) CreateSupplier(c *fiber.Ctx) error {
	var in dto.CreateSupplierRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.suppliers.Create(c.UserContext(), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// ListSuppliers godoc
// @Summary      Listar proveedores
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20, máx 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.SupplierResponse}
// @Router       /api/suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *fiber.Ctx) error {
	out, err := h.suppliers.List(c.UserContext(), pageFrom(c))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

func pageFrom(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
}
