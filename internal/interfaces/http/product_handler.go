package http

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
)

// ProductHandler maneja las peticiones HTTP del catálogo de productos (protegido).
type ProductHandler struct {
	ledger *catalog.ProductLedger
	errs   errorMapper
}

// NewProductHandler construye el handler.
func NewProductHandler(ledger *catalog.ProductLedger, errs errorMapper) *ProductHandler {
	return &ProductHandler{ledger: ledger, errs: errs}
}

// Create godoc
// @Summary      Crear producto
// @Description  Registra el producto y la primera foto de precios (creation) en la misma transacción.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.SuccessResponse{data=dto.ProductResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.ledger.Create(c.UserContext(), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// BulkCreate godoc
// @Summary      Alta masiva de productos
// @Description  Todo o nada: si un producto es inválido o su código existe, no se crea ninguno.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkCreateProductsRequest  true  "products"
// @Success      201   {object}  dto.SuccessResponse{data=[]dto.ProductResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/bulk [post]
func (h *ProductHandler) BulkCreate(c *fiber.Ctx) error {
	var in dto.BulkCreateProductsRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.ledger.BulkCreate(c.UserContext(), in.Products)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Coincidencia parcial en código o nombre"
// @Param        category_id  query  string  false  "Filtrar por categoría"
// @Param        limit        query  int     false  "Límite (default 20, máx 100)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.ProductListResponse}
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.ledger.List(c.UserContext(), c.Query("search"), c.Query("category_id"), pageFrom(c))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// GetByCode godoc
// @Summary      Buscar producto por código
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del producto"
// @Success      200  {object}  dto.SuccessResponse{data=dto.ProductResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{code} [get]
func (h *ProductHandler) GetByCode(c *fiber.Ctx) error {
	out, err := h.ledger.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Update godoc
// @Summary      Editar producto
// @Description  Edición parcial de name, stock, list_price y public_price. El código es inmutable.
// @Description  Si cambia algún precio se agrega una foto (update) al historial en la misma transacción.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.SuccessResponse{data=dto.ProductResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [patch]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := productIDParam(c)
	if err != nil {
		return h.errs.write(c, err)
	}
	var in dto.UpdateProductRequest
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido: "+err.Error())
	}
	out, err := h.ledger.Update(c.UserContext(), id, in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// PriceHistory godoc
// @Summary      Historial de precios de un producto
// @Description  Más reciente primero (change_date DESC, created_at DESC).
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.PriceHistoryResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/price-history [get]
func (h *ProductHandler) PriceHistory(c *fiber.Ctx) error {
	id, err := productIDParam(c)
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.ledger.PriceHistory(c.UserContext(), id)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

func productIDParam(c *fiber.Ctx) (string, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return "", domain.ErrProductNotFound
	}
	return id, nil
}
