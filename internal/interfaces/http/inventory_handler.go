package http

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	uc            *inventory.RegisterMovementUseCase
	query         *inventory.MovementQueryUseCase
	replenishment *inventory.ReplenishmentUseCase
	errs          errorMapper
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.RegisterMovementUseCase,
	query *inventory.MovementQueryUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	errs errorMapper,
) *InventoryHandler {
	return &InventoryHandler{uc: uc, query: query, replenishment: replenishment, errs: errs}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entrada o Salida con una o más líneas, todo o nada. Acepta JSON o multipart/form-data
// @Description  con el JSON en el campo "payload" y el comprobante en "receipt". El comprobante se sube
// @Description  después de confirmar el stock; si la subida falla el movimiento queda sin receipt_url.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        Idempotency-Key  header    string                       false  "Reintentos con la misma clave devuelven el mismo movimiento"
// @Param        body             body      dto.RegisterMovementRequest  false  "kind, items[{product_code, quantity}], notes"
// @Param        payload          formData  string                       false  "JSON del movimiento (multipart)"
// @Param        receipt          formData  file                         false  "Comprobante (multipart)"
// @Success      201   {object}  dto.RegisterMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
	}

	var (
		in      dto.RegisterMovementRequest
		receipt *inventory.Receipt
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		payload := c.FormValue("payload")
		if payload == "" {
			return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "el campo payload es requerido")
		}
		if err := json.Unmarshal([]byte(payload), &in); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "payload no es JSON válido")
		}
		fh, err := c.FormFile("receipt")
		if err == nil {
			f, err := fh.Open()
			if err != nil {
				return fail(c, fiber.StatusBadRequest, "INVALID_FILE", "no se pudo leer el comprobante")
			}
			defer f.Close()
			receipt = &inventory.Receipt{FileName: fh.Filename, ContentType: contentType(fh), Body: f}
		}
	} else if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}

	out, err := h.uc.RegisterMovementFromRequest(c.UserContext(), userID, in, receipt, c.Get("Idempotency-Key"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        kind          query  string  false  "Entrada | Salida"
// @Param        user_id       query  string  false  "Usuario que registró"
// @Param        product_code  query  string  false  "Movimientos que incluyen el producto"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD o RFC3339, inclusivo)"
// @Param        to            query  string  false  "Hasta (YYYY-MM-DD inclusivo, o RFC3339 exclusivo)"
// @Param        limit         query  int     false  "Límite (default 20, máx 100)"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MovementListResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, err := dateQuery(c, "from", false)
	if err != nil {
		return h.errs.write(c, err)
	}
	to, err := dateQuery(c, "to", true)
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.query.List(c.UserContext(), inventory.MovementQuery{
		Kind:        c.Query("kind"),
		UserID:      c.Query("user_id"),
		ProductCode: c.Query("product_code"),
		From:        from,
		To:          to,
		Page:        pageFrom(c),
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// GetMovement godoc
// @Summary      Obtener movimiento con sus líneas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.MovementResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.query.Get(c.UserContext(), id)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// GetLowStock godoc
// @Summary      Productos con stock bajo y cantidad sugerida
// @Description  Productos con stock <= threshold, priorizados por las salidas de los últimos 30 días.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  int  false  "Umbral de stock (default 5)"
// @Param        limit      query  int  false  "Máximo de productos (default 50)"
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.ReplenishmentSuggestionDTO}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), c.QueryInt("threshold", 5), c.QueryInt("limit", 50))
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, list)
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" {
		return ct
	}
	return fiber.MIMEOctetStream
}
