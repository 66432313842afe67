package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/domain"
)

// idParam lee un parámetro de ruta UUID. Un valor malformado no puede existir: se responde 404.
func idParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// dateQuery acepta YYYY-MM-DD (zona local) o RFC3339. endOfDay convierte una fecha sin hora
// en el inicio del día siguiente, para usarla como límite exclusivo.
func dateQuery(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add(name, "formato esperado YYYY-MM-DD o RFC3339")
		return nil, verr
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
