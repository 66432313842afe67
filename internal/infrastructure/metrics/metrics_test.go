package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/infrastructure/metrics"
)

func TestMiddleware_CuentaPorRutaYEstado(t *testing.T) {
	m := metrics.New("test")
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/products/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "x") })

	for _, path := range []string{"/products/1", "/products/2", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	expected := `
# HELP http_status_category_total Respuestas por categoría de estado (2xx, 4xx, 5xx)
# TYPE http_status_category_total counter
http_status_category_total{category="2xx",service="test"} 2
http_status_category_total{category="5xx",service="test"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_status_category_total"))
}

func TestContadoresDeDominio(t *testing.T) {
	m := metrics.New("test")
	m.MovementRegistered("Entrada", 3)
	m.MovementRegistered("Entrada", 2)
	m.MovementRejected("insufficient_stock")
	m.ReceiptUploadFailed()
	m.PriceSnapshotRecorded("update")

	expected := `
# HELP inventory_movement_lines_total Líneas de movimiento registradas por tipo
# TYPE inventory_movement_lines_total counter
inventory_movement_lines_total{kind="Entrada"} 5
# HELP inventory_movements_rejected_total Movimientos rechazados por motivo
# TYPE inventory_movements_rejected_total counter
inventory_movements_rejected_total{reason="insufficient_stock"} 1
# HELP inventory_receipt_upload_failures_total Subidas de comprobante fallidas (el movimiento queda registrado sin comprobante)
# TYPE inventory_receipt_upload_failures_total counter
inventory_receipt_upload_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"inventory_movement_lines_total", "inventory_movements_rejected_total", "inventory_receipt_upload_failures_total"))
}

func TestHandler_ExponeFormatoTexto(t *testing.T) {
	m := metrics.New("test")
	m.MovementRegistered("Salida", 1)
	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `inventory_movements_total{kind="Salida"} 1`)
}
