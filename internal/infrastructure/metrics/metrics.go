// Package metrics expone métricas Prometheus: tráfico HTTP y contadores del dominio.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
)

var (
	_ inventory.MovementMetrics   = (*Metrics)(nil)
	_ catalog.PriceHistoryMetrics = (*Metrics)(nil)
)

// Metrics agrupa los collectors sobre un registry propio (no el global).
type Metrics struct {
	service  string
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec

	movements       *prometheus.CounterVec
	movementLines   *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	receiptFailures prometheus.Counter
	priceSnapshots  *prometheus.CounterVec
}

// New registra todos los collectors, más los de proceso y runtime de Go.
func New(service string) *Metrics {
	m := &Metrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de peticiones HTTP",
		}, []string{"service", "method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		statusCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Respuestas por categoría de estado (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_movements_total",
			Help: "Movimientos de inventario registrados por tipo",
		}, []string{"kind"}),
		movementLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_movement_lines_total",
			Help: "Líneas de movimiento registradas por tipo",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_movements_rejected_total",
			Help: "Movimientos rechazados por motivo",
		}, []string{"reason"}),
		receiptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_receipt_upload_failures_total",
			Help: "Subidas de comprobante fallidas (el movimiento queda registrado sin comprobante)",
		}),
		priceSnapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_price_snapshots_total",
			Help: "Registros de historial de precios por tipo de cambio",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.requests, m.requestDuration, m.statusCategory,
		m.movements, m.movementLines, m.rejections, m.receiptFailures, m.priceSnapshots,
	)
	return m
}

// Registry registry con todos los collectors (útil en tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware mide cada petición por ruta (patrón, no path concreto) y estado.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.service, c.Method(), path, statusStr).Inc()
		m.requestDuration.WithLabelValues(m.service, c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		if cat := statusCategory(status); cat != "" {
			m.statusCategory.WithLabelValues(m.service, cat).Inc()
		}
		return err
	}
}

// Handler expone /metrics en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) MovementRegistered(kind string, lines int) {
	m.movements.WithLabelValues(kind).Inc()
	m.movementLines.WithLabelValues(kind).Add(float64(lines))
}

func (m *Metrics) MovementRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReceiptUploadFailed() {
	m.receiptFailures.Inc()
}

func (m *Metrics) PriceSnapshotRecorded(kind string) {
	m.priceSnapshots.WithLabelValues(kind).Inc()
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}
