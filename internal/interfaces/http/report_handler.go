package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/report"
	"github.com/jhoicas/materiales-api/internal/domain"
)

// ReportHandler expone el reporte diario en JSON y PDF.
type ReportHandler struct {
	uc   *report.DailyReportUseCase
	errs errorMapper
	now  func() time.Time
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.DailyReportUseCase, errs errorMapper) *ReportHandler {
	return &ReportHandler{uc: uc, errs: errs, now: time.Now}
}

// Daily godoc
// @Summary      Reporte diario
// @Description  Entradas, salidas, productos más movidos, cambios de precio y obras nuevas del día.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        date  query  string  false  "YYYY-MM-DD (default: hoy)"
// @Success      200  {object}  dto.SuccessResponse{data=dto.DailyReportDTO}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/daily [get]
func (h *ReportHandler) Daily(c *fiber.Ctx) error {
	day, err := h.day(c)
	if err != nil {
		return h.errs.write(c, err)
	}
	out, err := h.uc.DailyReport(c.UserContext(), day)
	if err != nil {
		return h.errs.write(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// DailyPDF godoc
// @Summary      Reporte diario en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        date  query  string  false  "YYYY-MM-DD (default: hoy)"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/daily.pdf [get]
func (h *ReportHandler) DailyPDF(c *fiber.Ctx) error {
	day, err := h.day(c)
	if err != nil {
		return h.errs.write(c, err)
	}
	pdf, filename, err := h.uc.DailyReportPDF(c.UserContext(), day)
	if err != nil {
		return h.errs.write(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(pdf)
}

func (h *ReportHandler) day(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return h.now(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("date", "formato esperado YYYY-MM-DD")
		return time.Time{}, verr
	}
	return day, nil
}
