// Package report reporte diario de operación (JSON y PDF).
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

const topProducts = 10

// PDFGenerator genera la representación PDF del reporte diario.
type PDFGenerator interface {
	GenerateDailyReportPDF(ctx context.Context, report *dto.DailyReportDTO) ([]byte, error)
}

// DailyReportUseCase arma el resumen de un día a partir de movimientos, historial de precios y obras.
type DailyReportUseCase struct {
	movements repository.InventoryMovementRepository
	history   repository.PriceHistoryRepository
	projects  repository.ProjectRepository
	generator PDFGenerator
}

// NewDailyReportUseCase construye el caso de uso. generator puede ser nil si no se expone el PDF.
func NewDailyReportUseCase(
	movements repository.InventoryMovementRepository,
	history repository.PriceHistoryRepository,
	projects repository.ProjectRepository,
	generator PDFGenerator,
) *DailyReportUseCase {
	return &DailyReportUseCase{movements: movements, history: history, projects: projects, generator: generator}
}

// DailyReport resume el día de day (en su zona horaria).
func (uc *DailyReportUseCase) DailyReport(ctx context.Context, day time.Time) (*dto.DailyReportDTO, error) {
	from := entity.DateOnly(day)
	to := from.AddDate(0, 0, 1)

	movs, err := uc.movements.List(ctx, repository.MovementFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("reporte: movimientos: %w", err)
	}
	priceChanges, err := uc.history.CountByDate(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("reporte: historial de precios: %w", err)
	}
	newProjects, err := uc.projects.CountCreatedOn(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("reporte: obras: %w", err)
	}

	out := &dto.DailyReportDTO{
		Date:         from.Format(time.DateOnly),
		PriceChanges: priceChanges,
		NewProjects:  newProjects,
		Movements:    make([]dto.MovementResponse, 0, len(movs)),
	}
	byProduct := make(map[string]*dto.ProductUnitsDTO)
	for _, m := range movs {
		out.Movements = append(out.Movements, inventory.ToMovementResponse(m))
		if m.Kind == entity.MovementKindEntrada {
			out.EntryCount++
		} else {
			out.ExitCount++
		}
		for _, it := range m.Items {
			pu, ok := byProduct[it.ProductID]
			if !ok {
				pu = &dto.ProductUnitsDTO{ProductCode: it.ProductCode, ProductName: it.ProductName}
				byProduct[it.ProductID] = pu
			}
			if m.Kind == entity.MovementKindEntrada {
				pu.UnitsIn += it.Quantity
				out.UnitsIn += it.Quantity
			} else {
				pu.UnitsOut += it.Quantity
				out.UnitsOut += it.Quantity
			}
		}
	}

	top := make([]dto.ProductUnitsDTO, 0, len(byProduct))
	for _, pu := range byProduct {
		top = append(top, *pu)
	}
	sort.Slice(top, func(i, j int) bool {
		ti, tj := top[i].UnitsIn+top[i].UnitsOut, top[j].UnitsIn+top[j].UnitsOut
		if ti != tj {
			return ti > tj
		}
		return top[i].ProductCode < top[j].ProductCode
	})
	if len(top) > topProducts {
		top = top[:topProducts]
	}
	out.TopProducts = top
	return out, nil
}

// DailyReportPDF genera el PDF del día. Devuelve los bytes y el nombre de archivo sugerido.
func (uc *DailyReportUseCase) DailyReportPDF(ctx context.Context, day time.Time) ([]byte, string, error) {
	if uc.generator == nil {
		return nil, "", fmt.Errorf("reporte: generador PDF no configurado")
	}
	rep, err := uc.DailyReport(ctx, day)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateDailyReportPDF(ctx, rep)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación PDF: %w", err)
	}
	return pdf, fmt.Sprintf("reporte_%s.pdf", rep.Date), nil
}
