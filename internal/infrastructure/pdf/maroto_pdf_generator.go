// Package pdf genera el reporte operativo diario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha del reporte                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Entradas / Salidas / Unidades / Precios / Obras    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Producto | Entradas | Salidas               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Hora | Tipo | Líneas | Unidades | Comprobante        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/report"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

var _ report.PDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorIn      = &props.Color{Red: 20, Green: 120, Blue: 60}
	colorOut     = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa report.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	company string
}

// NewMarotoPDFGenerator construye el generador; company aparece en el encabezado.
func NewMarotoPDFGenerator(company string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{company: company}
}

// GenerateDailyReportPDF genera el PDF del reporte y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDailyReportPDF(_ context.Context, rep *dto.DailyReportDTO) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte diario "+rep.Date, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.company, rep.Date))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("PRODUCTOS CON MÁS MOVIMIENTO"))
	if len(rep.TopProducts) == 0 {
		m.AddRows(emptyRow("Sin movimientos en el día."))
	} else {
		m.AddRows(productsHeaderRow())
		m.AddRows(productRows(rep.TopProducts)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle("MOVIMIENTOS"))
	if len(rep.Movements) == 0 {
		m.AddRows(emptyRow("No se registraron movimientos."))
	} else {
		m.AddRows(movementsHeaderRow())
		m.AddRows(movementRows(rep.Movements)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(company, date string) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(nonEmpty(company, "Materiales"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Reporte operativo de inventario", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DIARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(date, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
		),
	)
}

// summaryRow: indicadores del día en cuatro columnas.
func summaryRow(rep *dto.DailyReportDTO) core.Row {
	cell := func(size int, label, value string, c *props.Color) core.Col {
		return col.New(size).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: c, Top: 6}),
		)
	}
	return row.New(16).Add(
		cell(3, "Entradas (unidades)", fmt.Sprintf("%d (%d)", rep.EntryCount, rep.UnitsIn), colorIn),
		cell(3, "Salidas (unidades)", fmt.Sprintf("%d (%d)", rep.ExitCount, rep.UnitsOut), colorOut),
		cell(3, "Cambios de precio", strconv.Itoa(rep.PriceChanges), colorPrimary),
		cell(3, "Obras nuevas", strconv.Itoa(rep.NewProjects), colorPrimary),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(text.New(s, props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
	})))
}

func emptyRow(s string) core.Row {
	return row.New(6).Add(col.New(12).Add(text.New(s, props.Text{Size: 8, Color: colorGray, Top: 1})))
}

func tableHeader(cols ...headerCol) core.Row {
	out := make([]core.Col, 0, len(cols))
	for _, h := range cols {
		out = append(out, col.New(h.size).Add(text.New(h.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: h.align, Color: colorPrimary, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(out...)
}

type headerCol struct {
	label string
	size  int
	align align.Type
}

func productsHeaderRow() core.Row {
	return tableHeader(
		headerCol{"Código", 2, align.Left},
		headerCol{"Producto", 6, align.Left},
		headerCol{"Entradas", 2, align.Right},
		headerCol{"Salidas", 2, align.Right},
	)
}

func productRows(list []dto.ProductUnitsDTO) []core.Row {
	out := make([]core.Row, 0, len(list))
	for _, p := range list {
		out = append(out, row.New(5).Add(
			col.New(2).Add(text.New(p.ProductCode, props.Text{Size: 8, Left: 1})),
			col.New(6).Add(text.New(p.ProductName, props.Text{Size: 8, Left: 1})),
			col.New(2).Add(text.New(strconv.Itoa(p.UnitsIn), props.Text{Size: 8, Align: align.Right, Right: 1, Color: colorIn})),
			col.New(2).Add(text.New(strconv.Itoa(p.UnitsOut), props.Text{Size: 8, Align: align.Right, Right: 1, Color: colorOut})),
		))
	}
	return out
}

func movementsHeaderRow() core.Row {
	return tableHeader(
		headerCol{"Hora", 2, align.Left},
		headerCol{"Tipo", 2, align.Left},
		headerCol{"Productos", 5, align.Left},
		headerCol{"Unidades", 2, align.Right},
		headerCol{"Comp.", 1, align.Center},
	)
}

func movementRows(list []dto.MovementResponse) []core.Row {
	out := make([]core.Row, 0, len(list))
	for _, mv := range list {
		units := 0
		codes := ""
		for i, it := range mv.Items {
			units += it.Quantity
			if i > 0 {
				codes += ", "
			}
			codes += it.ProductCode
		}
		kindColor := colorIn
		if mv.Kind == entity.MovementKindSalida {
			kindColor = colorOut
		}
		receipt := "—"
		if mv.ReceiptURL != "" {
			receipt = "sí"
		}
		out = append(out, row.New(5).Add(
			col.New(2).Add(text.New(mv.Date.Format("15:04"), props.Text{Size: 8, Left: 1})),
			col.New(2).Add(text.New(mv.Kind, props.Text{Size: 8, Left: 1, Color: kindColor})),
			col.New(5).Add(text.New(truncate(codes, 60), props.Text{Size: 8, Left: 1})),
			col.New(2).Add(text.New(strconv.Itoa(units), props.Text{Size: 8, Align: align.Right, Right: 1})),
			col.New(1).Add(text.New(receipt, props.Text{Size: 8, Align: align.Center})),
		))
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
