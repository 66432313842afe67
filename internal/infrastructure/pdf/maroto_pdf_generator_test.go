package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/infrastructure/pdf"
)

func TestGenerateDailyReportPDF_GeneraDocumento(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("Materiales La Obra")
	rep := &dto.DailyReportDTO{
		Date: "2026-03-01", EntryCount: 1, ExitCount: 1, UnitsIn: 10, UnitsOut: 4, PriceChanges: 2, NewProjects: 1,
		TopProducts: []dto.ProductUnitsDTO{{ProductCode: "CEM01", ProductName: "Cemento gris 50kg", UnitsIn: 10, UnitsOut: 4}},
		Movements: []dto.MovementResponse{
			{ID: "m1", Kind: "Entrada", Date: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				Items: []dto.MovementLineResponse{{ProductCode: "CEM01", Quantity: 10}}, ReceiptURL: "http://x/r.pdf"},
			{ID: "m2", Kind: "Salida", Date: time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC),
				Items: []dto.MovementLineResponse{{ProductCode: "CEM01", Quantity: 4}}},
		},
	}

	raw, err := g.GenerateDailyReportPDF(context.Background(), rep)
	require.NoError(t, err)
	require.Greater(t, len(raw), 4)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestGenerateDailyReportPDF_DiaSinMovimientos(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("")
	raw, err := g.GenerateDailyReportPDF(context.Background(), &dto.DailyReportDTO{Date: "2026-03-02"})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestGenerateDailyReportPDF_NilFalla(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator("").GenerateDailyReportPDF(context.Background(), nil)
	assert.Error(t, err)
}
