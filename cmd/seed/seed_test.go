package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
)

// ─── CSV ──────────────────────────────────────────────────────────────────────

func TestParseCatalogCSV_Latin1ConCabecera(t *testing.T) {
	src := "codigo;nombre;categoria;stock;precio_lista;precio_publico\n" +
		"TUB001;Tubería PVC ½ pulgada;Hidráulicos;10;1.500,50;2100\n" +
		"CAB001;Cable eléctrico;Eléctricos;0;$ 800;950.25\n"
	latin, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	r, err := decodeReader(bytes.NewReader([]byte(latin)), "ISO-8859-1")
	require.NoError(t, err)
	rows, err := parseCatalogCSV(r, ';')
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Tubería PVC ½ pulgada", rows[0].Name)
	assert.Equal(t, "Hidráulicos", rows[0].Category)
	assert.Equal(t, "1500.5", rows[0].ListPrice.String())
	assert.Equal(t, "800", rows[1].ListPrice.String())
	assert.Equal(t, "950.25", rows[1].PublicPrice.String())
}

func TestParseCatalogCSV_ReportaTodasLasLineasInvalidas(t *testing.T) {
	src := "A1;Uno;Cat;x;1;1\nB1;Dos;Cat;1;1\nC1;Tres;;1;1;1\n"
	_, err := parseCatalogCSV(strings.NewReader(src), ';')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 1: stock inválido")
	assert.Contains(t, err.Error(), "línea 2: se esperaban al menos 6 columnas")
	assert.Contains(t, err.Error(), "línea 3: categoría vacía")
}

func TestDecodeReader_CharsetDesconocido(t *testing.T) {
	_, err := decodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

// ─── Carga ────────────────────────────────────────────────────────────────────

func TestSeeder_CreaCategoriasYOmiteExistentes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := &seeder{
		categories: catalog.NewCategoryUseCase(store.Categories()),
		ledger: catalog.NewProductLedger(store, store.Products(), store.PriceHistory(),
			store.Categories(), store.Suppliers(), catalog.NewPriceHistoryRecorder(nil)),
	}
	rows, err := parseCatalogCSV(strings.NewReader("A1;Uno;Pinturas;1;10;12\nB1;Dos;pinturas;2;20;24\n"), ';')
	require.NoError(t, err)

	created, skipped, err := s.load(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Zero(t, skipped)

	cats, err := s.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "la categoría se resuelve sin distinguir mayúsculas")

	created, skipped, err = s.load(ctx, rows)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2, skipped)

	list, err := s.ledger.List(ctx, "", "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}
