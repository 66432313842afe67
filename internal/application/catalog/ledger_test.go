package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store    *memory.Store
	ledger   *catalog.ProductLedger
	category string
	supplier string
	clock    *time.Time
}

type countingMetrics struct{ kinds []string }

func (m *countingMetrics) PriceSnapshotRecorded(kind string) { m.kinds = append(m.kinds, kind) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	cat := &entity.Category{ID: uuid.New().String(), Name: "Cementos"}
	require.NoError(t, store.Categories().Create(ctx, cat))
	sup := &entity.Supplier{ID: uuid.New().String(), Name: "Argos"}
	require.NoError(t, store.Suppliers().Create(ctx, sup))

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	f := &fixture{store: store, category: cat.ID, supplier: sup.ID, clock: &now}
	f.ledger = catalog.NewProductLedger(
		store, store.Products(), store.PriceHistory(), store.Categories(), store.Suppliers(),
		catalog.NewPriceHistoryRecorder(nil),
	).WithClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) createRequest(code string) dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Code:        code,
		Name:        "Cemento gris 50kg",
		Stock:       0,
		ListPrice:   decimal.NewFromInt(100),
		PublicPrice: decimal.NewFromInt(150),
		CategoryID:  f.category,
		SupplierID:  f.supplier,
	}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_RegistraFotoDeCreacion(t *testing.T) {
	f := newFixture(t)
	out, err := f.ledger.Create(context.Background(), f.createRequest("000010"))
	require.NoError(t, err)

	require.Len(t, out.PriceHistory, 1)
	h := out.PriceHistory[0]
	assert.Equal(t, entity.PriceChangeCreation, h.ChangeKind)
	assert.True(t, h.ListPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, h.PublicPrice.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "2024-03-10", h.ChangeDate)
	assert.Equal(t, f.supplier, h.SupplierID)
}

func TestCreate_CodigoDuplicadoDevuelveErrDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Create(context.Background(), f.createRequest("000010"))
	require.NoError(t, err)

	_, err = f.ledger.Create(context.Background(), f.createRequest("000010"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreate_ValidacionPorCampo(t *testing.T) {
	f := newFixture(t)
	in := f.createRequest("1234567")
	in.Name = ""
	in.Stock = -1
	in.ListPrice = decimal.NewFromInt(-5)
	in.CategoryID = uuid.New().String()

	_, err := f.ledger.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "code")
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "list_price")
	assert.Contains(t, verr.Fields, "category_id")
	assert.NotContains(t, verr.Fields, "public_price")
}

func TestCreate_ProveedorOpcional(t *testing.T) {
	f := newFixture(t)
	in := f.createRequest("A1")
	in.SupplierID = ""
	out, err := f.ledger.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, out.SupplierID)
	require.Len(t, out.PriceHistory, 1)
	assert.Empty(t, out.PriceHistory[0].SupplierID)
}

func TestCreate_ReferenciasConIdentificadorInvalido(t *testing.T) {
	f := newFixture(t)
	in := f.createRequest("A1")
	in.CategoryID = "abc"
	in.SupplierID = "xyz"

	_, err := f.ledger.Create(context.Background(), in)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "la categoría no existe", verr.Fields["category_id"])
	assert.Equal(t, "el proveedor no existe", verr.Fields["supplier_id"])

	_, err = f.ledger.BulkCreate(context.Background(), []dto.CreateProductRequest{in})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "products[0].category_id")
}

func TestCreate_PreciosRedondeadosADosDecimales(t *testing.T) {
	f := newFixture(t)
	in := f.createRequest("A1")
	in.ListPrice = decimal.RequireFromString("99.995")
	in.PublicPrice = decimal.RequireFromString("150.004")

	out, err := f.ledger.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "100.00", out.ListPrice.StringFixed(2))
	assert.True(t, out.PublicPrice.Equal(decimal.NewFromInt(150)))
	require.Len(t, out.PriceHistory, 1)
	assert.True(t, out.PriceHistory[0].ListPrice.Equal(decimal.NewFromInt(100)))
}

func TestCreate_LimitesDeColumna(t *testing.T) {
	f := newFixture(t)
	in := f.createRequest("A1")
	in.Stock = entity.StockMax + 1
	in.ListPrice = entity.PriceMax
	in.PublicPrice = decimal.RequireFromString("999999999999.99")

	_, err := f.ledger.Create(context.Background(), in)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "list_price")
	assert.NotContains(t, verr.Fields, "public_price", "el máximo de NUMERIC(14,2) es válido")
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_CambioDePrecioAgregaRegistroUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.ledger.Create(ctx, f.createRequest("000010"))
	require.NoError(t, err)

	*f.clock = f.clock.Add(48 * time.Hour)
	out, err := f.ledger.Update(ctx, created.ID, dto.UpdateProductRequest{ListPrice: dec(120)})
	require.NoError(t, err)

	require.Len(t, out.PriceHistory, 2)
	latest := out.PriceHistory[0]
	assert.Equal(t, entity.PriceChangeUpdate, latest.ChangeKind)
	assert.True(t, latest.ListPrice.Equal(decimal.NewFromInt(120)))
	assert.True(t, latest.PublicPrice.Equal(decimal.NewFromInt(150)), "el precio no editado se copia al registro")
	assert.Equal(t, "2024-03-12", latest.ChangeDate)
	assert.Equal(t, entity.PriceChangeCreation, out.PriceHistory[1].ChangeKind)
}

func TestUpdate_SinCambioDePrecioNoAgregaRegistro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.ledger.Create(ctx, f.createRequest("000010"))
	require.NoError(t, err)

	name := "Cemento blanco"
	stock := 40
	out, err := f.ledger.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name: &name, Stock: &stock, ListPrice: dec(100),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cemento blanco", out.Name)
	assert.Equal(t, 40, out.Stock)
	assert.Len(t, out.PriceHistory, 1)
}

func TestUpdate_PrecioQueRedondeaAlActualNoAgregaRegistro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.ledger.Create(ctx, f.createRequest("000010"))
	require.NoError(t, err)

	almost := decimal.RequireFromString("100.004")
	out, err := f.ledger.Update(ctx, created.ID, dto.UpdateProductRequest{ListPrice: &almost})
	require.NoError(t, err)
	assert.True(t, out.ListPrice.Equal(decimal.NewFromInt(100)), "la respuesta refleja el valor almacenado")
	assert.Len(t, out.PriceHistory, 1)

	history, err := f.ledger.PriceHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdate_LimitesDeColumna(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.ledger.Create(ctx, f.createRequest("000010"))
	require.NoError(t, err)

	stock := entity.StockMax + 1
	huge := decimal.RequireFromString("999999999999.999")
	_, err = f.ledger.Update(ctx, created.ID, dto.UpdateProductRequest{Stock: &stock, PublicPrice: &huge})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "public_price")

	got, err := f.ledger.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Len(t, got.PriceHistory, 1)
}

func TestUpdate_CodigoInmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.ledger.Create(ctx, f.createRequest("000010"))
	require.NoError(t, err)

	code := "000011"
	_, err = f.ledger.Update(ctx, created.ID, dto.UpdateProductRequest{Code: &code, ListPrice: dec(300)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.ledger.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "000010", got.Code)
	assert.True(t, got.ListPrice.Equal(decimal.NewFromInt(100)))
	assert.Len(t, got.PriceHistory, 1)
}

func TestUpdate_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Update(context.Background(), uuid.New().String(), dto.UpdateProductRequest{ListPrice: dec(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta masiva
// ──────────────────────────────────────────────────────────────────────────────

func TestBulkCreate_CadaProductoTieneFotoDeCreacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.ledger.BulkCreate(ctx, []dto.CreateProductRequest{
		f.createRequest("B1"), f.createRequest("B2"), f.createRequest("B3"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	for _, p := range out {
		history, err := f.ledger.PriceHistory(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, history, 1, "producto %s", p.Code)
		assert.Equal(t, entity.PriceChangeCreation, history[0].ChangeKind)
	}
}

func TestBulkCreate_TodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.Create(ctx, f.createRequest("B2"))
	require.NoError(t, err)

	_, err = f.ledger.BulkCreate(ctx, []dto.CreateProductRequest{
		f.createRequest("B1"), f.createRequest("B2"),
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.ledger.FindByCode(ctx, "B1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "B1 no debe quedar persistido")
}

func TestBulkCreate_CodigoRepetidoEnElLote(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.BulkCreate(context.Background(), []dto.CreateProductRequest{
		f.createRequest("C1"), f.createRequest("C1"),
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "products[1].code")
}

// ──────────────────────────────────────────────────────────────────────────────
// Listener y consultas
// ──────────────────────────────────────────────────────────────────────────────

type failingListener struct{}

func (failingListener) ProductCreated(context.Context, repository.PriceHistoryRepository, *entity.Product, time.Time) error {
	return errors.New("fallo historial")
}

func (failingListener) ProductUpdated(context.Context, repository.PriceHistoryRepository, *entity.Product, *entity.Product, time.Time) error {
	return errors.New("fallo historial")
}

func TestCreate_FalloDelHistorialRevierteElProducto(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	cat := &entity.Category{ID: uuid.New().String(), Name: "Aceros"}
	require.NoError(t, store.Categories().Create(ctx, cat))

	ledger := catalog.NewProductLedger(store, store.Products(), store.PriceHistory(),
		store.Categories(), store.Suppliers(), failingListener{})
	_, err := ledger.Create(ctx, dto.CreateProductRequest{
		Code: "X1", Name: "Varilla", CategoryID: cat.ID,
		ListPrice: decimal.NewFromInt(1), PublicPrice: decimal.NewFromInt(2),
	})
	require.Error(t, err)

	p, err := store.Products().GetByCode(ctx, "X1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPriceHistoryRecorder_NotificaMetricas(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	cat := &entity.Category{ID: uuid.New().String(), Name: "Pinturas"}
	require.NoError(t, store.Categories().Create(ctx, cat))
	metrics := &countingMetrics{}

	ledger := catalog.NewProductLedger(store, store.Products(), store.PriceHistory(),
		store.Categories(), store.Suppliers(), catalog.NewPriceHistoryRecorder(metrics))
	p, err := ledger.Create(ctx, dto.CreateProductRequest{
		Code: "P1", Name: "Vinilo", CategoryID: cat.ID,
		ListPrice: decimal.NewFromInt(10), PublicPrice: decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	_, err = ledger.Update(ctx, p.ID, dto.UpdateProductRequest{PublicPrice: dec(13)})
	require.NoError(t, err)

	assert.Equal(t, []string{entity.PriceChangeCreation, entity.PriceChangeUpdate}, metrics.kinds)
}

func TestList_BuscaPorCodigoONombre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.createRequest("AR01")
	in.Name = "Arena lavada"
	_, err := f.ledger.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, f.createRequest("CE01"))
	require.NoError(t, err)

	out, err := f.ledger.List(ctx, "arena", "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "AR01", out.Items[0].Code)
	assert.Equal(t, 20, out.Page.Limit)

	out, err = f.ledger.List(ctx, "ce0", "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "CE01", out.Items[0].Code)
}

func TestList_CategoriaConIdentificadorInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.List(context.Background(), "", "abc", dto.PageRequest{})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "category_id")
}
