package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testUserID = "00000000-0000-0000-0000-000000000001"

var fixedNow = time.Date(2024, 5, 2, 14, 30, 15, 0, time.UTC)

func seedProduct(t *testing.T, s *memory.Store, code string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: uuid.New().String(), Code: code, Name: "Producto " + code, Stock: stock}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, s *memory.Store, id string) int {
	t.Helper()
	p, err := s.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func countMovements(t *testing.T, s *memory.Store) int {
	t.Helper()
	list, err := s.Movements().List(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	return len(list)
}

type fakeStorage struct {
	mu   sync.Mutex
	err  error
	keys []string
	body []byte
}

func (f *fakeStorage) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.keys = append(f.keys, key)
	f.body = b
	return "https://cdn.example.com/" + key, nil
}

type fakeMetrics struct {
	registered     []string
	rejected       []string
	receiptFailure int
}

func (m *fakeMetrics) MovementRegistered(kind string, _ int) {
	m.registered = append(m.registered, kind)
}
func (m *fakeMetrics) MovementRejected(reason string) { m.rejected = append(m.rejected, reason) }
func (m *fakeMetrics) ReceiptUploadFailed()           { m.receiptFailure++ }

func newUseCase(s *memory.Store, opts ...inventory.Option) *inventory.RegisterMovementUseCase {
	opts = append([]inventory.Option{inventory.WithClock(func() time.Time { return fixedNow })}, opts...)
	return inventory.NewRegisterMovementUseCase(s, s.Movements(), opts...)
}

func lines(pairs ...any) []inventory.LineInput {
	out := make([]inventory.LineInput, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, inventory.LineInput{ProductCode: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas y salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_EntradaDosProductos(t *testing.T) {
	s := memory.NewStore()
	a := seedProduct(t, s, "A1", 3)
	b := seedProduct(t, s, "B1", 0)
	uc := newUseCase(s)

	res, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindEntrada,
		Lines:  lines("A1", 7, "B1", 12),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MovementID)
	assert.Equal(t, 10, stockOf(t, s, a.ID))
	assert.Equal(t, 12, stockOf(t, s, b.ID))

	mov, err := s.Movements().GetByID(context.Background(), res.MovementID)
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Len(t, mov.Items, 2)
	assert.Equal(t, 1, countMovements(t, s))
	assert.Empty(t, mov.ReceiptURL)
}

func TestRegisterMovement_SalidaSinStockSeRechazaCompleta(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "000010", 0)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindSalida,
		Lines:  lines("000010", 5),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "000010", stockErr.ProductCode)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 0, stockErr.Available)

	assert.Equal(t, 0, stockOf(t, s, p.ID))
	assert.Equal(t, 0, countMovements(t, s), "no debe persistir cabecera ni líneas")
}

func TestRegisterMovement_SalidaAtomicaConVariasLineas(t *testing.T) {
	s := memory.NewStore()
	a := seedProduct(t, s, "A1", 10)
	b := seedProduct(t, s, "B1", 2)
	c := seedProduct(t, s, "C1", 8)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindSalida,
		Lines:  lines("A1", 4, "B1", 3, "C1", 1),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "B1")

	assert.Equal(t, 10, stockOf(t, s, a.ID))
	assert.Equal(t, 2, stockOf(t, s, b.ID))
	assert.Equal(t, 8, stockOf(t, s, c.ID))
	assert.Equal(t, 0, countMovements(t, s))
}

func TestRegisterMovement_ProductoInexistenteRevierte(t *testing.T) {
	s := memory.NewStore()
	a := seedProduct(t, s, "A1", 1)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindEntrada,
		Lines:  lines("A1", 5, "ZZZ", 1),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "ZZZ")
	assert.Equal(t, 1, stockOf(t, s, a.ID))
	assert.Equal(t, 0, countMovements(t, s))
}

func TestRegisterMovement_CodigoRepetidoSeAplicaEnSecuencia(t *testing.T) {
	s := memory.NewStore()
	a := seedProduct(t, s, "A1", 5)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindSalida,
		Lines:  lines("A1", 3, "A1", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, s, a.ID))

	_, err = uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindEntrada,
		Lines:  lines("A1", 1),
	})
	require.NoError(t, err)

	// la segunda línea ve el stock ya descontado por la primera
	_, err = uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindSalida,
		Lines:  lines("A1", 1, "A1", 1),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, stockOf(t, s, a.ID))
}

func TestRegisterMovement_Validacion(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 5)
	metrics := &fakeMetrics{}
	uc := newUseCase(s, inventory.WithMetrics(metrics))

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   "Traslado",
		Lines:  lines("A1", 0, "", 2),
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "kind")
	assert.Contains(t, verr.Fields, "items[0].quantity")
	assert.Contains(t, verr.Fields, "items[1].product_code")

	_, err = uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindEntrada,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, []string{"validation", "validation"}, metrics.rejected)
}

func TestRegisterMovement_SalidasConcurrentesNoDejanStockNegativo(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "A1", 10)
	uc := newUseCase(s)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
				UserID: testUserID,
				Kind:   entity.MovementKindSalida,
				Lines:  lines("A1", 1),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, stockOf(t, s, p.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Comprobantes
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_ComprobanteSeSubeTrasElCommit(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 0)
	storage := &fakeStorage{}
	uc := newUseCase(s, inventory.WithStorage(storage))

	res, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID,
		Kind:   entity.MovementKindEntrada,
		Lines:  lines("A1", 2),
		Receipt: &inventory.Receipt{
			FileName:    "factura.PDF",
			ContentType: "application/pdf",
			Body:        strings.NewReader("%PDF-1.4"),
		},
	})
	require.NoError(t, err)

	wantKey := "receipts/" + res.MovementID + "/20240502T143015.pdf"
	require.Equal(t, []string{wantKey}, storage.keys)
	assert.Equal(t, "%PDF-1.4", string(storage.body))
	assert.Equal(t, "https://cdn.example.com/"+wantKey, res.ReceiptURL)

	mov, err := s.Movements().GetByID(context.Background(), res.MovementID)
	require.NoError(t, err)
	assert.Equal(t, res.ReceiptURL, mov.ReceiptURL)
}

func TestRegisterMovement_FalloDeSubidaNoRevierteElMovimiento(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "A1", 0)
	storage := &fakeStorage{err: errors.New("bucket caído")}
	metrics := &fakeMetrics{}
	var buf bytes.Buffer
	log := logger.FromZerolog(zerolog.New(&buf))
	uc := newUseCase(s, inventory.WithStorage(storage), inventory.WithMetrics(metrics), inventory.WithLogger(log))

	res, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID:  testUserID,
		Kind:    entity.MovementKindEntrada,
		Lines:   lines("A1", 4),
		Receipt: &inventory.Receipt{FileName: "foto.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Empty(t, res.ReceiptURL)
	assert.Equal(t, 4, stockOf(t, s, p.ID))

	mov, err := s.Movements().GetByID(context.Background(), res.MovementID)
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Empty(t, mov.ReceiptURL)

	assert.Equal(t, 1, metrics.receiptFailure)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), res.MovementID)
	assert.Contains(t, buf.String(), "bucket caído")
}

func TestReceiptKey_Formato(t *testing.T) {
	at := time.Date(2024, 1, 9, 8, 5, 3, 0, time.UTC)
	assert.Equal(t, "receipts/m1/20240109T080503.png", inventory.ReceiptKey("m1", at, "Scan.PNG"))
	assert.Equal(t, "receipts/m1/20240109T080503", inventory.ReceiptKey("m1", at, "sin_extension"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia
// ──────────────────────────────────────────────────────────────────────────────

type memGuard struct {
	mu   sync.Mutex
	keys map[string]string
}

func (g *memGuard) Reserve(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.keys[key]; ok {
		return v, false, nil
	}
	g.keys[key] = ""
	return "", true, nil
}

func (g *memGuard) Complete(_ context.Context, key, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys[key] = id
	return nil
}

func (g *memGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

func TestRegisterMovement_ReenvioDevuelveElMismoMovimiento(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "A1", 0)
	guard := &memGuard{keys: map[string]string{}}
	uc := newUseCase(s, inventory.WithIdempotency(guard))
	in := inventory.MovementInput{
		UserID:         testUserID,
		Kind:           entity.MovementKindEntrada,
		Lines:          lines("A1", 3),
		IdempotencyKey: "abc-123",
	}

	first, err := uc.RegisterMovement(context.Background(), in)
	require.NoError(t, err)
	second, err := uc.RegisterMovement(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.MovementID, second.MovementID)
	assert.True(t, second.Replayed)
	assert.Equal(t, 3, stockOf(t, s, p.ID))
	assert.Equal(t, 1, countMovements(t, s))
}

func TestRegisterMovement_ClaveEnCursoDevuelveConflicto(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 0)
	guard := &memGuard{keys: map[string]string{testUserID + ":k1": ""}}
	uc := newUseCase(s, inventory.WithIdempotency(guard))

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", 1), IdempotencyKey: "k1",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterMovement_FalloLiberaLaClave(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 0)
	guard := &memGuard{keys: map[string]string{}}
	uc := newUseCase(s, inventory.WithIdempotency(guard))

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID, Kind: entity.MovementKindSalida, Lines: lines("A1", 1), IdempotencyKey: "k2",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, exists := guard.keys[testUserID+":k2"]
	assert.False(t, exists, "un envío fallido puede reintentarse con la misma clave")
}

func TestRegisterMovement_ClaveAcotadaPorUsuario(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "A1", 0)
	guard := &memGuard{keys: map[string]string{}}
	uc := newUseCase(s, inventory.WithIdempotency(guard))
	const otherUser = "00000000-0000-0000-0000-000000000002"

	first, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", 2), IdempotencyKey: "misma",
	})
	require.NoError(t, err)
	second, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: otherUser, Kind: entity.MovementKindEntrada, Lines: lines("A1", 3), IdempotencyKey: "misma",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.MovementID, second.MovementID)
	assert.False(t, second.Replayed)
	assert.Equal(t, 5, stockOf(t, s, p.ID))
	assert.Equal(t, 2, countMovements(t, s))
}

// ──────────────────────────────────────────────────────────────────────────────
// Límites de columna
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_CantidadFueraDeRango(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 0)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", entity.StockMax+1),
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].quantity")
	assert.Equal(t, 0, countMovements(t, s))
}

func TestRegisterMovement_EntradaQueDesbordaElStockRevierte(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "A1", entity.StockMax-1)
	uc := newUseCase(s)

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", 2),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.StockMax-1, stockOf(t, s, p.ID))
	assert.Equal(t, 0, countMovements(t, s))
}
