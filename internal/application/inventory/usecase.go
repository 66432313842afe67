package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/inventory"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RegisterMovementUseCase registra movimientos de inventario (Entrada/Salida) de varias líneas
// en una sola transacción: bloqueo de fila por línea (SELECT FOR UPDATE) y todo o nada.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	movements repository.InventoryMovementRepository
	storage   ObjectStorage
	guard     IdempotencyGuard
	metrics   MovementMetrics
	log       *logger.Logger
	now       func() time.Time
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*RegisterMovementUseCase)

// WithStorage habilita la subida de comprobantes.
func WithStorage(s ObjectStorage) Option {
	return func(uc *RegisterMovementUseCase) { uc.storage = s }
}

// WithIdempotency habilita el guard de reenvíos.
func WithIdempotency(g IdempotencyGuard) Option {
	return func(uc *RegisterMovementUseCase) { uc.guard = g }
}

// WithMetrics registra contadores de movimientos.
func WithMetrics(m MovementMetrics) Option {
	return func(uc *RegisterMovementUseCase) { uc.metrics = m }
}

// WithLogger fija el logger.
func WithLogger(l *logger.Logger) Option {
	return func(uc *RegisterMovementUseCase) { uc.log = l }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *RegisterMovementUseCase) { uc.now = now }
}

// NewRegisterMovementUseCase construye el caso de uso.
// movements se usa fuera de la transacción para adjuntar el comprobante.
func NewRegisterMovementUseCase(txRunner TxRunner, movements repository.InventoryMovementRepository, opts ...Option) *RegisterMovementUseCase {
	uc := &RegisterMovementUseCase{
		txRunner:  txRunner,
		movements: movements,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Receipt archivo de comprobante adjunto al movimiento.
type Receipt struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// MovementInput entrada para registrar un movimiento.
type MovementInput struct {
	UserID            string
	Kind              string
	Notes             string
	Lines             []LineInput
	MaterialRequestID string
	Receipt           *Receipt
	IdempotencyKey    string
}

// LineInput una línea: código de producto y cantidad.
type LineInput struct {
	ProductCode string
	Quantity    int
}

// MovementResult resultado del registro.
type MovementResult struct {
	MovementID string
	ReceiptURL string
	Replayed   bool // true si se devolvió un movimiento previo con la misma Idempotency-Key
}

// RegisterMovement valida, ejecuta la transacción de stock y, tras el commit, sube el comprobante.
// Un fallo en la subida se registra en el log y no revierte el movimiento.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := validateInput(in); err != nil {
		uc.rejected("validation")
		return nil, err
	}

	// La clave se acota al usuario: dos usuarios pueden enviar el mismo valor.
	var guardKey string
	if uc.guard != nil && in.IdempotencyKey != "" {
		guardKey = in.UserID + ":" + in.IdempotencyKey
		existing, reserved, err := uc.guard.Reserve(ctx, guardKey)
		switch {
		case err != nil:
			uc.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("guard de idempotencia no disponible; se continúa sin él")
			guardKey = ""
		case !reserved && existing != "":
			return &MovementResult{MovementID: existing, Replayed: true}, nil
		case !reserved:
			uc.rejected("in_flight")
			return nil, fmt.Errorf("envío con la misma Idempotency-Key en curso: %w", domain.ErrConflict)
		}
	}

	var mov *entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		mov, err = uc.RegisterMovementInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		uc.releaseGuard(ctx, guardKey)
		uc.rejected(rejectReason(err))
		return nil, err
	}
	if guardKey != "" {
		if err := uc.guard.Complete(ctx, guardKey, mov.ID); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo completar la clave de idempotencia")
		}
	}
	uc.Committed(mov)

	out := &MovementResult{MovementID: mov.ID}
	if in.Receipt != nil {
		out.ReceiptURL = uc.attachReceipt(ctx, mov, in.Receipt)
	}
	return out, nil
}

// RegisterMovementInTx aplica el movimiento con los repositorios de una transacción abierta por el caller.
// Las líneas se procesan en el orden recibido; si un código se repite, cada línea vuelve a bloquear
// la fila y ve el stock ya ajustado por la anterior.
func (uc *RegisterMovementUseCase) RegisterMovementInTx(ctx context.Context, repos repository.TxRepos, in MovementInput) (*entity.InventoryMovement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := uc.now()
	mov := &entity.InventoryMovement{
		ID:                uuid.New().String(),
		UserID:            in.UserID,
		Date:              now,
		Kind:              in.Kind,
		Notes:             strings.TrimSpace(in.Notes),
		MaterialRequestID: in.MaterialRequestID,
		CreatedAt:         now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	for _, line := range in.Lines {
		code := strings.TrimSpace(line.ProductCode)
		// Bloquea la fila del producto hasta el commit
		product, err := repos.Products.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: código %s", domain.ErrProductNotFound, code)
		}
		newStock, err := inventory.ApplyDelta(in.Kind, product, line.Quantity)
		if err != nil {
			return nil, err
		}
		if err := repos.Products.UpdateStock(ctx, product.ID, newStock); err != nil {
			return nil, err
		}
		item := entity.MovementLineItem{
			ID:          uuid.New().String(),
			MovementID:  mov.ID,
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Quantity:    line.Quantity,
		}
		if err := repos.Movements.CreateLineItem(ctx, &item); err != nil {
			return nil, err
		}
		mov.Items = append(mov.Items, item)
	}
	return mov, nil
}

// Committed emite la métrica y el log de un movimiento ya confirmado. Quien use
// RegisterMovementInTx debe llamarlo después del commit de su transacción.
func (uc *RegisterMovementUseCase) Committed(mov *entity.InventoryMovement) {
	if uc.metrics != nil {
		uc.metrics.MovementRegistered(mov.Kind, len(mov.Items))
	}
	evt := uc.log.Info().
		Str("movement_id", mov.ID).
		Str("kind", mov.Kind).
		Int("lines", len(mov.Items)).
		Str("user_id", mov.UserID)
	if mov.MaterialRequestID != "" {
		evt = evt.Str("material_request_id", mov.MaterialRequestID)
	}
	evt.Msg("movimiento registrado")
}

// attachReceipt sube el comprobante y guarda la URL en la cabecera. Devuelve "" si algo falla.
func (uc *RegisterMovementUseCase) attachReceipt(ctx context.Context, mov *entity.InventoryMovement, r *Receipt) string {
	key := ReceiptKey(mov.ID, mov.Date, r.FileName)
	if uc.storage == nil {
		uc.log.Warn().Str("movement_id", mov.ID).Msg("comprobante recibido pero no hay almacenamiento configurado")
		return ""
	}
	url, err := uc.storage.Put(ctx, key, r.ContentType, r.Body)
	if err != nil {
		uc.receiptFailed(mov.ID, key, err)
		return ""
	}
	if err := uc.movements.AttachReceipt(ctx, mov.ID, url); err != nil {
		uc.receiptFailed(mov.ID, key, err)
		return ""
	}
	return url
}

func (uc *RegisterMovementUseCase) receiptFailed(movementID, key string, err error) {
	if uc.metrics != nil {
		uc.metrics.ReceiptUploadFailed()
	}
	uc.log.Error().Err(err).
		Str("movement_id", movementID).
		Str("key", key).
		Msg("fallo al subir el comprobante; el movimiento queda sin comprobante")
}

func (uc *RegisterMovementUseCase) releaseGuard(ctx context.Context, key string) {
	if uc.guard == nil || key == "" {
		return
	}
	if err := uc.guard.Release(ctx, key); err != nil {
		uc.log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo liberar la clave de idempotencia")
	}
}

func (uc *RegisterMovementUseCase) rejected(reason string) {
	if uc.metrics != nil {
		uc.metrics.MovementRejected(reason)
	}
}

// ReceiptKey clave del objeto: receipts/<movementID>/<YYYYMMDDTHHMMSS><ext>.
func ReceiptKey(movementID string, at time.Time, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("receipts/%s/%s%s", movementID, at.Format("20060102T150405"), ext)
}

func validateInput(in MovementInput) error {
	verr := domain.NewValidationError()
	if !entity.ValidMovementKind(in.Kind) {
		verr.Add("kind", "debe ser Entrada o Salida")
	}
	if in.UserID == "" {
		verr.Add("user_id", "usuario requerido")
	}
	if len(in.Lines) == 0 {
		verr.Add("items", "debe incluir al menos una línea")
	}
	for i, line := range in.Lines {
		if strings.TrimSpace(line.ProductCode) == "" {
			verr.Add(fmt.Sprintf("items[%d].product_code", i), "el código es requerido")
		}
		switch {
		case line.Quantity <= 0:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "la cantidad debe ser un entero positivo")
		case line.Quantity > entity.StockMax:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("máximo %d", entity.StockMax))
		}
	}
	return verr.OrNil()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	default:
		return "error"
	}
}
