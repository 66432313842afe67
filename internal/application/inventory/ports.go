package inventory

import (
	"context"
	"io"

	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// ObjectStorage almacenamiento de objetos para comprobantes. Devuelve la URL pública del objeto.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// IdempotencyGuard evita registrar dos veces el mismo envío (header Idempotency-Key).
// Reserve devuelve (movementID, false) si la clave ya se completó, ("", false) si otro
// envío con la misma clave sigue en curso, y ("", true) si la reserva es nueva.
type IdempotencyGuard interface {
	Reserve(ctx context.Context, key string) (movementID string, reserved bool, err error)
	Complete(ctx context.Context, key, movementID string) error
	Release(ctx context.Context, key string) error
}

// MovementMetrics contadores del motor de movimientos.
type MovementMetrics interface {
	MovementRegistered(kind string, lines int)
	MovementRejected(reason string)
	ReceiptUploadFailed()
}
