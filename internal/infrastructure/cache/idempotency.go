package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/materiales-api/internal/application/inventory"
)

var _ inventory.IdempotencyGuard = (*IdempotencyGuard)(nil)

const (
	idempotencyPrefix = "materiales:idem:movement:"
	pendingValue      = "pending"
	// DefaultIdempotencyTTL tiempo que se recuerda una clave completada.
	DefaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyGuard guarda en Redis el estado de cada Idempotency-Key:
// "pending" mientras el movimiento está en curso y luego el ID del movimiento.
type IdempotencyGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewIdempotencyGuard ttl <= 0 usa DefaultIdempotencyTTL.
func NewIdempotencyGuard(rdb redis.Cmdable, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyGuard{rdb: rdb, ttl: ttl}
}

// Reserve intenta tomar la clave con SETNX.
func (g *IdempotencyGuard) Reserve(ctx context.Context, key string) (string, bool, error) {
	k := idempotencyPrefix + key
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.rdb.SetNX(ctx, k, pendingValue, g.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}
		val, err := g.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// expiró entre SETNX y GET
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency get: %w", err)
		}
		if val == pendingValue {
			return "", false, nil
		}
		return val, false, nil
	}
	return "", false, nil
}

// Complete asocia la clave al movimiento registrado.
func (g *IdempotencyGuard) Complete(ctx context.Context, key, movementID string) error {
	if err := g.rdb.Set(ctx, idempotencyPrefix+key, movementID, g.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release libera la clave para que el cliente pueda reintentar.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}
