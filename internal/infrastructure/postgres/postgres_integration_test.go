package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/pkg/config"
)

// Requiere una base PostgreSQL desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool, stock int) (*entity.User, *entity.Product) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := uuid.New().String()[:6]

	user := &entity.User{ID: uuid.New().String(), Email: suffix + "@obra.co", PasswordHash: "x", Name: "Bodega",
		Role: entity.RoleBodeguero, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewUserRepository(pool).Create(ctx, user))

	cat := &entity.Category{ID: uuid.New().String(), Name: "Cat " + suffix, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewCategoryRepository(pool).Create(ctx, cat))

	p := &entity.Product{ID: uuid.New().String(), Code: suffix, Name: "Cemento " + suffix, Stock: stock,
		ListPrice: decimal.RequireFromString("100.50"), PublicPrice: decimal.RequireFromString("130"),
		CategoryID: cat.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewProductRepository(pool).Create(ctx, p))
	return user, p
}

// ─── Migraciones ─────────────────────────────────────────────────────────────

func TestMigrate_EsIdempotente(t *testing.T) {
	pool := testPool(t)
	applied, err := postgres.Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

// ─── Productos ───────────────────────────────────────────────────────────────

func TestProductRepo_CodigoDuplicado(t *testing.T) {
	pool := testPool(t)
	_, p := seed(t, pool, 0)
	dup := *p
	dup.ID = uuid.New().String()
	err := postgres.NewProductRepository(pool).Create(context.Background(), &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductRepo_GetByCodeInexistenteDevuelveNil(t *testing.T) {
	pool := testPool(t)
	p, err := postgres.NewProductRepository(pool).GetByCode(context.Background(), "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepo_PreciosConDecimal(t *testing.T) {
	pool := testPool(t)
	_, p := seed(t, pool, 0)
	got, err := postgres.NewProductRepository(pool).GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.ListPrice.Equal(decimal.RequireFromString("100.50")))
	assert.Empty(t, got.SupplierID)
}

// ─── Movimientos en transacción ──────────────────────────────────────────────

func TestTxRunner_CommitYRollback(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	user, p := seed(t, pool, 10)
	runner := postgres.NewTxRunner(pool)
	movID := uuid.New().String()

	err := runner.Run(ctx, func(repos repository.TxRepos) error {
		cur, err := repos.Products.GetByCodeForUpdate(ctx, p.Code)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := repos.Movements.Create(ctx, &entity.InventoryMovement{ID: movID, UserID: user.ID, Date: now,
			Kind: entity.MovementKindSalida, CreatedAt: now}); err != nil {
			return err
		}
		if err := repos.Products.UpdateStock(ctx, cur.ID, cur.Stock-4); err != nil {
			return err
		}
		return repos.Movements.CreateLineItem(ctx, &entity.MovementLineItem{ID: uuid.New().String(),
			MovementID: movID, ProductID: cur.ID, Quantity: 4})
	})
	require.NoError(t, err)

	movs := postgres.NewInventoryMovementRepository(pool)
	m, err := movs.GetByID(ctx, movID)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Len(t, m.Items, 1)
	assert.Equal(t, p.Code, m.Items[0].ProductCode)

	err = runner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Products.UpdateStock(ctx, p.ID, 0); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := postgres.NewProductRepository(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	units, err := movs.UnitsByProduct(ctx, entity.MovementKindSalida, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, units[p.ID])
}

// ─── Historial de precios ────────────────────────────────────────────────────

func TestPriceHistoryRepo_OrdenMasRecientePrimero(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, p := seed(t, pool, 0)
	repo := postgres.NewPriceHistoryRepository(pool)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []string{entity.PriceChangeCreation, entity.PriceChangeUpdate} {
		require.NoError(t, repo.Append(ctx, &entity.PriceHistoryRecord{
			ID: uuid.New().String(), ProductID: p.ID, ListPrice: decimal.NewFromInt(int64(100 + i)),
			PublicPrice: decimal.NewFromInt(150), ChangeDate: day.AddDate(0, 0, i), ChangeKind: kind,
			CreatedAt: time.Now(),
		}))
	}
	list, err := repo.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.PriceChangeUpdate, list[0].ChangeKind)
	assert.Equal(t, entity.PriceChangeCreation, list[1].ChangeKind)
}
