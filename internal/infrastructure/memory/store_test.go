package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, s *memory.Store, code string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: uuid.New().String(), Code: code, Name: "Producto " + code, Stock: stock}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func TestRun_ErrorRestauraElEstado(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "A1", 10)

	err := s.Run(ctx, func(repos repository.TxRepos) error {
		require.NoError(t, repos.Products.UpdateStock(ctx, p.ID, 3))
		require.NoError(t, repos.Movements.Create(ctx, &entity.InventoryMovement{ID: "m1", Kind: entity.MovementKindSalida}))
		return errors.New("abortar")
	})
	require.Error(t, err)

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	m, err := s.Movements().GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRun_SerializaTransacciones(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "A1", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Run(ctx, func(repos repository.TxRepos) error {
				cur, err := repos.Products.GetByIDForUpdate(ctx, p.ID)
				if err != nil {
					return err
				}
				return repos.Products.UpdateStock(ctx, p.ID, cur.Stock+1)
			})
		}()
	}
	wg.Wait()

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Stock)
}

func TestMovementRepo_LineasDesnormalizanProducto(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "A1", 0)
	movs := s.Movements()

	require.NoError(t, movs.Create(ctx, &entity.InventoryMovement{ID: "m1", Kind: entity.MovementKindEntrada, Date: time.Now()}))
	require.NoError(t, movs.CreateLineItem(ctx, &entity.MovementLineItem{ID: "l1", MovementID: "m1", ProductID: p.ID, Quantity: 4}))

	got, err := movs.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A1", got.Items[0].ProductCode)

	list, err := movs.List(ctx, repository.MovementFilter{ProductID: p.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = movs.List(ctx, repository.MovementFilter{Kind: entity.MovementKindSalida})
	require.NoError(t, err)
	assert.Empty(t, list)
}
