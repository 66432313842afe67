package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
)

func TestMovementQuery_FiltraPorTipoYProducto(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 10)
	seedProduct(t, s, "B1", 10)
	uc := newUseCase(s)
	ctx := context.Background()

	_, err := uc.RegisterMovement(ctx, inventory.MovementInput{UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", 1)})
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, inventory.MovementInput{UserID: testUserID, Kind: entity.MovementKindSalida, Lines: lines("B1", 2)})
	require.NoError(t, err)

	q := inventory.NewMovementQueryUseCase(s.Movements(), s.Products())

	out, err := q.List(ctx, inventory.MovementQuery{Kind: entity.MovementKindSalida})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "B1", out.Items[0].Items[0].ProductCode)

	out, err = q.List(ctx, inventory.MovementQuery{ProductCode: "A1"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, entity.MovementKindEntrada, out.Items[0].Kind)

	_, err = q.List(ctx, inventory.MovementQuery{ProductCode: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = q.List(ctx, inventory.MovementQuery{Kind: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementQuery_UsuarioConIdentificadorInvalido(t *testing.T) {
	s := memory.NewStore()
	q := inventory.NewMovementQueryUseCase(s.Movements(), s.Products())

	_, err := q.List(context.Background(), inventory.MovementQuery{UserID: "abc"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")

	out, err := q.List(context.Background(), inventory.MovementQuery{UserID: testUserID})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestMovementQuery_GetInexistente(t *testing.T) {
	s := memory.NewStore()
	q := inventory.NewMovementQueryUseCase(s.Movements(), s.Products())
	_, err := q.Get(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementQuery_RangoDeFechas(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 0)
	uc := newUseCase(s)
	ctx := context.Background()
	_, err := uc.RegisterMovement(ctx, inventory.MovementInput{UserID: testUserID, Kind: entity.MovementKindEntrada, Lines: lines("A1", 1)})
	require.NoError(t, err)

	q := inventory.NewMovementQueryUseCase(s.Movements(), s.Products())
	from := fixedNow.Add(time.Hour)
	out, err := q.List(ctx, inventory.MovementQuery{From: &from, Page: dto.PageRequest{Limit: 5}})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, 5, out.Page.Limit)
}

func TestReplenishment_PriorizaPorRotacion(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "A1", 6)
	seedProduct(t, s, "B1", 9)
	seedProduct(t, s, "C1", 50)
	uc := inventory.NewRegisterMovementUseCase(s, s.Movements())
	ctx := context.Background()

	_, err := uc.RegisterMovement(ctx, inventory.MovementInput{UserID: testUserID, Kind: entity.MovementKindSalida, Lines: lines("A1", 4, "B1", 8)})
	require.NoError(t, err)

	rep := inventory.NewReplenishmentUseCase(s.Products(), s.Movements())
	out, err := rep.GenerateReplenishmentList(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "B1", out[0].ProductCode)
	assert.Equal(t, 1, out[0].CurrentStock)
	assert.Equal(t, 8, out[0].UnitsOutLast30Days)
	assert.Equal(t, 7, out[0].SuggestedOrderQty)
	assert.Equal(t, 1, out[0].Priority)

	assert.Equal(t, "A1", out[1].ProductCode)
	assert.Equal(t, 4, out[1].SuggestedOrderQty, "mínimo para superar el umbral")
}
