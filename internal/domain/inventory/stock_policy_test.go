package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/inventory"
)

func product(stock int) *entity.Product {
	return &entity.Product{Code: "000010", Name: "Cemento gris 50kg", Stock: stock}
}

func TestApplyDelta_EntradaSuma(t *testing.T) {
	got, err := inventory.ApplyDelta(entity.MovementKindEntrada, product(3), 7)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestApplyDelta_EntradaNoSuperaElMaximo(t *testing.T) {
	got, err := inventory.ApplyDelta(entity.MovementKindEntrada, product(entity.StockMax-5), 5)
	require.NoError(t, err)
	assert.Equal(t, entity.StockMax, got)

	_, err = inventory.ApplyDelta(entity.MovementKindEntrada, product(entity.StockMax-5), 6)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["quantity"], "000010")
}

func TestApplyDelta_SalidaResta(t *testing.T) {
	got, err := inventory.ApplyDelta(entity.MovementKindSalida, product(10), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, got, "una salida puede dejar el stock exactamente en cero")
}

func TestApplyDelta_SalidaSinStockNombraProducto(t *testing.T) {
	_, err := inventory.ApplyDelta(entity.MovementKindSalida, product(0), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 0, stockErr.Available)
	assert.Contains(t, err.Error(), "Cemento gris 50kg")
}

func TestApplyDelta_CantidadNoPositiva(t *testing.T) {
	for _, q := range []int{0, -1} {
		_, err := inventory.ApplyDelta(entity.MovementKindEntrada, product(1), q)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestApplyDelta_TipoDesconocido(t *testing.T) {
	_, err := inventory.ApplyDelta("Ajuste", product(1), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
