package inventory

import (
	"fmt"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// ApplyDelta calcula el nuevo stock de product tras una línea de movimiento (servicio de dominio).
// Entrada: stock + cantidad, acotado a entity.StockMax. Salida: stock - cantidad, nunca por debajo de cero.
func ApplyDelta(kind string, product *entity.Product, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidInput
	}
	switch kind {
	case entity.MovementKindEntrada:
		if quantity > entity.StockMax-product.Stock {
			verr := domain.NewValidationError()
			verr.Add("quantity", fmt.Sprintf("el stock de %s superaría el máximo %d", product.Code, entity.StockMax))
			return 0, verr
		}
		return product.Stock + quantity, nil
	case entity.MovementKindSalida:
		if quantity > product.Stock {
			return 0, &domain.InsufficientStockError{
				ProductCode: product.Code,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.Stock,
			}
		}
		return product.Stock - quantity, nil
	}
	return 0, domain.ErrInvalidInput
}
