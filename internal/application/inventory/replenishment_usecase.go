package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

const replenishmentWindow = 30 * 24 * time.Hour

// ReplenishmentUseCase genera la lista de reposición: productos con stock bajo
// priorizados por el volumen de salidas de los últimos 30 días.
type ReplenishmentUseCase struct {
	products  repository.ProductRepository
	movements repository.InventoryMovementRepository
	now       func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(products repository.ProductRepository, movements repository.InventoryMovementRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{products: products, movements: movements, now: time.Now}
}

// GenerateReplenishmentList devuelve los productos con stock <= threshold con la cantidad sugerida
// de pedido: las salidas de los últimos 30 días menos el stock actual (mínimo threshold+1-stock).
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, threshold, limit int) ([]dto.ReplenishmentSuggestionDTO, error) {
	if threshold < 0 {
		threshold = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	// 1. Productos bajo el umbral
	low, err := uc.products.ListLowStock(ctx, threshold, limit)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Salidas por producto en la ventana
	end := uc.now()
	out, err := uc.movements.UnitsByProduct(ctx, entity.MovementKindSalida, end.Add(-replenishmentWindow), end)
	if err != nil {
		return nil, err
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, p := range low {
		sold := out[p.ID]
		qty := sold - p.Stock
		if minQty := threshold + 1 - p.Stock; qty < minQty {
			qty = minQty
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          p.ID,
			ProductCode:        p.Code,
			ProductName:        p.Name,
			CurrentStock:       p.Stock,
			UnitsOutLast30Days: sold,
			SuggestedOrderQty:  qty,
		})
	}

	// 3. Mayor rotación primero; a igualdad, menor stock
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.UnitsOutLast30Days != b.UnitsOutLast30Days {
			return a.UnitsOutLast30Days > b.UnitsOutLast30Days
		}
		return a.CurrentStock < b.CurrentStock
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
