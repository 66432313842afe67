package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// ProductFilter filtros para listar productos.
type ProductFilter struct {
	Search     string // coincide con código o nombre
	CategoryID string
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos Get* devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetByCodeForUpdate / GetByIDForUpdate bloquean la fila (SELECT FOR UPDATE) hasta el fin de la tx.
	GetByCodeForUpdate(ctx context.Context, code string) (*entity.Product, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update persiste nombre, stock y precios. El código no se modifica nunca.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock persiste solo el stock; no puede alterar precios.
	UpdateStock(ctx context.Context, productID string, stock int) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// ListLowStock productos con stock <= threshold, menor stock primero.
	ListLowStock(ctx context.Context, threshold, limit int) ([]*entity.Product, error)
}
