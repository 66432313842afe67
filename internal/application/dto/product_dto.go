package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Stock       int             `json:"stock"`
	ListPrice   decimal.Decimal `json:"list_price"`
	PublicPrice decimal.Decimal `json:"public_price"`
	CategoryID  string          `json:"category_id"`
	SupplierID  string          `json:"supplier_id,omitempty"`
}

// BulkCreateProductsRequest alta masiva (importación/seed). Todo o nada.
type BulkCreateProductsRequest struct {
	Products []CreateProductRequest `json:"products"`
}

// UpdateProductRequest edición parcial. Solo name, stock y precios son mutables;
// Code existe únicamente para rechazar intentos de cambiarlo.
type UpdateProductRequest struct {
	Code        *string          `json:"code,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	ListPrice   *decimal.Decimal `json:"list_price,omitempty"`
	PublicPrice *decimal.Decimal `json:"public_price,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string                 `json:"id"`
	Code         string                 `json:"code"`
	Name         string                 `json:"name"`
	Stock        int                    `json:"stock"`
	ListPrice    decimal.Decimal        `json:"list_price"`
	PublicPrice  decimal.Decimal        `json:"public_price"`
	CategoryID   string                 `json:"category_id"`
	SupplierID   string                 `json:"supplier_id,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	PriceHistory []PriceHistoryResponse `json:"price_history,omitempty"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// PriceHistoryResponse foto de precios de un producto.
type PriceHistoryResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	ListPrice   decimal.Decimal `json:"list_price"`
	PublicPrice decimal.Decimal `json:"public_price"`
	ChangeDate  string          `json:"change_date"` // YYYY-MM-DD
	ChangeKind  string          `json:"change_kind"`
	CreatedAt   time.Time       `json:"created_at"`
}
