package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Longitudes máximas validadas al crear un producto.
const (
	ProductCodeMaxLen = 6
	ProductNameMaxLen = 255
)

// Límites de las columnas: precios NUMERIC(14,2), stock y cantidades INTEGER.
const (
	PriceScale = 2
	StockMax   = math.MaxInt32
)

// PriceMax cota exclusiva de un precio (12 dígitos enteros).
var PriceMax = decimal.New(1, 12)

// NormalizePrice redondea a la escala almacenada.
func NormalizePrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// Product representa un material del catálogo.
// Stock se modifica solo vía movimientos (Entrada/Salida) o edición directa;
// ListPrice/PublicPrice cambian por edición y cada cambio deja rastro en PriceHistoryRecord.
type Product struct {
	ID          string
	Code        string // único, inmutable una vez creado
	Name        string
	Stock       int
	ListPrice   decimal.Decimal // precio de lista (proveedor)
	PublicPrice decimal.Decimal // precio al público
	CategoryID  string
	SupplierID  string // vacío si no está vinculado a un proveedor
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PricesDiffer indica si list/public price de other difieren de los de p.
func (p *Product) PricesDiffer(other *Product) bool {
	return !NormalizePrice(p.ListPrice).Equal(NormalizePrice(other.ListPrice)) ||
		!NormalizePrice(p.PublicPrice).Equal(NormalizePrice(other.PublicPrice))
}
