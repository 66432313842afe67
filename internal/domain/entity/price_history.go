package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de cambio de precio.
const (
	PriceChangeCreation = "creation"
	PriceChangeUpdate   = "update"
)

// PriceHistoryRecord es una foto inmutable de los dos precios de un producto.
// Nunca se actualiza ni se elimina.
type PriceHistoryRecord struct {
	ID          string
	ProductID   string
	SupplierID  string
	ListPrice   decimal.Decimal
	PublicPrice decimal.Decimal
	ChangeDate  time.Time // granularidad de día (00:00 local)
	ChangeKind  string    // creation | update
	CreatedAt   time.Time
}

// DateOnly trunca t al inicio de su día en la misma zona horaria.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
