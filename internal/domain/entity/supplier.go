package entity

import "time"

// Supplier proveedor de materiales. Los precios de lista de sus productos
// quedan vinculados a él en el historial de precios.
type Supplier struct {
	ID        string
	Name      string
	Contact   string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
