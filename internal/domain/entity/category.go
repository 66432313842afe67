package entity

import "time"

// Category agrupa productos del catálogo (cemento, acero, eléctricos...).
type Category struct {
	ID          string
	Name        string // único
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
