package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementKindEntrada = "Entrada" // suma stock
	MovementKindSalida  = "Salida"  // resta stock
)

// ValidMovementKind informa si kind es un tipo de movimiento soportado.
func ValidMovementKind(kind string) bool {
	return kind == MovementKindEntrada || kind == MovementKindSalida
}

// InventoryMovement es la cabecera de un movimiento: quién, cuándo y de qué tipo.
// Solo se modifica para adjuntar ReceiptURL después de subir el comprobante.
type InventoryMovement struct {
	ID                string
	UserID            string
	Date              time.Time
	Kind              string // Entrada | Salida
	ReceiptURL        string // vacío si no hay comprobante (o falló la subida)
	Notes             string
	MaterialRequestID string // vacío salvo salidas que despachan una solicitud
	CreatedAt         time.Time
	Items             []MovementLineItem
}

// MovementLineItem es una línea producto+cantidad de un movimiento. Inmutable.
type MovementLineItem struct {
	ID          string
	MovementID  string
	ProductID   string
	ProductCode string // desnormalizado para lectura
	ProductName string // desnormalizado para lectura
	Quantity    int
}
