package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIn         = "in"         // entrada (recepción de compra, stock inicial)
	MovementTypeOut        = "out"        // salida (venta, retiro)
	MovementTypeAdjustment = "adjustment" // ajuste (cantidad con signo)
	MovementTypeReturn     = "return"     // devolución de cliente
)

// MovementTypes enumera los tipos válidos en orden estable.
var MovementTypes = []string{MovementTypeIn, MovementTypeOut, MovementTypeAdjustment, MovementTypeReturn}

// IsValidMovementType indica si t es uno de los tipos reconocidos.
func IsValidMovementType(t string) bool {
	for _, v := range MovementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// StockMovement es un registro inmutable del libro de stock.
// NewStock = PreviousStock + delta(Type, Quantity).
type StockMovement struct {
	ID            int64
	ProductID     string
	Type          string
	Quantity      int64 // positivo para in/out/return; con signo para adjustment
	PreviousStock int64
	NewStock      int64
	Reference     string
	Reason        string
	Notes         string
	UserID        string
	SaleID        string
	MovementDate  time.Time
	CreatedAt     time.Time
}

// StockMovementFilter filtros de listado del libro.
type StockMovementFilter struct {
	ProductID string
	Type      string
	From      *time.Time
	To        *time.Time
}

// MovementTypeSummary agregado por tipo de movimiento en un rango.
type MovementTypeSummary struct {
	Type          string
	Count         int64
	TotalQuantity int64
}
