package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados en caja.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// SaleStatusCompleted es el único estado de una venta registrada.
const SaleStatusCompleted = "completed"

// Sale venta de punto de venta. Cada línea genera un movimiento "out".
type Sale struct {
	ID            string
	Number        string
	CustomerID    string // vacío en ventas de mostrador sin cliente
	CustomerName  string // copia del nombre del cliente al momento de la venta
	PaymentMethod string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        string
	UserID        string
	CreatedAt     time.Time
	Items         []SaleItem
}

// SaleItem línea de venta.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
