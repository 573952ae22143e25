package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleReturn devolución de mercancía vendida. Cada línea genera un movimiento "return".
type SaleReturn struct {
	ID          string
	Number      string
	SaleID      string
	Reason      string
	RefundTotal decimal.Decimal
	UserID      string
	CreatedAt   time.Time
	Items       []ReturnItem
}

// ReturnItem línea devuelta, valorizada al precio de la venta original.
type ReturnItem struct {
	ID        string
	ReturnID  string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
