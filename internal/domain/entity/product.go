package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// CurrentStock es el saldo corrido cacheado: solo lo modifica el libro de stock (StockLedger),
// nunca las actualizaciones de catálogo.
type Product struct {
	ID            string
	SKU           string // código único, normalizado a mayúsculas
	Name          string
	Description   string
	PurchasePrice decimal.Decimal // costo unitario (promedio ponderado tras recepciones)
	SellingPrice  decimal.Decimal // precio de venta
	CurrentStock  int64
	MinStock      int64 // umbral de alerta; el stock puede quedar por debajo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLowStock indica si el producto está en o por debajo de su umbral de alerta.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinStock
}
