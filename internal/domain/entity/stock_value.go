package entity

import "github.com/shopspring/decimal"

// StockValue valoración puntual del inventario (derivada del catálogo, no del libro).
type StockValue struct {
	PurchaseValue decimal.Decimal // Σ current_stock * purchase_price
	SellingValue  decimal.Decimal // Σ current_stock * selling_price
	TotalItems    int64           // Σ current_stock
	ProductCount  int64
}
