package entity

import "github.com/shopspring/decimal"

// SalesMetrics totales de ventas de un período.
type SalesMetrics struct {
	SaleCount int64
	Revenue   decimal.Decimal // Σ subtotal de las líneas vendidas
	Cost      decimal.Decimal // Σ cantidad * costo unitario actual del producto
}

// TopProduct producto ordenado por ingreso en un período.
type TopProduct struct {
	ProductID        string
	SKU              string
	Name             string
	QuantitySold     int64
	Revenue          decimal.Decimal
	MarginPercentage decimal.Decimal // (revenue - cost) / revenue * 100
}
