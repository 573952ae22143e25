package dto

import "github.com/shopspring/decimal"

// DashboardSummaryResponse respuesta de GET /api/dashboard/summary.
// KPIs del día y del mes en curso, Top-5 productos del mes y conteo de productos con stock bajo.
type DashboardSummaryResponse struct {
	// Métricas del día actual (00:00 – 23:59)
	TodaySales  decimal.Decimal `json:"today_sales"`  // ingresos brutos de hoy
	TodayMargin decimal.Decimal `json:"today_margin"` // margen bruto de hoy (revenue - costo)
	TodayCount  int64           `json:"today_count"`

	// Métricas del mes en curso (día 1 – hoy)
	MonthlySales  decimal.Decimal `json:"monthly_sales"`
	MonthlyMargin decimal.Decimal `json:"monthly_margin"`
	MonthlyCount  int64           `json:"monthly_count"`

	TopProducts   []TopProductResponse `json:"top_products"`
	LowStockCount int                  `json:"low_stock_count"`
	DateLabel     string               `json:"date_label"` // ej: "Febrero 2026"
}

// TopProductResponse resumen de un producto para el widget del dashboard.
type TopProductResponse struct {
	ProductID        string          `json:"product_id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	QuantitySold     int64           `json:"quantity_sold"`
	Revenue          decimal.Decimal `json:"revenue"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
}
