package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/stock-movements.
// Quantity se recibe como decimal para poder rechazar valores no enteros con un error de validación.
type RecordMovementRequest struct {
	ProductID    string          `json:"product_id" validate:"required,uuid"`
	MovementType string          `json:"movement_type" validate:"required,oneof=in out adjustment return"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference,omitempty" validate:"max=120"`
	Reason       string          `json:"reason,omitempty" validate:"max=255"`
	Notes        string          `json:"notes,omitempty"`
}

// StockMovementResponse salida de un movimiento.
type StockMovementResponse struct {
	ID            int64     `json:"id"`
	ProductID     string    `json:"product_id"`
	MovementType  string    `json:"movement_type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Reference     string    `json:"reference,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	SaleID        string    `json:"sale_id,omitempty"`
	MovementDate  time.Time `json:"movement_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockMovementListResponse página de movimientos.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// MovementSummaryItem agregado por tipo.
type MovementSummaryItem struct {
	MovementType  string `json:"movement_type"`
	Count         int64  `json:"count"`
	TotalQuantity int64  `json:"total_quantity"`
}

// MovementSummaryResponse resumen por tipo en un rango de fechas.
type MovementSummaryResponse struct {
	StartDate *time.Time            `json:"start_date,omitempty"`
	EndDate   *time.Time            `json:"end_date,omitempty"`
	Items     []MovementSummaryItem `json:"items"`
}

// StockValueResponse valoración actual del inventario.
type StockValueResponse struct {
	PurchaseValue decimal.Decimal `json:"purchase_value"`
	SellingValue  decimal.Decimal `json:"selling_value"`
	TotalItems    int64           `json:"total_items"`
	ProductCount  int64           `json:"product_count"`
}
