package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. UnitPrice cero toma el precio de venta del producto.
type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CustomerID    string            `json:"customer_id" validate:"omitempty,uuid"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Discount      decimal.Decimal   `json:"discount"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	CustomerID    string             `json:"customer_id,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	Status        string             `json:"status"`
	UserID        string             `json:"user_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []SaleItemResponse `json:"items"`
}

// SaleListResponse página de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ReturnItemRequest línea a devolver.
type ReturnItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// CreateReturnRequest body para POST /api/returns.
type CreateReturnRequest struct {
	SaleID string              `json:"sale_id" validate:"required,uuid"`
	Reason string              `json:"reason" validate:"max=255"`
	Items  []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReturnItemResponse línea devuelta.
type ReturnItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ReturnResponse salida de una devolución.
type ReturnResponse struct {
	ID          string               `json:"id"`
	Number      string               `json:"number"`
	SaleID      string               `json:"sale_id"`
	Reason      string               `json:"reason,omitempty"`
	RefundTotal decimal.Decimal      `json:"refund_total"`
	UserID      string               `json:"user_id,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	Items       []ReturnItemResponse `json:"items"`
}

// ReturnListResponse página de devoluciones.
type ReturnListResponse struct {
	Items []ReturnResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
