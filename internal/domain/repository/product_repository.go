package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// ProductFilter filtros para el listado del catálogo.
type ProductFilter struct {
	Search   string // coincide con sku o nombre
	LowStock bool   // current_stock <= min_stock
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update no modifica current_stock: el saldo solo cambia vía UpdateStock desde el libro.
	Update(ctx context.Context, product *entity.Product) error
	UpdateStock(ctx context.Context, productID string, newStock int64) error
	UpdatePurchasePrice(ctx context.Context, productID string, cost decimal.Decimal) error
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int, error)
	StockValue(ctx context.Context) (*entity.StockValue, error)
}
