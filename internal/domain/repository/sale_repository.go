package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// SaleRepository persistencia de ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, int, error)
}

// ReturnRepository persistencia de devoluciones.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.SaleReturn) error
	GetByID(ctx context.Context, id string) (*entity.SaleReturn, error)
	List(ctx context.Context, limit, offset int) ([]*entity.SaleReturn, int, error)
	// ReturnedQuantities devuelve, por producto, lo ya devuelto de una venta.
	ReturnedQuantities(ctx context.Context, saleID string) (map[string]int64, error)
}
