package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// PurchaseOrderRepository persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la cabecera para serializar recepciones concurrentes.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// UpdateReceipt persiste estado y cantidades recibidas de cabecera y líneas.
	UpdateReceipt(ctx context.Context, po *entity.PurchaseOrder) error
	List(ctx context.Context, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error)
}
