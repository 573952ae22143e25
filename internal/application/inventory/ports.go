package inventory

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción de BD.
type Repos struct {
	Products       repository.ProductRepository
	Customers      repository.CustomerRepository
	Movements      repository.StockMovementRepository
	Sales          repository.SaleRepository
	Returns        repository.ReturnRepository
	PurchaseOrders repository.PurchaseOrderRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela antes del commit) se hace Rollback completo.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
