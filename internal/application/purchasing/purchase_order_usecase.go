package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// PurchaseOrderUseCase órdenes de compra: creación, recepción (total o parcial) y cancelación.
type PurchaseOrderUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.StockLedger
	orders   repository.PurchaseOrderRepository
	now      func() time.Time
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(txRunner inventory.TxRunner, ledger *inventory.StockLedger, orders repository.PurchaseOrderRepository) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{txRunner: txRunner, ledger: ledger, orders: orders, now: time.Now}
}

// Create registra la orden en estado pending. Un costo unitario cero toma el costo actual del producto.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, userID string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if in.SupplierName == "" {
		return nil, domain.NewValidationError("supplier_name", "proveedor requerido")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la orden debe tener al menos una línea")
	}
	seen := make(map[string]struct{}, len(in.Items))
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID == "" {
			return nil, domain.NewValidationError(field+".product_id", "producto requerido")
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, domain.NewValidationError(field+".product_id", "producto repetido en la orden")
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError(field+".quantity", "la cantidad debe ser mayor que cero")
		}
		if item.UnitCost.IsNegative() {
			return nil, domain.NewValidationError(field+".unit_cost", "el costo no puede ser negativo")
		}
	}

	now := uc.now()
	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		Number:       entity.NewDocumentNumber(entity.PurchaseOrderPrefix, now),
		SupplierName: in.SupplierName,
		Status:       entity.POStatusPending,
		ExpectedDate: in.ExpectedDate,
		Notes:        in.Notes,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		total := decimal.Zero
		po.Items = make([]entity.PurchaseOrderItem, 0, len(in.Items))
		for _, item := range in.Items {
			product, err := repos.Products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.NewValidationError("product_id", "el producto "+item.ProductID+" no existe")
			}
			cost := item.UnitCost
			if cost.IsZero() {
				cost = product.PurchasePrice
			}
			total = total.Add(cost.Mul(decimal.NewFromInt(item.Quantity)))
			po.Items = append(po.Items, entity.PurchaseOrderItem{
				ID:              uuid.New().String(),
				PurchaseOrderID: po.ID,
				ProductID:       item.ProductID,
				QuantityOrdered: item.Quantity,
				UnitCost:        cost,
			})
		}
		po.Total = total
		return repos.PurchaseOrders.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// Receive registra una recepción. Cada cantidad recibida genera un movimiento "in" y recalcula
// el costo promedio ponderado del producto. La orden pasa a partial o received según lo pendiente.
func (uc *PurchaseOrderUseCase) Receive(ctx context.Context, userID, id string, in dto.ReceivePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la recepción debe tener al menos una línea")
	}
	received := make(map[string]int64, len(in.Items))
	productIDs := make([]string, 0, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "producto requerido")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "la cantidad debe ser mayor que cero")
		}
		received[item.ProductID] += item.Quantity
		productIDs = append(productIDs, item.ProductID)
	}

	var po *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		var err error
		po, err = repos.PurchaseOrders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if po.IsTerminal() {
			return fmt.Errorf("%w: la orden está %s", domain.ErrInvalidTransition, po.Status)
		}
		lines := make(map[string]*entity.PurchaseOrderItem, len(po.Items))
		for i := range po.Items {
			lines[po.Items[i].ProductID] = &po.Items[i]
		}
		for productID, qty := range received {
			line, ok := lines[productID]
			if !ok {
				return domain.NewValidationError("product_id", "el producto "+productID+" no pertenece a la orden")
			}
			if qty > line.Pending() {
				return domain.NewValidationError("quantity",
					fmt.Sprintf("se reciben %d unidades de %s y solo quedan %d pendientes", qty, productID, line.Pending()))
			}
		}

		reason := "recepción orden de compra"
		for _, productID := range inventory.LockOrder(productIDs) {
			line := lines[productID]
			qty := received[productID]
			product, err := repos.Products.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.NewValidationError("product_id", "el producto "+productID+" no existe")
			}
			cost := domaininv.CostCalculator(product.CurrentStock, product.PurchasePrice, qty, line.UnitCost)
			if _, err := uc.ledger.RecordInTx(ctx, repos, inventory.MovementInput{
				ProductID: productID,
				Type:      entity.MovementTypeIn,
				Quantity:  qty,
				Reference: po.Number,
				Reason:    reason,
				Notes:     in.Notes,
				UserID:    userID,
			}); err != nil {
				return err
			}
			if err := repos.Products.UpdatePurchasePrice(ctx, productID, cost); err != nil {
				return err
			}
			line.QuantityReceived += qty
		}
		po.RefreshStatus()
		po.UpdatedAt = uc.now()
		return repos.PurchaseOrders.UpdateReceipt(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// Cancel cancela una orden pending o partial. Lo ya recibido permanece en inventario.
func (uc *PurchaseOrderUseCase) Cancel(ctx context.Context, id string) (*dto.PurchaseOrderResponse, error) {
	var po *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		var err error
		po, err = repos.PurchaseOrders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if po.IsTerminal() {
			return fmt.Errorf("%w: la orden está %s", domain.ErrInvalidTransition, po.Status)
		}
		po.Status = entity.POStatusCancelled
		po.UpdatedAt = uc.now()
		return repos.PurchaseOrders.UpdateReceipt(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// GetByID obtiene una orden con sus líneas.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, id string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseOrderResponse(po), nil
}

// List lista órdenes, opcionalmente filtradas por estado.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, status string, page dto.PageRequest) (*dto.PurchaseOrderListResponse, error) {
	switch status {
	case "", entity.POStatusPending, entity.POStatusPartial, entity.POStatusReceived, entity.POStatusCancelled:
	default:
		return nil, domain.NewValidationError("status", "estado no reconocido")
	}
	page.Normalize()
	list, total, err := uc.orders.List(ctx, status, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, *toPurchaseOrderResponse(po))
	}
	return &dto.PurchaseOrderListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

func toPurchaseOrderResponse(po *entity.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:           po.ID,
		Number:       po.Number,
		SupplierName: po.SupplierName,
		Status:       po.Status,
		ExpectedDate: po.ExpectedDate,
		Notes:        po.Notes,
		Total:        po.Total,
		UserID:       po.UserID,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		Items:        make([]dto.PurchaseOrderItemResponse, 0, len(po.Items)),
	}
	for _, it := range po.Items {
		resp.Items = append(resp.Items, dto.PurchaseOrderItemResponse{
			ProductID:        it.ProductID,
			QuantityOrdered:  it.QuantityOrdered,
			QuantityReceived: it.QuantityReceived,
			UnitCost:         it.UnitCost,
		})
	}
	return resp
}
