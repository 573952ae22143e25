package sales

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
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// ReturnUseCase registra devoluciones de ventas y reingresa el stock.
type ReturnUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.StockLedger
	returns  repository.ReturnRepository
	now      func() time.Time
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(txRunner inventory.TxRunner, ledger *inventory.StockLedger, returns repository.ReturnRepository) *ReturnUseCase {
	return &ReturnUseCase{txRunner: txRunner, ledger: ledger, returns: returns, now: time.Now}
}

// soldLine lo vendido de un producto dentro de una venta: unidades e importe neto
// (suma de sus líneas menos la parte proporcional del descuento de la venta).
type soldLine struct {
	quantity int64
	net      decimal.Decimal
}

// refund precio unitario promedio y reembolso de qty unidades, redondeados a centavos.
func (l soldLine) refund(qty int64) (unitPrice, subtotal decimal.Decimal) {
	sold := decimal.NewFromInt(l.quantity)
	unitPrice = l.net.Div(sold).Round(2)
	subtotal = l.net.Mul(decimal.NewFromInt(qty)).Div(sold).Round(2)
	return unitPrice, subtotal
}

// soldLines agrupa las líneas de la venta por producto y reparte el descuento
// en proporción al importe de cada producto.
func soldLines(sale *entity.Sale) map[string]soldLine {
	sold := make(map[string]soldLine, len(sale.Items))
	for _, it := range sale.Items {
		line := sold[it.ProductID]
		line.quantity += it.Quantity
		line.net = line.net.Add(it.Subtotal)
		sold[it.ProductID] = line
	}
	if sale.Discount.IsPositive() && sale.Subtotal.IsPositive() {
		for id, line := range sold {
			line.net = line.net.Mul(sale.Total).Div(sale.Subtotal)
			sold[id] = line
		}
	}
	return sold
}

// Create registra la devolución. Por producto, lo devuelto (incluyendo devoluciones previas)
// no puede superar lo vendido. Cada línea genera un movimiento "return" ligado a la venta.
func (uc *ReturnUseCase) Create(ctx context.Context, userID string, in dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	if in.SaleID == "" {
		return nil, domain.NewValidationError("sale_id", "venta requerida")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la devolución debe tener al menos una línea")
	}
	requested := make(map[string]int64, len(in.Items))
	order := make([]string, 0, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "producto requerido")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "la cantidad debe ser mayor que cero")
		}
		if _, ok := requested[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	now := uc.now()
	ret := &entity.SaleReturn{
		ID:        uuid.New().String(),
		Number:    entity.NewDocumentNumber(entity.ReturnPrefix, now),
		SaleID:    in.SaleID,
		Reason:    in.Reason,
		UserID:    userID,
		CreatedAt: now,
	}

	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		sale, err := repos.Sales.GetByID(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		sold := soldLines(sale)
		// Bloquea los productos antes de leer lo ya devuelto: serializa devoluciones concurrentes de la misma venta.
		for _, id := range inventory.LockOrder(order) {
			if _, err := repos.Products.GetForUpdate(ctx, id); err != nil {
				return err
			}
		}
		returned, err := repos.Returns.ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return err
		}

		refund := decimal.Zero
		ret.Items = make([]entity.ReturnItem, 0, len(order))
		for _, productID := range order {
			line, ok := sold[productID]
			if !ok {
				return domain.NewValidationError("product_id", "el producto "+productID+" no pertenece a la venta")
			}
			qty := requested[productID]
			if available := line.quantity - returned[productID]; qty > available {
				return domain.NewValidationError("quantity",
					fmt.Sprintf("se intentan devolver %d unidades de %s y solo quedan %d por devolver", qty, productID, available))
			}
			unitPrice, subtotal := line.refund(qty)
			refund = refund.Add(subtotal)
			ret.Items = append(ret.Items, entity.ReturnItem{
				ID:        uuid.New().String(),
				ReturnID:  ret.ID,
				ProductID: productID,
				Quantity:  qty,
				UnitPrice: unitPrice,
				Subtotal:  subtotal,
			})
		}
		ret.RefundTotal = refund

		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}
		reason := in.Reason
		if reason == "" {
			reason = "devolución"
		}
		for _, productID := range inventory.LockOrder(order) {
			if _, err := uc.ledger.RecordInTx(ctx, repos, inventory.MovementInput{
				ProductID: productID,
				Type:      entity.MovementTypeReturn,
				Quantity:  requested[productID],
				Reference: ret.Number,
				Reason:    reason,
				UserID:    userID,
				SaleID:    sale.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toReturnResponse(ret), nil
}

// GetByID obtiene una devolución.
func (uc *ReturnUseCase) GetByID(ctx context.Context, id string) (*dto.ReturnResponse, error) {
	ret, err := uc.returns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	return toReturnResponse(ret), nil
}

// List lista devoluciones, más recientes primero.
func (uc *ReturnUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ReturnListResponse, error) {
	page.Normalize()
	list, total, err := uc.returns.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.ReturnResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *toReturnResponse(r))
	}
	return &dto.ReturnListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

func toReturnResponse(r *entity.SaleReturn) *dto.ReturnResponse {
	resp := &dto.ReturnResponse{
		ID:          r.ID,
		Number:      r.Number,
		SaleID:      r.SaleID,
		Reason:      r.Reason,
		RefundTotal: r.RefundTotal,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		Items:       make([]dto.ReturnItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, dto.ReturnItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}
