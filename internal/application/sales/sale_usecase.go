package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// SaleUseCase registra ventas y descuenta el inventario en una sola transacción.
type SaleUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.StockLedger
	sales    repository.SaleRepository
	now      func() time.Time
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(txRunner inventory.TxRunner, ledger *inventory.StockLedger, sales repository.SaleRepository) *SaleUseCase {
	return &SaleUseCase{txRunner: txRunner, ledger: ledger, sales: sales, now: time.Now}
}

// Create registra la venta: bloquea los productos en orden, guarda cabecera y líneas y
// genera un movimiento "out" por línea. Si alguna línea no tiene stock no se guarda nada.
func (uc *SaleUseCase) Create(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la venta debe tener al menos una línea")
	}
	switch in.PaymentMethod {
	case entity.PaymentCash, entity.PaymentCard, entity.PaymentTransfer:
	default:
		return nil, domain.NewValidationError("payment_method", "método de pago no soportado")
	}
	if in.Discount.IsNegative() {
		return nil, domain.NewValidationError("discount", "el descuento no puede ser negativo")
	}
	productIDs := make([]string, 0, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "producto requerido")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "la cantidad debe ser mayor que cero")
		}
		if item.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "el precio no puede ser negativo")
		}
		productIDs = append(productIDs, item.ProductID)
	}

	now := uc.now()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		Number:        entity.NewDocumentNumber(entity.SalePrefix, now),
		CustomerID:    in.CustomerID,
		PaymentMethod: in.PaymentMethod,
		Discount:      in.Discount,
		Status:        entity.SaleStatusCompleted,
		UserID:        userID,
		CreatedAt:     now,
	}

	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		if sale.CustomerID != "" {
			customer, err := repos.Customers.GetByID(ctx, sale.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return domain.NewValidationError("customer_id", "el cliente no existe")
			}
			sale.CustomerName = customer.Name
		}

		products := make(map[string]*entity.Product, len(productIDs))
		for _, id := range inventory.LockOrder(productIDs) {
			p, err := repos.Products.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NewValidationError("product_id", "el producto "+id+" no existe")
			}
			products[id] = p
		}

		sale.Items = make([]entity.SaleItem, 0, len(in.Items))
		subtotal := decimal.Zero
		for _, item := range in.Items {
			price := item.UnitPrice
			if price.IsZero() {
				price = products[item.ProductID].SellingPrice
			}
			lineTotal := price.Mul(decimal.NewFromInt(item.Quantity))
			subtotal = subtotal.Add(lineTotal)
			sale.Items = append(sale.Items, entity.SaleItem{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: price,
				Subtotal:  lineTotal,
			})
		}
		if in.Discount.GreaterThan(subtotal) {
			return domain.NewValidationError("discount", "el descuento supera el subtotal")
		}
		sale.Subtotal = subtotal
		sale.Total = subtotal.Sub(in.Discount)

		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		lines := make([]entity.SaleItem, len(sale.Items))
		copy(lines, sale.Items)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, line := range lines {
			if _, err := uc.ledger.RecordInTx(ctx, repos, inventory.MovementInput{
				ProductID: line.ProductID,
				Type:      entity.MovementTypeOut,
				Quantity:  line.Quantity,
				Reference: sale.Number,
				Reason:    "venta",
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
	return toSaleResponse(sale), nil
}

// GetByID obtiene una venta con sus líneas.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return toSaleResponse(sale), nil
}

// List lista ventas, más recientes primero.
func (uc *SaleUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.Normalize()
	list, total, err := uc.sales.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toSaleResponse(s))
	}
	return &dto.SaleListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:            s.ID,
		Number:        s.Number,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		PaymentMethod: s.PaymentMethod,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Total:         s.Total,
		Status:        s.Status,
		UserID:        s.UserID,
		CreatedAt:     s.CreatedAt,
		Items:         make([]dto.SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}
