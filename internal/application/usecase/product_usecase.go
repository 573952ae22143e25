package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// InitialStockReason motivo del movimiento "in" que carga el stock inicial de un producto.
const InitialStockReason = "stock inicial"

// ProductUseCase casos de uso del catálogo. El stock se maneja solo vía movimientos del libro.
type ProductUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.StockLedger
	repo     repository.ProductRepository
	upper    cases.Caser
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner inventory.TxRunner, ledger *inventory.StockLedger, repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, ledger: ledger, repo: repo, upper: cases.Upper(language.Und)}
}

// NormalizeSKU recorta espacios y pasa el SKU a mayúsculas.
func (uc *ProductUseCase) NormalizeSKU(sku string) string {
	return uc.upper.String(strings.TrimSpace(sku))
}

// Create crea un producto con stock cero y, si InitialStock > 0, registra el movimiento "in"
// en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := uc.NormalizeSKU(in.SKU)
	if sku == "" {
		return nil, domain.NewValidationError("sku", "sku requerido")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "nombre requerido")
	}
	if err := validatePrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}
	if in.MinStock < 0 {
		return nil, domain.NewValidationError("min_stock", "el stock mínimo no puede ser negativo")
	}
	if in.InitialStock < 0 {
		return nil, domain.NewValidationError("initial_stock", "el stock inicial no puede ser negativo")
	}
	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           sku,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		MinStock:      in.MinStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := uc.txRunner.Run(ctx, func(repos inventory.Repos) error {
		existing, err := repos.Products.GetBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		mov, err := uc.ledger.RecordInTx(ctx, repos, inventory.MovementInput{
			ProductID: product.ID,
			Type:      entity.MovementTypeIn,
			Quantity:  in.InitialStock,
			Reason:    InitialStockReason,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		product.CurrentStock = mov.NewStock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza datos descriptivos y precios. No permite modificar el stock (se maneja vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidationError("name", "nombre requerido")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SellingPrice != nil {
		product.SellingPrice = *in.SellingPrice
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, domain.NewValidationError("min_stock", "el stock mínimo no puede ser negativo")
		}
		product.MinStock = *in.MinStock
	}
	if err := validatePrices(product.PurchasePrice, product.SellingPrice); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con búsqueda opcional por SKU o nombre.
func (uc *ProductUseCase) List(ctx context.Context, search string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	return uc.list(ctx, repository.ProductFilter{Search: strings.TrimSpace(search)}, page)
}

// LowStock productos con current_stock <= min_stock.
func (uc *ProductUseCase) LowStock(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	return uc.list(ctx, repository.ProductFilter{LowStock: true}, page)
}

func (uc *ProductUseCase) list(ctx context.Context, filter repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.Normalize()
	list, total, err := uc.repo.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

func validatePrices(purchase, selling decimal.Decimal) error {
	if purchase.IsNegative() {
		return domain.NewValidationError("purchase_price", "el precio de compra no puede ser negativo")
	}
	if selling.IsNegative() {
		return domain.NewValidationError("selling_price", "el precio de venta no puede ser negativo")
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		CurrentStock:  p.CurrentStock,
		MinStock:      p.MinStock,
		LowStock:      p.IsLowStock(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
