package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// DefaultHistoryLimit movimientos devueltos por defecto en el historial de un producto.
const DefaultHistoryLimit = 50

// ListMovements devuelve una página del libro, más reciente primero.
func (l *StockLedger) ListMovements(ctx context.Context, filter entity.StockMovementFilter, page dto.PageRequest) (*dto.StockMovementListResponse, error) {
	if filter.Type != "" && !entity.IsValidMovementType(filter.Type) {
		return nil, domain.NewValidationError("movement_type", "tipo de movimiento no reconocido")
	}
	if err := validateRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	page.Normalize()
	list, total, err := l.movements.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.StockMovementListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// ProductHistory movimientos recientes de un producto. ErrNotFound si el producto no existe.
func (l *StockLedger) ProductHistory(ctx context.Context, productID string, limit int) ([]dto.StockMovementResponse, error) {
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if limit <= 0 || limit > 500 {
		limit = DefaultHistoryLimit
	}
	list, err := l.movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out, nil
}

// SummarizeByType cuenta movimientos y suma cantidades por tipo en el rango. Solo lectura.
func (l *StockLedger) SummarizeByType(ctx context.Context, from, to *time.Time) (*dto.MovementSummaryResponse, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	rows, err := l.movements.SummarizeByType(ctx, from, to)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementSummaryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.MovementSummaryItem{
			MovementType:  r.Type,
			Count:         r.Count,
			TotalQuantity: r.TotalQuantity,
		})
	}
	return &dto.MovementSummaryResponse{StartDate: from, EndDate: to, Items: items}, nil
}

// CurrentStockValue valoración puntual del inventario desde el catálogo.
func (l *StockLedger) CurrentStockValue(ctx context.Context) (*dto.StockValueResponse, error) {
	v, err := l.products.StockValue(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StockValueResponse{
		PurchaseValue: v.PurchaseValue,
		SellingValue:  v.SellingValue,
		TotalItems:    v.TotalItems,
		ProductCount:  v.ProductCount,
	}, nil
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return domain.NewValidationError("start_date", "start_date posterior a end_date")
	}
	return nil
}
