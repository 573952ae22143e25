package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo reportes de ventas en memoria.
type AnalyticsRepo struct {
	s *Store
}

func (r *AnalyticsRepo) SalesMetrics(_ context.Context, from, to time.Time) (*entity.SalesMetrics, error) {
	m := &entity.SalesMetrics{Revenue: decimal.Zero, Cost: decimal.Zero}
	err := r.s.read(false, func(st *state) error {
		for _, sale := range st.sales {
			if !inRange(sale.CreatedAt, from, to) || len(sale.Items) == 0 {
				continue
			}
			m.SaleCount++
			for _, it := range sale.Items {
				m.Revenue = m.Revenue.Add(it.Subtotal)
				m.Cost = m.Cost.Add(st.products[it.ProductID].PurchasePrice.Mul(decimal.NewFromInt(it.Quantity)))
			}
		}
		return nil
	})
	return m, err
}

func (r *AnalyticsRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]entity.TopProduct, error) {
	type acc struct {
		qty     int64
		revenue decimal.Decimal
		cost    decimal.Decimal
	}
	byProduct := map[string]*acc{}
	out := []entity.TopProduct{}
	err := r.s.read(false, func(st *state) error {
		for _, sale := range st.sales {
			if !inRange(sale.CreatedAt, from, to) {
				continue
			}
			for _, it := range sale.Items {
				a, ok := byProduct[it.ProductID]
				if !ok {
					a = &acc{revenue: decimal.Zero, cost: decimal.Zero}
					byProduct[it.ProductID] = a
				}
				a.qty += it.Quantity
				a.revenue = a.revenue.Add(it.Subtotal)
				a.cost = a.cost.Add(st.products[it.ProductID].PurchasePrice.Mul(decimal.NewFromInt(it.Quantity)))
			}
		}
		for id, a := range byProduct {
			p := st.products[id]
			margin := decimal.Zero
			if a.revenue.IsPositive() {
				margin = a.revenue.Sub(a.cost).Div(a.revenue).Mul(decimal.NewFromInt(100)).Round(2)
			}
			out = append(out, entity.TopProduct{
				ProductID:        id,
				SKU:              p.SKU,
				Name:             p.Name,
				QuantitySold:     a.qty,
				Revenue:          a.revenue,
				MarginPercentage: margin,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].SKU < out[j].SKU
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
