package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo en memoria.
type ProductRepo struct {
	s    *Store
	inTx bool
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, p := range st.products {
			if p.SKU == product.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.read(r.inTx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.read(r.inTx, func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción ya tiene acceso exclusivo.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name = product.Name
		cur.Description = product.Description
		cur.PurchasePrice = product.PurchasePrice
		cur.SellingPrice = product.SellingPrice
		cur.MinStock = product.MinStock
		cur.UpdatedAt = product.UpdatedAt
		st.products[product.ID] = cur
		return nil
	})
}

func (r *ProductRepo) UpdateStock(_ context.Context, productID string, newStock int64) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.products[productID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.CurrentStock = newStock
		st.products[productID] = cur
		return nil
	})
}

func (r *ProductRepo) UpdatePurchasePrice(_ context.Context, productID string, cost decimal.Decimal) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.products[productID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.PurchasePrice = cost
		st.products[productID] = cur
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	var all []*entity.Product
	err := r.s.read(r.inTx, func(st *state) error {
		search := strings.ToLower(filter.Search)
		for _, p := range st.products {
			if filter.LowStock && !p.IsLowStock() {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.SKU), search) && !strings.Contains(strings.ToLower(p.Name), search) {
				continue
			}
			p := p
			all = append(all, &p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}

func (r *ProductRepo) StockValue(_ context.Context) (*entity.StockValue, error) {
	v := &entity.StockValue{}
	err := r.s.read(r.inTx, func(st *state) error {
		for _, p := range st.products {
			qty := decimal.NewFromInt(p.CurrentStock)
			v.PurchaseValue = v.PurchaseValue.Add(qty.Mul(p.PurchasePrice))
			v.SellingValue = v.SellingValue.Add(qty.Mul(p.SellingPrice))
			v.TotalItems += p.CurrentStock
			v.ProductCount++
		}
		return nil
	})
	return v, err
}
