package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository   = (*SaleRepo)(nil)
	_ repository.ReturnRepository = (*ReturnRepo)(nil)
)

// SaleRepo ventas en memoria.
type SaleRepo struct {
	s    *Store
	inTx bool
}

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.sales[sale.ID]; ok {
			return domain.ErrDuplicate
		}
		cp := *sale
		cp.Items = slices.Clone(sale.Items)
		st.sales[sale.ID] = cp
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.s.read(r.inTx, func(st *state) error {
		if s, ok := st.sales[id]; ok {
			s.Items = slices.Clone(s.Items)
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) List(_ context.Context, limit, offset int) ([]*entity.Sale, int, error) {
	var all []*entity.Sale
	err := r.s.read(r.inTx, func(st *state) error {
		for _, s := range st.sales {
			s := s
			s.Items = slices.Clone(s.Items)
			all = append(all, &s)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), len(all), nil
}

// ReturnRepo devoluciones en memoria.
type ReturnRepo struct {
	s    *Store
	inTx bool
}

func (r *ReturnRepo) Create(_ context.Context, ret *entity.SaleReturn) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.returns[ret.ID]; ok {
			return domain.ErrDuplicate
		}
		cp := *ret
		cp.Items = slices.Clone(ret.Items)
		st.returns[ret.ID] = cp
		return nil
	})
}

func (r *ReturnRepo) GetByID(_ context.Context, id string) (*entity.SaleReturn, error) {
	var out *entity.SaleReturn
	err := r.s.read(r.inTx, func(st *state) error {
		if s, ok := st.returns[id]; ok {
			s.Items = slices.Clone(s.Items)
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *ReturnRepo) List(_ context.Context, limit, offset int) ([]*entity.SaleReturn, int, error) {
	var all []*entity.SaleReturn
	err := r.s.read(r.inTx, func(st *state) error {
		for _, s := range st.returns {
			s := s
			s.Items = slices.Clone(s.Items)
			all = append(all, &s)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), len(all), nil
}

func (r *ReturnRepo) ReturnedQuantities(_ context.Context, saleID string) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.s.read(r.inTx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.SaleID != saleID {
				continue
			}
			for _, it := range ret.Items {
				out[it.ProductID] += it.Quantity
			}
		}
		return nil
	})
	return out, err
}
