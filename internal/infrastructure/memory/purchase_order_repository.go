package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra en memoria.
type PurchaseOrderRepo struct {
	s    *Store
	inTx bool
}

func (r *PurchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.purchaseOrders[po.ID]; ok {
			return domain.ErrDuplicate
		}
		cp := *po
		cp.Items = slices.Clone(po.Items)
		st.purchaseOrders[po.ID] = cp
		return nil
	})
}

func (r *PurchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := r.s.read(r.inTx, func(st *state) error {
		if po, ok := st.purchaseOrders[id]; ok {
			po.Items = slices.Clone(po.Items)
			out = &po
		}
		return nil
	})
	return out, err
}

func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseOrderRepo) UpdateReceipt(_ context.Context, po *entity.PurchaseOrder) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.purchaseOrders[po.ID]; !ok {
			return domain.ErrNotFound
		}
		cp := *po
		cp.Items = slices.Clone(po.Items)
		st.purchaseOrders[po.ID] = cp
		return nil
	})
}

func (r *PurchaseOrderRepo) List(_ context.Context, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	var all []*entity.PurchaseOrder
	err := r.s.read(r.inTx, func(st *state) error {
		for _, po := range st.purchaseOrders {
			if status != "" && po.Status != status {
				continue
			}
			po := po
			po.Items = slices.Clone(po.Items)
			all = append(all, &po)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), len(all), nil
}
