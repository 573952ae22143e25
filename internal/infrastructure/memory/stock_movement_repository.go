package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos en memoria (solo inserción).
type StockMovementRepo struct {
	s    *Store
	inTx bool
}

func (r *StockMovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	return r.s.write(r.inTx, func(st *state) error {
		st.nextMovementID++
		movement.ID = st.nextMovementID
		if movement.CreatedAt.IsZero() {
			movement.CreatedAt = time.Now()
		}
		if movement.MovementDate.IsZero() {
			movement.MovementDate = movement.CreatedAt
		}
		st.movements = append(st.movements, *movement)
		return nil
	})
}

func (r *StockMovementRepo) List(_ context.Context, filter entity.StockMovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	var all []*entity.StockMovement
	err := r.s.read(r.inTx, func(st *state) error {
		for i := range st.movements {
			m := st.movements[i]
			if !matches(&m, filter) {
				continue
			}
			all = append(all, &m)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortRecentFirst(all)
	return page(all, limit, offset), len(all), nil
}

func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	list, _, err := r.List(ctx, entity.StockMovementFilter{ProductID: productID}, limit, 0)
	return list, err
}

func (r *StockMovementRepo) SummarizeByType(_ context.Context, from, to *time.Time) ([]entity.MovementTypeSummary, error) {
	agg := map[string]*entity.MovementTypeSummary{}
	err := r.s.read(r.inTx, func(st *state) error {
		for i := range st.movements {
			m := &st.movements[i]
			if !matches(m, entity.StockMovementFilter{From: from, To: to}) {
				continue
			}
			s, ok := agg[m.Type]
			if !ok {
				s = &entity.MovementTypeSummary{Type: m.Type}
				agg[m.Type] = s
			}
			s.Count++
			s.TotalQuantity += m.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]entity.MovementTypeSummary, 0, len(agg))
	for _, s := range agg {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func matches(m *entity.StockMovement, f entity.StockMovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.From != nil && m.MovementDate.Before(*f.From) {
		return false
	}
	if f.To != nil && m.MovementDate.After(*f.To) {
		return false
	}
	return true
}

func sortRecentFirst(list []*entity.StockMovement) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].MovementDate.Equal(list[j].MovementDate) {
			return list[i].MovementDate.After(list[j].MovementDate)
		}
		return list[i].ID > list[j].ID
	})
}
