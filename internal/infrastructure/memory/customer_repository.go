package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo directorio de clientes en memoria.
type CustomerRepo struct {
	s    *Store
	inTx bool
}

func (r *CustomerRepo) Create(_ context.Context, customer *entity.Customer) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.customers[customer.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, c := range st.customers {
			if c.TaxID == customer.TaxID {
				return domain.ErrDuplicate
			}
		}
		st.customers[customer.ID] = *customer
		return nil
	})
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.s.read(r.inTx, func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.s.read(r.inTx, func(st *state) error {
		for _, c := range st.customers {
			if c.TaxID == taxID {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) List(_ context.Context, search string, limit, offset int) ([]*entity.Customer, int, error) {
	var all []*entity.Customer
	search = strings.ToLower(search)
	err := r.s.read(r.inTx, func(st *state) error {
		for _, c := range st.customers {
			if search != "" &&
				!strings.Contains(strings.ToLower(c.Name), search) &&
				!strings.Contains(strings.ToLower(c.TaxID), search) &&
				!strings.Contains(strings.ToLower(c.Email), search) {
				continue
			}
			c := c
			all = append(all, &c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

func (r *CustomerRepo) Update(_ context.Context, customer *entity.Customer) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.customers[customer.ID]; !ok {
			return domain.ErrNotFound
		}
		for id, c := range st.customers {
			if id != customer.ID && c.TaxID == customer.TaxID {
				return domain.ErrDuplicate
			}
		}
		st.customers[customer.ID] = *customer
		return nil
	})
}

func (r *CustomerRepo) Delete(_ context.Context, id string) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.customers[id]; !ok {
			return domain.ErrNotFound
		}
		for _, s := range st.sales {
			if s.CustomerID == id {
				return domain.ErrConflict
			}
		}
		delete(st.customers, id)
		return nil
	})
}
