// Package memory implementa los puertos de persistencia en memoria.
// Se usa con DB_DRIVER=memory (desarrollo local, demos) y como doble de prueba de los casos de uso.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	products       map[string]entity.Product
	customers      map[string]entity.Customer
	movements      []entity.StockMovement
	nextMovementID int64
	sales          map[string]entity.Sale
	returns        map[string]entity.SaleReturn
	purchaseOrders map[string]entity.PurchaseOrder
	users          map[string]entity.User
}

func (st *state) clone() state {
	return state{
		products:       maps.Clone(st.products),
		customers:      maps.Clone(st.customers),
		movements:      st.movements[:len(st.movements):len(st.movements)],
		nextMovementID: st.nextMovementID,
		sales:          maps.Clone(st.sales),
		returns:        maps.Clone(st.returns),
		purchaseOrders: maps.Clone(st.purchaseOrders),
		users:          maps.Clone(st.users),
	}
}

// Store base de datos en memoria con transacciones serializadas.
// txMu serializa transacciones y escrituras autocommit (equivale a bloquear todas las filas);
// mu protege el estado para lecturas concurrentes. Mientras Run está en curso, committed
// apunta a la instantánea previa: las lecturas fuera de la transacción solo ven datos confirmados.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	st        state
	committed *state
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{st: state{
		products:       map[string]entity.Product{},
		customers:      map[string]entity.Customer{},
		sales:          map[string]entity.Sale{},
		returns:        map[string]entity.SaleReturn{},
		purchaseOrders: map[string]entity.PurchaseOrder{},
		users:          map[string]entity.User{},
	}}
}

// Ping siempre disponible.
func (s *Store) Ping(context.Context) error { return nil }

// Run ejecuta fn en una transacción: ante error, pánico o contexto cancelado restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.committed = &snapshot
	s.mu.Unlock()

	committed := false
	defer func() {
		s.mu.Lock()
		if !committed {
			s.st = snapshot
		}
		s.committed = nil
		s.mu.Unlock()
	}()

	if err := fn(s.repos(true)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Repos repositorios autocommit (fuera de transacción).
func (s *Store) Repos() inventory.Repos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) inventory.Repos {
	return inventory.Repos{
		Products:       &ProductRepo{s: s, inTx: inTx},
		Customers:      &CustomerRepo{s: s, inTx: inTx},
		Movements:      &StockMovementRepo{s: s, inTx: inTx},
		Sales:          &SaleRepo{s: s, inTx: inTx},
		Returns:        &ReturnRepo{s: s, inTx: inTx},
		PurchaseOrders: &PurchaseOrderRepo{s: s, inTx: inTx},
	}
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo {
	return &UserRepo{s: s}
}

func (s *Store) write(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}

func (s *Store) read(inTx bool, fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !inTx && s.committed != nil {
		return fn(s.committed)
	}
	return fn(&s.st)
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}

// Analytics consultas de reportes.
func (s *Store) Analytics() *AnalyticsRepo {
	return &AnalyticsRepo{s: s}
}
