package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción (READ COMMITTED), ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// El rollback usa un contexto sin cancelación para liberar la conexión aunque la request ya haya terminado.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return beginErr(ctx, err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return domain.StorageErr("commit transaction", err)
	}
	return nil
}

func beginErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	return fmt.Errorf("%w: begin transaction: %v", domain.ErrStorage, err)
}

func reposFor(q Querier) inventory.Repos {
	return inventory.Repos{
		Products:       NewProductRepository(q),
		Customers:      NewCustomerRepository(q),
		Movements:      NewStockMovementRepository(q),
		Sales:          NewSaleRepository(q),
		Returns:        NewReturnRepository(q),
		PurchaseOrders: NewPurchaseOrderRepository(q),
	}
}

// Store agrupa el pool, los repositorios autocommit y el TxRunner.
type Store struct {
	*TxRunner
	pool *pgxpool.Pool
}

// NewStore construye el store sobre un pool ya abierto.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{TxRunner: NewTxRunner(pool), pool: pool}
}

// Repos repositorios sobre el pool (cada sentencia en su propia transacción implícita).
func (s *Store) Repos() inventory.Repos {
	return reposFor(s.pool)
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo {
	return NewUserRepository(s.pool)
}

// Ping verifica la conexión (usado por /health).
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Analytics consultas de reportes sobre el pool.
func (s *Store) Analytics() *AnalyticsRepo {
	return NewAnalyticsRepository(s.pool)
}
