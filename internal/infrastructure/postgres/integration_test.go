//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/application/sales"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/infrastructure/postgres"
)

// newTestStore levanta PostgreSQL en un contenedor, aplica migraciones y devuelve el store.
func newTestStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retail_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := postgres.NewPoolFromDSN(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.NewStore(pool), pool
}

func createProduct(t *testing.T, store *postgres.Store, sku string) string {
	t.Helper()
	now := time.Now()
	id := uuid.NewString()
	require.NoError(t, store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: sku, Name: sku,
		PurchasePrice: decimal.RequireFromString("2.5"),
		SellingPrice:  decimal.NewFromInt(4),
		CreatedAt:     now, UpdatedAt: now,
	}))
	return id
}

func TestLedger_Postgres(t *testing.T) {
	store, pool := newTestStore(t)
	repos := store.Repos()
	ledger := inventory.NewStockLedger(store, repos.Products, repos.Movements, domaininv.Policy{})
	ctx := context.Background()

	t.Run("escenario P1", func(t *testing.T) {
		id := createProduct(t, store, "P1")
		for _, in := range []inventory.MovementInput{
			{ProductID: id, Type: entity.MovementTypeIn, Quantity: 10},
			{ProductID: id, Type: entity.MovementTypeIn, Quantity: 20},
			{ProductID: id, Type: entity.MovementTypeOut, Quantity: 5},
			{ProductID: id, Type: entity.MovementTypeAdjustment, Quantity: -3},
		} {
			_, err := ledger.RecordMovement(ctx, in)
			require.NoError(t, err)
		}
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: id, Type: entity.MovementTypeOut, Quantity: 100})
		var insufficient *domain.InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, int64(22), insufficient.Available)

		p, err := repos.Products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(22), p.CurrentStock)

		hist, err := ledger.ProductHistory(ctx, id, 10)
		require.NoError(t, err)
		require.Len(t, hist, 4)
		assert.Equal(t, int64(22), hist[0].NewStock)
		assert.Equal(t, entity.MovementTypeAdjustment, hist[0].MovementType)

		page, err := ledger.ListMovements(ctx, entity.StockMovementFilter{ProductID: id}, dto.PageRequest{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Page.Total)
		assert.Len(t, page.Items, 1)
	})

	t.Run("salidas concurrentes", func(t *testing.T) {
		id := createProduct(t, store, "P-CONC")
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: 5})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: id, Type: entity.MovementTypeOut, Quantity: 4})
			}(i)
		}
		wg.Wait()

		var ok, insufficient int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		p, err := repos.Products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.CurrentStock)
	})

	t.Run("libro solo inserción", func(t *testing.T) {
		id := createProduct(t, store, "P-RO")
		mov, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: 1})
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `UPDATE stock_movements SET quantity = 2 WHERE id = $1`, mov.ID)
		assert.Error(t, err)
		_, err = pool.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, mov.ID)
		assert.Error(t, err)

		hist, err := ledger.ProductHistory(ctx, id, 10)
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, int64(1), hist[0].Quantity)
	})

	t.Run("venta multi-línea revierte completa", func(t *testing.T) {
		a := createProduct(t, store, "S-A")
		b := createProduct(t, store, "S-B")
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: a, Type: entity.MovementTypeIn, Quantity: 10})
		require.NoError(t, err)
		_, err = ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: b, Type: entity.MovementTypeIn, Quantity: 1})
		require.NoError(t, err)

		uc := sales.NewSaleUseCase(store, ledger, repos.Sales)
		_, err = uc.Create(ctx, "", dto.CreateSaleRequest{
			PaymentMethod: entity.PaymentCash,
			Items:         []dto.SaleItemRequest{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 2}},
		})
		require.ErrorIs(t, err, domain.ErrInsufficientStock)

		pa, err := repos.Products.GetByID(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, int64(10), pa.CurrentStock)

		sale, err := uc.Create(ctx, "", dto.CreateSaleRequest{
			PaymentMethod: entity.PaymentCash,
			Items:         []dto.SaleItemRequest{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 1}},
		})
		require.NoError(t, err)
		got, err := uc.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, a, got.Items[0].ProductID)
	})

	t.Run("cliente con ventas no se elimina", func(t *testing.T) {
		now := time.Now()
		customer := &entity.Customer{ID: uuid.NewString(), Name: "Ana Pérez", TaxID: "1020", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repos.Customers.Create(ctx, customer))
		dup := *customer
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, repos.Customers.Create(ctx, &dup), domain.ErrDuplicate)

		p := createProduct(t, store, "C-A")
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: p, Type: entity.MovementTypeIn, Quantity: 3})
		require.NoError(t, err)

		uc := sales.NewSaleUseCase(store, ledger, repos.Sales)
		sale, err := uc.Create(ctx, "", dto.CreateSaleRequest{
			CustomerID:    customer.ID,
			PaymentMethod: entity.PaymentCard,
			Items:         []dto.SaleItemRequest{{ProductID: p, Quantity: 1}},
		})
		require.NoError(t, err)
		got, err := uc.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, got.CustomerID)
		assert.Equal(t, "Ana Pérez", got.CustomerName)

		assert.ErrorIs(t, repos.Customers.Delete(ctx, customer.ID), domain.ErrConflict)

		found, total, err := repos.Customers.List(ctx, "ana", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, found, 1)

		_, err = uc.GetByID(ctx, "abc")
		assert.ErrorIs(t, err, domain.ErrNotFound, "un id mal formado no es error de almacenamiento")
	})

	t.Run("valor del inventario", func(t *testing.T) {
		v, err := ledger.CurrentStockValue(ctx)
		require.NoError(t, err)
		assert.Greater(t, v.ProductCount, int64(0))
		assert.True(t, v.SellingValue.GreaterThan(v.PurchaseValue))
	})
}
