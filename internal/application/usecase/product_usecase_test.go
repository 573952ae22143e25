package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/application/usecase"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
)

func newProductUseCase(t *testing.T) (*usecase.ProductUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	ledger := inventory.NewStockLedger(store, repos.Products, repos.Movements, domaininv.Policy{})
	return usecase.NewProductUseCase(store, ledger, repos.Products), store
}

func TestProductCreate_StockInicialPasaPorElLibro(t *testing.T) {
	uc, store := newProductUseCase(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, "u1", dto.CreateProductRequest{
		SKU:           "  cafe-250 ",
		Name:          "Café 250g",
		PurchasePrice: decimal.NewFromInt(8),
		SellingPrice:  decimal.NewFromInt(12),
		MinStock:      3,
		InitialStock:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, "CAFE-250", p.SKU)
	assert.Equal(t, int64(10), p.CurrentStock)
	assert.False(t, p.LowStock)

	movs, err := store.Repos().Movements.ListByProduct(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIn, movs[0].Type)
	assert.Equal(t, usecase.InitialStockReason, movs[0].Reason)
	assert.Equal(t, int64(0), movs[0].PreviousStock)
	assert.Equal(t, int64(10), movs[0].NewStock)

	_, err = uc.Create(ctx, "u1", dto.CreateProductRequest{SKU: "Cafe-250", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUpdate_NoTocaStock(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, "u1", dto.CreateProductRequest{SKU: "A1", Name: "Arroz", MinStock: 5, InitialStock: 4})
	require.NoError(t, err)
	assert.True(t, p.LowStock)

	name := "Arroz 1kg"
	minStock := int64(2)
	price := decimal.NewFromInt(3)
	updated, err := uc.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name, MinStock: &minStock, SellingPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Arroz 1kg", updated.Name)
	assert.Equal(t, int64(4), updated.CurrentStock)
	assert.False(t, updated.LowStock)

	negative := decimal.NewFromInt(-1)
	_, err = uc.Update(ctx, p.ID, dto.UpdateProductRequest{PurchasePrice: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, "missing", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductList_BusquedaYBajoStock(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()
	for _, in := range []dto.CreateProductRequest{
		{SKU: "LEC-1", Name: "Leche", MinStock: 10, InitialStock: 2},
		{SKU: "PAN-1", Name: "Pan", MinStock: 1, InitialStock: 20},
		{SKU: "LEN-1", Name: "Lentejas", MinStock: 0},
	} {
		_, err := uc.Create(ctx, "u1", in)
		require.NoError(t, err)
	}

	all, err := uc.List(ctx, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Page.Total)
	assert.Equal(t, 20, all.Page.Limit)

	found, err := uc.List(ctx, "le", dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, found.Page.Total)

	low, err := uc.LowStock(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, low.Page.Total)
	for _, p := range low.Items {
		assert.True(t, p.LowStock)
	}
}
