package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/application/sales"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
)

type fixture struct {
	store   *memory.Store
	ledger  *inventory.StockLedger
	sales   *sales.SaleUseCase
	returns *sales.ReturnUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	ledger := inventory.NewStockLedger(store, repos.Products, repos.Movements, domaininv.Policy{})
	return &fixture{
		store:   store,
		ledger:  ledger,
		sales:   sales.NewSaleUseCase(store, ledger, repos.Sales),
		returns: sales.NewReturnUseCase(store, ledger, repos.Returns),
	}
}

func (f *fixture) product(t *testing.T, id string, stock int64, price string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id,
		PurchasePrice: decimal.NewFromInt(1),
		SellingPrice:  decimal.RequireFromString(price),
		CreatedAt:     now, UpdatedAt: now,
	}))
	if stock > 0 {
		_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: stock})
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.CurrentStock
}

func TestSale_DescuentaStockYCalculaTotales(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "2.50")
	f.product(t, "B", 5, "4")
	ctx := context.Background()

	sale, err := f.sales.Create(ctx, "u1", dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Discount:      decimal.NewFromInt(1),
		Items: []dto.SaleItemRequest{
			{ProductID: "B", Quantity: 2},
			{ProductID: "A", Quantity: 4, UnitPrice: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^V-\d{8}-[0-9A-F]{8}$`, sale.Number)
	assert.True(t, sale.Subtotal.Equal(decimal.NewFromInt(20)), "subtotal %s", sale.Subtotal)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(19)), "total %s", sale.Total)
	assert.Equal(t, int64(6), f.stock(t, "A"))
	assert.Equal(t, int64(3), f.stock(t, "B"))

	movs, _, err := f.store.Repos().Movements.List(ctx, entity.StockMovementFilter{Type: entity.MovementTypeOut}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, sale.ID, m.SaleID)
		assert.Equal(t, sale.Number, m.Reference)
		assert.Equal(t, "u1", m.UserID)
	}

	got, err := f.sales.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestSale_ConClienteGuardaNombre(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 5, "2")
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, f.store.Repos().Customers.Create(ctx, &entity.Customer{
		ID: "C1", Name: "Ana Pérez", TaxID: "100", CreatedAt: now, UpdatedAt: now,
	}))

	sale, err := f.sales.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID:    "C1",
		PaymentMethod: entity.PaymentTransfer,
		Items:         []dto.SaleItemRequest{{ProductID: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "C1", sale.CustomerID)
	assert.Equal(t, "Ana Pérez", sale.CustomerName)

	// renombrar al cliente no altera la venta ya registrada
	c, err := f.store.Repos().Customers.GetByID(ctx, "C1")
	require.NoError(t, err)
	c.Name = "Ana P. Gómez"
	require.NoError(t, f.store.Repos().Customers.Update(ctx, c))

	got, err := f.sales.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", got.CustomerName)
}

func TestSale_LineaSinStockRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "1")
	f.product(t, "B", 1, "1")

	_, err := f.sales.Create(context.Background(), "u1", dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCard,
		Items: []dto.SaleItemRequest{
			{ProductID: "A", Quantity: 3},
			{ProductID: "B", Quantity: 2},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), f.stock(t, "A"))
	assert.Equal(t, int64(1), f.stock(t, "B"))

	list, err := f.sales.List(context.Background(), dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Page.Total)
}

func TestSale_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "1")
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.CreateSaleRequest
	}{
		{"sin líneas", dto.CreateSaleRequest{PaymentMethod: entity.PaymentCash}},
		{"método de pago", dto.CreateSaleRequest{PaymentMethod: "crypto", Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: 1}}}},
		{"producto inexistente", dto.CreateSaleRequest{PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{{ProductID: "X", Quantity: 1}}}},
		{"cantidad cero", dto.CreateSaleRequest{PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{{ProductID: "A"}}}},
		{"descuento mayor al subtotal", dto.CreateSaleRequest{PaymentMethod: entity.PaymentCash, Discount: decimal.NewFromInt(5), Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: 1}}}},
		{"cliente inexistente", dto.CreateSaleRequest{PaymentMethod: entity.PaymentCash, CustomerID: "C-X", Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sales.Create(ctx, "u1", tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(10), f.stock(t, "A"))
}

func TestReturn_ReingresaStockHastaLoVendido(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "5")
	ctx := context.Background()

	sale, err := f.sales.Create(ctx, "u1", dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{{ProductID: "A", Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), f.stock(t, "A"))

	ret, err := f.returns.Create(ctx, "u2", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Reason: "defectuoso",
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^D-\d{8}-[0-9A-F]{8}$`, ret.Number)
	assert.True(t, ret.RefundTotal.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, int64(9), f.stock(t, "A"))

	// Quedan 1 por devolver: pedir 2 debe fallar sin tocar el stock.
	_, err = f.returns.Create(ctx, "u2", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(9), f.stock(t, "A"))

	_, err = f.returns.Create(ctx, "u2", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.stock(t, "A"))

	movs, _, err := f.store.Repos().Movements.List(ctx, entity.StockMovementFilter{Type: entity.MovementTypeReturn}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, sale.ID, movs[0].SaleID)
}

func TestReturn_VentaOProductoAjeno(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "5")
	f.product(t, "B", 10, "5")
	ctx := context.Background()

	_, err := f.returns.Create(ctx, "u1", dto.CreateReturnRequest{
		SaleID: "no-existe",
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sale, err := f.sales.Create(ctx, "u1", dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentTransfer,
		Items:         []dto.SaleItemRequest{{ProductID: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.returns.Create(ctx, "u1", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Items:  []dto.ReturnItemRequest{{ProductID: "B", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stock(t, "B"))
}

func TestReturn_ReembolsoPromedioNetoDeDescuento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "A", 10, "3")
	f.product(t, "B", 10, "4")
	ctx := context.Background()

	// A: 2 x 3 + 2 x 5 = 16; B: 4. Subtotal 20, descuento 2 (10%).
	sale, err := f.sales.Create(ctx, "u1", dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Discount:      decimal.NewFromInt(2),
		Items: []dto.SaleItemRequest{
			{ProductID: "A", Quantity: 2},
			{ProductID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
			{ProductID: "B", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.True(t, sale.Total.Equal(decimal.NewFromInt(18)))

	ret, err := f.returns.Create(ctx, "u1", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, ret.Items, 1)
	assert.True(t, ret.Items[0].UnitPrice.Equal(decimal.RequireFromString("3.6")), "unit %s", ret.Items[0].UnitPrice)
	assert.True(t, ret.RefundTotal.Equal(decimal.RequireFromString("7.2")), "refund %s", ret.RefundTotal)

	ret, err = f.returns.Create(ctx, "u1", dto.CreateReturnRequest{
		SaleID: sale.ID,
		Items:  []dto.ReturnItemRequest{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, ret.RefundTotal.Equal(decimal.RequireFromString("10.8")), "refund %s", ret.RefundTotal)
}
