package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func newLedger(t *testing.T, policy domaininv.Policy) (*inventory.StockLedger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	return inventory.NewStockLedger(store, repos.Products, repos.Movements, policy), store
}

// seedProduct crea un producto con stock inicial cargado vía el libro (movimiento "in").
func seedProduct(t *testing.T, ledger *inventory.StockLedger, store *memory.Store, id string, initial int64) {
	t.Helper()
	now := time.Now()
	err := store.Repos().Products.Create(context.Background(), &entity.Product{
		ID:            id,
		SKU:           "SKU-" + id,
		Name:          "Producto " + id,
		PurchasePrice: decimal.NewFromInt(10),
		SellingPrice:  decimal.NewFromInt(15),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	if initial > 0 {
		_, err = ledger.RecordMovement(context.Background(), inventory.MovementInput{
			ProductID: id, Type: entity.MovementTypeIn, Quantity: initial, Reason: "stock inicial",
		})
		require.NoError(t, err)
	}
}

func stockOf(t *testing.T, store *memory.Store, id string) int64 {
	t.Helper()
	p, err := store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.CurrentStock
}

func movementCount(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	_, total, err := store.Repos().Movements.List(context.Background(), entity.StockMovementFilter{ProductID: id}, 1000, 0)
	require.NoError(t, err)
	return total
}

// failingMovements simula una falla de almacenamiento al insertar el movimiento,
// después de que el saldo ya fue actualizado dentro de la transacción.
type failingMovements struct {
	repository.StockMovementRepository
}

func (failingMovements) Create(context.Context, *entity.StockMovement) error {
	return domain.StorageErr("insert stock movement", errors.New("conexión perdida"))
}

type failingRunner struct {
	inner inventory.TxRunner
}

func (f failingRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	return f.inner.Run(ctx, func(repos inventory.Repos) error {
		repos.Movements = failingMovements{repos.Movements}
		return fn(repos)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordMovement
// ──────────────────────────────────────────────────────────────────────────────

// Escenario P1: 10 → in 20 → out 5 → ajuste -3 → out 100 rechazado.
func TestRecordMovement_EscenarioP1(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P1", 10)
	ctx := context.Background()

	steps := []struct {
		typ      string
		qty      int64
		prev     int64
		newStock int64
	}{
		{entity.MovementTypeIn, 20, 10, 30},
		{entity.MovementTypeOut, 5, 30, 25},
		{entity.MovementTypeAdjustment, -3, 25, 22},
	}
	for _, s := range steps {
		mov, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: "P1", Type: s.typ, Quantity: s.qty})
		require.NoError(t, err)
		assert.Equal(t, s.prev, mov.PreviousStock, "previous_stock de %s", s.typ)
		assert.Equal(t, s.newStock, mov.NewStock, "new_stock de %s", s.typ)
		assert.NotZero(t, mov.ID)
		assert.False(t, mov.CreatedAt.IsZero())
	}

	_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: "P1", Type: entity.MovementTypeOut, Quantity: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(22), stockOf(t, store, "P1"))
	assert.Equal(t, 4, movementCount(t, store, "P1"), "stock inicial + 3 movimientos; el rechazado no se registra")
}

func TestRecordMovement_SaldoCorridoIgualSumaDeDeltas(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P2", 0)
	ctx := context.Background()

	script := []inventory.MovementInput{
		{Type: entity.MovementTypeIn, Quantity: 50},
		{Type: entity.MovementTypeOut, Quantity: 7},
		{Type: entity.MovementTypeReturn, Quantity: 2},
		{Type: entity.MovementTypeAdjustment, Quantity: -10},
		{Type: entity.MovementTypeOut, Quantity: 35},
		{Type: entity.MovementTypeAdjustment, Quantity: 4},
	}
	var expected int64
	for _, in := range script {
		in.ProductID = "P2"
		_, err := ledger.RecordMovement(ctx, in)
		require.NoError(t, err)
		expected += domaininv.Delta(in.Type, in.Quantity)
	}
	assert.Equal(t, expected, stockOf(t, store, "P2"))
	assert.Equal(t, int64(4), expected)

	// cada movimiento encadena con el anterior: new_stock(i) == previous_stock(i+1)
	list, _, err := store.Repos().Movements.List(ctx, entity.StockMovementFilter{ProductID: "P2"}, 100, 0)
	require.NoError(t, err)
	for i := 0; i < len(list)-1; i++ {
		assert.Equal(t, list[i+1].NewStock, list[i].PreviousStock)
	}
}

func TestRecordMovement_Validaciones(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P3", 5)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.MovementInput
	}{
		{"producto inexistente", inventory.MovementInput{ProductID: "nope", Type: entity.MovementTypeIn, Quantity: 1}},
		{"producto vacío", inventory.MovementInput{Type: entity.MovementTypeIn, Quantity: 1}},
		{"tipo desconocido", inventory.MovementInput{ProductID: "P3", Type: "transfer", Quantity: 1}},
		{"cantidad cero", inventory.MovementInput{ProductID: "P3", Type: entity.MovementTypeIn, Quantity: 0}},
		{"salida negativa", inventory.MovementInput{ProductID: "P3", Type: entity.MovementTypeOut, Quantity: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.RecordMovement(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(5), stockOf(t, store, "P3"))
	assert.Equal(t, 1, movementCount(t, store, "P3"))
}

func TestRecordMovementFromRequest_CantidadNoEntera(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P4", 5)

	_, err := ledger.RecordMovementFromRequest(context.Background(), "u1", dto.RecordMovementRequest{
		ProductID:    "P4",
		MovementType: entity.MovementTypeIn,
		Quantity:     decimal.RequireFromString("2.5"),
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)

	out, err := ledger.RecordMovementFromRequest(context.Background(), "u1", dto.RecordMovementRequest{
		ProductID:    "P4",
		MovementType: entity.MovementTypeIn,
		Quantity:     decimal.NewFromInt(3),
		Reference:    "OC-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), out.NewStock)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, "OC-1", out.Reference)
}

func TestRecordMovementFromRequest_CantidadFueraDeRango(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P5", 0)

	for _, raw := range []string{"18446744073709551621", "9223372036854775808", "-9223372036854775809"} {
		_, err := ledger.RecordMovementFromRequest(context.Background(), "u1", dto.RecordMovementRequest{
			ProductID:    "P5",
			MovementType: entity.MovementTypeAdjustment,
			Quantity:     decimal.RequireFromString(raw),
		})
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve), raw)
		assert.Equal(t, "quantity", ve.Field)
	}
	assert.Equal(t, int64(0), stockOf(t, store, "P5"))
	assert.Equal(t, 0, movementCount(t, store, "P5"))
}

func TestRecordMovement_SaldoNoDesborda(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P6", math.MaxInt64-1)

	_, err := ledger.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: "P6", Type: entity.MovementTypeIn, Quantity: 2,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(math.MaxInt64-1), stockOf(t, store, "P6"))
	assert.Equal(t, 1, movementCount(t, store, "P6"))
}

func TestRecordMovement_AjusteNegativoBajoPolitica(t *testing.T) {
	strict, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, strict, store, "P5", 2)
	_, err := strict.RecordMovement(context.Background(), inventory.MovementInput{ProductID: "P5", Type: entity.MovementTypeAdjustment, Quantity: -3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	repos := store.Repos()
	lenient := inventory.NewStockLedger(store, repos.Products, repos.Movements, domaininv.Policy{AllowNegativeAdjustment: true})
	mov, err := lenient.RecordMovement(context.Background(), inventory.MovementInput{ProductID: "P5", Type: entity.MovementTypeAdjustment, Quantity: -3})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), mov.NewStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_FallaAlInsertarNoAlteraSaldo(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P6", 10)

	repos := store.Repos()
	broken := inventory.NewStockLedger(failingRunner{inner: store}, repos.Products, repos.Movements, domaininv.Policy{})
	_, err := broken.RecordMovement(context.Background(), inventory.MovementInput{ProductID: "P6", Type: entity.MovementTypeOut, Quantity: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)

	assert.Equal(t, int64(10), stockOf(t, store, "P6"), "el saldo debe quedar como antes de la llamada")
	assert.Equal(t, 1, movementCount(t, store, "P6"))
}

func TestRecordMovement_ContextoCanceladoHaceRollback(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P7", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: "P7", Type: entity.MovementTypeOut, Quantity: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), stockOf(t, store, "P7"))
}

func TestRecordMovement_SalidasConcurrentesNoSobrevenden(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "P8", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = ledger.RecordMovement(context.Background(), inventory.MovementInput{
				ProductID: "P8", Type: entity.MovementTypeOut, Quantity: 4,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(1), stockOf(t, store, "P8"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_PaginadoYOrdenado(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "A", 0)
	seedProduct(t, ledger, store, "B", 0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: "A", Type: entity.MovementTypeIn, Quantity: 1})
		require.NoError(t, err)
	}
	_, err := ledger.RecordMovement(ctx, inventory.MovementInput{ProductID: "B", Type: entity.MovementTypeIn, Quantity: 3})
	require.NoError(t, err)

	out, err := ledger.ListMovements(ctx, entity.StockMovementFilter{ProductID: "A"}, dto.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Page.Total)
	assert.Equal(t, 3, out.Page.Pages)
	require.Len(t, out.Items, 2)
	assert.Greater(t, out.Items[0].ID, out.Items[1].ID, "más reciente primero")
	assert.Equal(t, int64(5), out.Items[0].NewStock)

	beyond, err := ledger.ListMovements(ctx, entity.StockMovementFilter{ProductID: "A"}, dto.PageRequest{Page: 92233720368547760, Limit: 100})
	require.NoError(t, err, "una página enorme no es un error")
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 5, beyond.Page.Total)

	_, err = ledger.ListMovements(ctx, entity.StockMovementFilter{Type: "bogus"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, err = ledger.ListMovements(ctx, entity.StockMovementFilter{From: &from, To: &to}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductHistory(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "H", 3)

	hist, err := ledger.ProductHistory(context.Background(), "H", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "stock inicial", hist[0].Reason)

	_, err = ledger.ProductHistory(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSummarizeByType_Idempotente(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "S", 10)
	ctx := context.Background()
	for _, in := range []inventory.MovementInput{
		{ProductID: "S", Type: entity.MovementTypeOut, Quantity: 2},
		{ProductID: "S", Type: entity.MovementTypeOut, Quantity: 3},
		{ProductID: "S", Type: entity.MovementTypeReturn, Quantity: 1},
	} {
		_, err := ledger.RecordMovement(ctx, in)
		require.NoError(t, err)
	}

	first, err := ledger.SummarizeByType(ctx, nil, nil)
	require.NoError(t, err)
	second, err := ledger.SummarizeByType(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	byType := map[string]dto.MovementSummaryItem{}
	for _, it := range first.Items {
		byType[it.MovementType] = it
	}
	assert.Equal(t, int64(2), byType[entity.MovementTypeOut].Count)
	assert.Equal(t, int64(5), byType[entity.MovementTypeOut].TotalQuantity)
	assert.Equal(t, int64(1), byType[entity.MovementTypeReturn].Count)
	assert.Equal(t, int64(10), byType[entity.MovementTypeIn].TotalQuantity)
	_, hasAdjustment := byType[entity.MovementTypeAdjustment]
	assert.False(t, hasAdjustment, "solo tipos presentes en el rango")
}

func TestCurrentStockValue(t *testing.T) {
	ledger, store := newLedger(t, domaininv.Policy{})
	seedProduct(t, ledger, store, "V1", 4) // compra 10, venta 15
	seedProduct(t, ledger, store, "V2", 6)

	v, err := ledger.CurrentStockValue(context.Background())
	require.NoError(t, err)
	assert.True(t, v.PurchaseValue.Equal(decimal.NewFromInt(100)), "got %s", v.PurchaseValue)
	assert.True(t, v.SellingValue.Equal(decimal.NewFromInt(150)), "got %s", v.SellingValue)
	assert.Equal(t, int64(10), v.TotalItems)
	assert.Equal(t, int64(2), v.ProductCount)
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, inventory.LockOrder([]string{"c", "a", "b", "a"}))
}
