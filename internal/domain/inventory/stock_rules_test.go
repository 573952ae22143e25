package inventory_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/inventory"
)

func TestDelta_ConvencionDeSigno(t *testing.T) {
	assert.Equal(t, int64(5), inventory.Delta(entity.MovementTypeIn, 5))
	assert.Equal(t, int64(-5), inventory.Delta(entity.MovementTypeOut, 5))
	assert.Equal(t, int64(5), inventory.Delta(entity.MovementTypeReturn, 5))
	assert.Equal(t, int64(-3), inventory.Delta(entity.MovementTypeAdjustment, -3))
}

func TestValidateQuantity(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		qty  int64
		ok   bool
	}{
		{"in positivo", entity.MovementTypeIn, 1, true},
		{"out negativo", entity.MovementTypeOut, -1, false},
		{"return cero", entity.MovementTypeReturn, 0, false},
		{"ajuste negativo", entity.MovementTypeAdjustment, -4, true},
		{"ajuste cero", entity.MovementTypeAdjustment, 0, false},
		{"tipo desconocido", "transfer", 3, false},
		{"ajuste mínimo int64", entity.MovementTypeAdjustment, math.MinInt64, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := inventory.ValidateQuantity(tc.typ, tc.qty)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestApply_SalidaNoSobrevende(t *testing.T) {
	_, err := inventory.Apply("p1", 3, entity.MovementTypeOut, 4, inventory.Policy{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, int64(3), ise.Available)
	assert.Equal(t, int64(4), ise.Requested)

	// la política de ajustes no afecta a las salidas
	_, err = inventory.Apply("p1", 3, entity.MovementTypeOut, 4, inventory.Policy{AllowNegativeAdjustment: true})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_AjusteNegativoSegunPolitica(t *testing.T) {
	_, err := inventory.Apply("p1", 2, entity.MovementTypeAdjustment, -5, inventory.Policy{})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	next, err := inventory.Apply("p1", 2, entity.MovementTypeAdjustment, -5, inventory.Policy{AllowNegativeAdjustment: true})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), next)
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// 10 u a 100 + 30 u a 200 = 7000 / 40 = 175
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 30, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(175)), "got %s", got)

	// sin stock previo el costo de entrada reemplaza al actual
	got = inventory.CostCalculator(0, decimal.NewFromInt(100), 5, decimal.NewFromInt(80))
	assert.True(t, got.Equal(decimal.NewFromInt(80)))
}

func TestApply_SaldoFueraDeRango(t *testing.T) {
	_, err := inventory.Apply("p1", math.MaxInt64-2, entity.MovementTypeIn, 5, inventory.Policy{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = inventory.Apply("p1", math.MinInt64+2, entity.MovementTypeAdjustment, -5, inventory.Policy{AllowNegativeAdjustment: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	next, err := inventory.Apply("p1", math.MaxInt64-5, entity.MovementTypeIn, 5, inventory.Policy{})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next)
}
