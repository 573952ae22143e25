package inventory

import (
	"math"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// Policy reglas configurables del libro de stock.
type Policy struct {
	// AllowNegativeAdjustment permite que un ajuste deje el stock en negativo
	// (correcciones por conteo físico). Las salidas nunca pueden sobrevender.
	AllowNegativeAdjustment bool
}

// Delta devuelve el efecto con signo de un movimiento sobre current_stock.
//
//	in         +q
//	out        -q
//	return     +q
//	adjustment +q (q con signo)
func Delta(movementType string, quantity int64) int64 {
	if movementType == entity.MovementTypeOut {
		return -quantity
	}
	return quantity
}

// ValidateQuantity verifica la cantidad según el tipo de movimiento.
func ValidateQuantity(movementType string, quantity int64) error {
	if !entity.IsValidMovementType(movementType) {
		return domain.NewValidationError("movement_type", "tipo de movimiento no reconocido")
	}
	if quantity == 0 {
		return domain.NewValidationError("quantity", "la cantidad no puede ser cero")
	}
	if quantity == math.MinInt64 {
		return domain.NewValidationError("quantity", "la cantidad está fuera de rango")
	}
	if movementType != entity.MovementTypeAdjustment && quantity < 0 {
		return domain.NewValidationError("quantity", "la cantidad debe ser positiva")
	}
	return nil
}

// Apply calcula el nuevo saldo a partir del anterior y rechaza saldos negativos
// con InsufficientStockError, salvo ajustes cuando la política lo permite.
func Apply(productID string, previous int64, movementType string, quantity int64, policy Policy) (int64, error) {
	if err := ValidateQuantity(movementType, quantity); err != nil {
		return 0, err
	}
	delta := Delta(movementType, quantity)
	if (delta > 0 && previous > math.MaxInt64-delta) || (delta < 0 && previous < math.MinInt64-delta) {
		return 0, domain.NewValidationError("quantity", "el saldo resultante excede el rango permitido")
	}
	next := previous + delta
	if next < 0 {
		if movementType == entity.MovementTypeAdjustment && policy.AllowNegativeAdjustment {
			return next, nil
		}
		requested := quantity
		if requested < 0 {
			requested = -requested
		}
		return 0, &domain.InsufficientStockError{ProductID: productID, Available: previous, Requested: requested}
	}
	return next, nil
}
