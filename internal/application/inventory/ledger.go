package inventory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// StockLedger es el único camino por el que cambia Product.current_stock.
// Cada movimiento bloquea la fila del producto (SELECT FOR UPDATE), calcula el nuevo saldo,
// actualiza el producto e inserta el registro del libro en la misma transacción.
type StockLedger struct {
	txRunner  TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	policy    domaininv.Policy
	now       func() time.Time
}

// NewStockLedger construye el libro de stock.
func NewStockLedger(
	txRunner TxRunner,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	policy domaininv.Policy,
) *StockLedger {
	return &StockLedger{
		txRunner:  txRunner,
		products:  products,
		movements: movements,
		policy:    policy,
		now:       time.Now,
	}
}

// Límites de cantidad aceptados desde HTTP (rango de int64).
var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// MovementInput datos de un movimiento a registrar.
type MovementInput struct {
	ProductID string
	Type      string
	Quantity  int64
	Reference string
	Reason    string
	Notes     string
	UserID    string
	SaleID    string
}

func (in MovementInput) validate() error {
	if in.ProductID == "" {
		return domain.NewValidationError("product_id", "producto requerido")
	}
	return domaininv.ValidateQuantity(in.Type, in.Quantity)
}

// RecordMovement registra un movimiento en su propia transacción y devuelve el registro creado.
// Ante cualquier error ni el saldo ni el libro cambian.
func (l *StockLedger) RecordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var mov *entity.StockMovement
	err := l.txRunner.Run(ctx, func(repos Repos) error {
		var err error
		mov, err = l.RecordInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// RecordInTx ejecuta el read-modify-write con los repositorios de una transacción del llamador
// (ventas, devoluciones, recepciones). El commit o rollback corresponde al llamador.
func (l *StockLedger) RecordInTx(ctx context.Context, repos Repos, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewValidationError("product_id", "el producto no existe")
	}
	newStock, err := domaininv.Apply(product.ID, product.CurrentStock, in.Type, in.Quantity, l.policy)
	if err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateStock(ctx, product.ID, newStock); err != nil {
		return nil, err
	}
	now := l.now()
	mov := &entity.StockMovement{
		ProductID:     product.ID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PreviousStock: product.CurrentStock,
		NewStock:      newStock,
		Reference:     in.Reference,
		Reason:        in.Reason,
		Notes:         in.Notes,
		UserID:        in.UserID,
		SaleID:        in.SaleID,
		MovementDate:  now,
		CreatedAt:     now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	product.CurrentStock = newStock
	return mov, nil
}

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement.
func (l *StockLedger) RecordMovementFromRequest(ctx context.Context, userID string, in dto.RecordMovementRequest) (*dto.StockMovementResponse, error) {
	if !in.Quantity.IsInteger() {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser un número entero")
	}
	if in.Quantity.GreaterThan(maxQuantity) || in.Quantity.LessThan(minQuantity) {
		return nil, domain.NewValidationError("quantity", "la cantidad está fuera de rango")
	}
	mov, err := l.RecordMovement(ctx, MovementInput{
		ProductID: in.ProductID,
		Type:      in.MovementType,
		Quantity:  in.Quantity.IntPart(),
		Reference: in.Reference,
		Reason:    in.Reason,
		Notes:     in.Notes,
		UserID:    userID,
	})
	if err != nil {
		return nil, err
	}
	out := ToMovementResponse(mov)
	return &out, nil
}

// LockOrder devuelve los IDs de producto sin duplicados y ordenados: los flujos multi-producto
// bloquean filas en este orden para no provocar deadlocks entre transacciones.
func LockOrder(productIDs []string) []string {
	seen := make(map[string]struct{}, len(productIDs))
	out := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		MovementType:  m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reference:     m.Reference,
		Reason:        m.Reason,
		Notes:         m.Notes,
		UserID:        m.UserID,
		SaleID:        m.SaleID,
		MovementDate:  m.MovementDate,
		CreatedAt:     m.CreatedAt,
	}
}
