package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// StockMovementRepository puerto del libro de movimientos (solo inserción y lectura).
type StockMovementRepository interface {
	// Create inserta el movimiento y completa ID y CreatedAt.
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter entity.StockMovementFilter, limit, offset int) ([]*entity.StockMovement, int, error)
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error)
	SummarizeByType(ctx context.Context, from, to *time.Time) ([]entity.MovementTypeSummary, error)
}
