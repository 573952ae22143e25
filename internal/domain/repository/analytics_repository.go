package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// AnalyticsRepository consultas de solo lectura para reportes de ventas.
type AnalyticsRepository interface {
	SalesMetrics(ctx context.Context, from, to time.Time) (*entity.SalesMetrics, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]entity.TopProduct, error)
}
