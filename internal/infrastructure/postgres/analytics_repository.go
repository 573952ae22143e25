package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura sobre ventas para el dashboard.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// SalesMetrics devuelve número de ventas, ingreso bruto y costo del período.
// El costo usa el purchase_price actual del producto (promedio ponderado).
// COALESCE devuelve cero si el período no tiene ventas.
func (r *AnalyticsRepo) SalesMetrics(ctx context.Context, from, to time.Time) (*entity.SalesMetrics, error) {
	const query = `
	SELECT
	    COUNT(DISTINCT s.id)                          AS sale_count,
	    COALESCE(SUM(i.subtotal), 0)                  AS revenue,
	    COALESCE(SUM(i.quantity * p.purchase_price), 0) AS cost
	FROM sales s
	JOIN sale_items i ON i.sale_id = s.id
	JOIN products   p ON p.id      = i.product_id
	WHERE s.created_at BETWEEN $1 AND $2`

	var m entity.SalesMetrics
	if err := r.q.QueryRow(ctx, query, from, to).Scan(&m.SaleCount, &m.Revenue, &m.Cost); err != nil {
		return nil, domain.StorageErr("analytics sales metrics", err)
	}
	return &m, nil
}

// TopProducts devuelve los `limit` productos con mayor ingreso en el período.
// El margen se calcula como (revenue - cost) / revenue * 100, protegido contra división por cero.
func (r *AnalyticsRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]entity.TopProduct, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    SUM(i.quantity)::bigint                        AS quantity_sold,
	    SUM(i.subtotal)                                AS revenue,
	    CASE
	        WHEN SUM(i.subtotal) > 0
	        THEN ROUND(
	            (SUM(i.subtotal) - SUM(i.quantity * p.purchase_price))
	            / SUM(i.subtotal) * 100, 2)
	        ELSE 0
	    END                                            AS margin_percentage
	FROM sale_items i
	JOIN sales    s ON s.id = i.sale_id
	JOIN products p ON p.id = i.product_id
	WHERE s.created_at BETWEEN $1 AND $2
	GROUP BY p.id, p.sku, p.name
	ORDER BY revenue DESC, p.sku
	LIMIT $3`

	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, domain.StorageErr("analytics top products", err)
	}
	defer rows.Close()

	results := []entity.TopProduct{}
	for rows.Next() {
		var item entity.TopProduct
		if err := rows.Scan(
			&item.ProductID,
			&item.SKU,
			&item.Name,
			&item.QuantitySold,
			&item.Revenue,
			&item.MarginPercentage,
		); err != nil {
			return nil, domain.StorageErr("analytics top products scan", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("analytics top products rows", err)
	}
	return results, nil
}
