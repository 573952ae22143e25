package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, movement_type, quantity, previous_stock, new_stock, reference, reason, notes,
	COALESCE(user_id::text, ''), COALESCE(sale_id::text, ''), movement_date, created_at`

// StockMovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el repositorio. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento y completa ID y CreatedAt desde la base.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, movement_type, quantity, previous_stock, new_stock,
			reference, reason, notes, user_id, sale_id, movement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, NULLIF($10, '')::uuid, COALESCE($11, now()))
		RETURNING id, movement_date, created_at`
	var movementDate *time.Time
	if !m.MovementDate.IsZero() {
		movementDate = &m.MovementDate
	}
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.Type, m.Quantity, m.PreviousStock, m.NewStock,
		m.Reference, m.Reason, m.Notes, m.UserID, m.SaleID, movementDate,
	).Scan(&m.ID, &m.MovementDate, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("product_id", "referencia inexistente en el movimiento")
		}
		return domain.StorageErr("insert stock movement", err)
	}
	return nil
}

func applyMovementFilter(w *where, f entity.StockMovementFilter) {
	if f.ProductID != "" {
		w.add("product_id = ?", f.ProductID)
	}
	if f.Type != "" {
		w.add("movement_type = ?", f.Type)
	}
	if f.From != nil {
		w.add("movement_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("movement_date <= ?", *f.To)
	}
}

func scanMovements(rows pgx.Rows, withTotal bool) ([]*entity.StockMovement, int, error) {
	defer rows.Close()
	var (
		list  []*entity.StockMovement
		total int
	)
	for rows.Next() {
		var m entity.StockMovement
		dest := []any{&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.Reference, &m.Reason, &m.Notes, &m.UserID, &m.SaleID, &m.MovementDate, &m.CreatedAt}
		if withTotal {
			dest = append(dest, &total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, domain.StorageErr("scan stock movement", err)
		}
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageErr("list stock movements", err)
	}
	return list, total, nil
}

// List página del libro ordenada por movement_date DESC, id DESC.
func (r *StockMovementRepo) List(ctx context.Context, filter entity.StockMovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	if filter.ProductID != "" && !validID(filter.ProductID) {
		return []*entity.StockMovement{}, 0, nil
	}
	var w where
	applyMovementFilter(&w, filter)
	cond := w.sql()
	countArgs := append([]any(nil), w.args...)

	query := `SELECT ` + movementColumns + `, COUNT(*) OVER() FROM stock_movements` + cond +
		` ORDER BY movement_date DESC, id DESC LIMIT ` + w.next()
	w.args = append(w.args, limit)
	query += ` OFFSET ` + w.next()
	w.args = append(w.args, offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, domain.StorageErr("list stock movements", err)
	}
	list, total, err := scanMovements(rows, true)
	if err != nil {
		return nil, 0, err
	}
	if len(list) == 0 && offset > 0 {
		if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+cond, countArgs...).Scan(&total); err != nil {
			return nil, 0, domain.StorageErr("count stock movements", err)
		}
	}
	return list, total, nil
}

// ListByProduct movimientos más recientes de un producto.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	if !validID(productID) {
		return []*entity.StockMovement{}, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1
		 ORDER BY movement_date DESC, id DESC LIMIT $2`,
		productID, limit,
	)
	if err != nil {
		return nil, domain.StorageErr("list product movements", err)
	}
	list, _, err := scanMovements(rows, false)
	return list, err
}

// SummarizeByType agrega conteo y suma de cantidades por tipo dentro del rango.
func (r *StockMovementRepo) SummarizeByType(ctx context.Context, from, to *time.Time) ([]entity.MovementTypeSummary, error) {
	var w where
	applyMovementFilter(&w, entity.StockMovementFilter{From: from, To: to})
	rows, err := r.q.Query(ctx,
		`SELECT movement_type, COUNT(*), COALESCE(SUM(quantity), 0)::bigint FROM stock_movements`+w.sql()+
			` GROUP BY movement_type ORDER BY movement_type`,
		w.args...,
	)
	if err != nil {
		return nil, domain.StorageErr("summarize stock movements", err)
	}
	defer rows.Close()
	var out []entity.MovementTypeSummary
	for rows.Next() {
		var s entity.MovementTypeSummary
		if err := rows.Scan(&s.Type, &s.Count, &s.TotalQuantity); err != nil {
			return nil, domain.StorageErr("scan movement summary", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("summarize stock movements", err)
	}
	return out, nil
}
