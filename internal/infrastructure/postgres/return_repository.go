package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = `id, number, sale_id, reason, refund_total, COALESCE(user_id::text, ''), created_at`

// ReturnRepo devoluciones sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el repositorio. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una transacción.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.SaleReturn) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_returns (id, number, sale_id, reason, refund_total, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7)`,
		ret.ID, ret.Number, ret.SaleID, ret.Reason, ret.RefundTotal, ret.UserID, ret.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.StorageErr("insert sale return", err)
	}
	for i, it := range ret.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO return_items (id, return_id, line_no, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, ret.ID, i+1, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return domain.StorageErr("insert return item", err)
		}
	}
	return nil
}

// GetByID obtiene la devolución con sus líneas.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.SaleReturn, error) {
	if !validID(id) {
		return nil, nil
	}
	var ret entity.SaleReturn
	err := r.q.QueryRow(ctx, `SELECT `+returnColumns+` FROM sale_returns WHERE id = $1`, id).Scan(
		&ret.ID, &ret.Number, &ret.SaleID, &ret.Reason, &ret.RefundTotal, &ret.UserID, &ret.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageErr("get sale return", err)
	}
	items, err := r.items(ctx, []string{ret.ID})
	if err != nil {
		return nil, err
	}
	ret.Items = items[ret.ID]
	return &ret, nil
}

// List página de devoluciones, más recientes primero.
func (r *ReturnRepo) List(ctx context.Context, limit, offset int) ([]*entity.SaleReturn, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sale_returns`).Scan(&total); err != nil {
		return nil, 0, domain.StorageErr("count sale returns", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+returnColumns+` FROM sale_returns ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, domain.StorageErr("list sale returns", err)
	}
	defer rows.Close()
	var (
		list []*entity.SaleReturn
		ids  []string
	)
	for rows.Next() {
		var ret entity.SaleReturn
		if err := rows.Scan(&ret.ID, &ret.Number, &ret.SaleID, &ret.Reason, &ret.RefundTotal, &ret.UserID, &ret.CreatedAt); err != nil {
			return nil, 0, domain.StorageErr("scan sale return", err)
		}
		list = append(list, &ret)
		ids = append(ids, ret.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageErr("list sale returns", err)
	}
	rows.Close()
	if len(ids) == 0 {
		return list, total, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, ret := range list {
		ret.Items = items[ret.ID]
	}
	return list, total, nil
}

// ReturnedQuantities suma por producto lo devuelto en todas las devoluciones de una venta.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, saleID string) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ri.product_id, SUM(ri.quantity)::bigint
		FROM return_items ri JOIN sale_returns sr ON sr.id = ri.return_id
		WHERE sr.sale_id = $1
		GROUP BY ri.product_id`, saleID)
	if err != nil {
		return nil, domain.StorageErr("returned quantities", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var (
			productID string
			qty       int64
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, domain.StorageErr("scan returned quantity", err)
		}
		out[productID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("returned quantities", err)
	}
	return out, nil
}

func (r *ReturnRepo) items(ctx context.Context, returnIDs []string) (map[string][]entity.ReturnItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, return_id, product_id, quantity, unit_price, subtotal
		FROM return_items WHERE return_id = ANY($1::uuid[]) ORDER BY return_id, line_no`, returnIDs)
	if err != nil {
		return nil, domain.StorageErr("list return items", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.ReturnItem, len(returnIDs))
	for rows.Next() {
		var it entity.ReturnItem
		if err := rows.Scan(&it.ID, &it.ReturnID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, domain.StorageErr("scan return item", err)
		}
		out[it.ReturnID] = append(out[it.ReturnID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("list return items", err)
	}
	return out, nil
}
