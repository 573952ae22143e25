package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, number, COALESCE(customer_id::text, ''), customer_name, payment_method, subtotal, discount, total, status,
	COALESCE(user_id::text, ''), created_at`

// SaleRepo ventas y líneas sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el repositorio. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una transacción.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, number, customer_id, customer_name, payment_method, subtotal, discount, total, status, user_id, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, NULLIF($10, '')::uuid, $11)`,
		sale.ID, sale.Number, sale.CustomerID, sale.CustomerName, sale.PaymentMethod, sale.Subtotal,
		sale.Discount, sale.Total, sale.Status, sale.UserID, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.StorageErr("insert sale", err)
	}
	for i, it := range sale.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, line_no, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, sale.ID, i+1, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return domain.StorageErr("insert sale item", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	if !validID(id) {
		return nil, nil
	}
	var s entity.Sale
	err := r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id).Scan(
		&s.ID, &s.Number, &s.CustomerID, &s.CustomerName, &s.PaymentMethod, &s.Subtotal, &s.Discount, &s.Total,
		&s.Status, &s.UserID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageErr("get sale", err)
	}
	items, err := r.items(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Items = items[s.ID]
	return &s, nil
}

// List página de ventas, más recientes primero, con sus líneas.
func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, domain.StorageErr("count sales", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, domain.StorageErr("list sales", err)
	}
	defer rows.Close()
	var (
		list []*entity.Sale
		ids  []string
	)
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.Number, &s.CustomerID, &s.CustomerName, &s.PaymentMethod, &s.Subtotal,
			&s.Discount, &s.Total, &s.Status, &s.UserID, &s.CreatedAt); err != nil {
			return nil, 0, domain.StorageErr("scan sale", err)
		}
		list = append(list, &s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageErr("list sales", err)
	}
	rows.Close()
	if len(ids) == 0 {
		return list, total, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range list {
		s.Items = items[s.ID]
	}
	return list, total, nil
}

func (r *SaleRepo) items(ctx context.Context, saleIDs []string) (map[string][]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = ANY($1::uuid[]) ORDER BY sale_id, line_no`, saleIDs)
	if err != nil {
		return nil, domain.StorageErr("list sale items", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.SaleItem, len(saleIDs))
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, domain.StorageErr("scan sale item", err)
		}
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("list sale items", err)
	}
	return out, nil
}
