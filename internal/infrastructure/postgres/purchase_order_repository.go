package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const purchaseOrderColumns = `id, number, supplier_name, status, expected_date, notes, total,
	COALESCE(user_id::text, ''), created_at, updated_at`

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el repositorio. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := row.Scan(&po.ID, &po.Number, &po.SupplierName, &po.Status, &po.ExpectedDate, &po.Notes,
		&po.Total, &po.UserID, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una transacción.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_orders (id, number, supplier_name, status, expected_date, notes, total, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9, $10)`,
		po.ID, po.Number, po.SupplierName, po.Status, po.ExpectedDate, po.Notes, po.Total,
		po.UserID, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.StorageErr("insert purchase order", err)
	}
	for i, it := range po.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO purchase_order_items (id, purchase_order_id, line_no, product_id, quantity_ordered, quantity_received, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, po.ID, i+1, it.ProductID, it.QuantityOrdered, it.QuantityReceived, it.UnitCost,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewValidationError("product_id", "producto repetido en la orden")
			}
			return domain.StorageErr("insert purchase order item", err)
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	if !validID(id) {
		return nil, nil
	}
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageErr("get purchase order", err)
	}
	items, err := r.items(ctx, []string{po.ID})
	if err != nil {
		return nil, err
	}
	po.Items = items[po.ID]
	return po, nil
}

// GetByID obtiene la orden con sus líneas.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la orden hasta el fin de la transacción.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

// UpdateReceipt persiste estado y cantidades recibidas.
func (r *PurchaseOrderRepo) UpdateReceipt(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE purchase_orders SET status = $2, updated_at = $3 WHERE id = $1`,
		po.ID, po.Status, po.UpdatedAt,
	)
	if err != nil {
		return domain.StorageErr("update purchase order", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, it := range po.Items {
		if _, err := r.q.Exec(ctx,
			`UPDATE purchase_order_items SET quantity_received = $2 WHERE id = $1`,
			it.ID, it.QuantityReceived,
		); err != nil {
			return domain.StorageErr("update purchase order item", err)
		}
	}
	return nil
}

// List página de órdenes, opcionalmente por estado.
func (r *PurchaseOrderRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	var w where
	if status != "" {
		w.add("status = ?", status)
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, domain.StorageErr("count purchase orders", err)
	}
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next()
	w.args = append(w.args, limit)
	query += ` OFFSET ` + w.next()
	w.args = append(w.args, offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, domain.StorageErr("list purchase orders", err)
	}
	defer rows.Close()
	var (
		list []*entity.PurchaseOrder
		ids  []string
	)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, 0, domain.StorageErr("scan purchase order", err)
		}
		list = append(list, po)
		ids = append(ids, po.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageErr("list purchase orders", err)
	}
	rows.Close()
	if len(ids) == 0 {
		return list, total, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, po := range list {
		po.Items = items[po.ID]
	}
	return list, total, nil
}

func (r *PurchaseOrderRepo) items(ctx context.Context, ids []string) (map[string][]entity.PurchaseOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity_ordered, quantity_received, unit_cost
		FROM purchase_order_items WHERE purchase_order_id = ANY($1::uuid[])
		ORDER BY purchase_order_id, line_no`, ids)
	if err != nil {
		return nil, domain.StorageErr("list purchase order items", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.PurchaseOrderItem, len(ids))
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.QuantityOrdered, &it.QuantityReceived, &it.UnitCost); err != nil {
			return nil, domain.StorageErr("scan purchase order item", err)
		}
		out[it.PurchaseOrderID] = append(out[it.PurchaseOrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("list purchase order items", err)
	}
	return out, nil
}
