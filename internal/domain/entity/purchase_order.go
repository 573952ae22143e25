package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	POStatusPending   = "pending"
	POStatusPartial   = "partial"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// PurchaseOrder orden de compra a proveedor. Las recepciones generan movimientos "in".
type PurchaseOrder struct {
	ID           string
	Number       string
	SupplierName string
	Status       string
	ExpectedDate *time.Time
	Notes        string
	Total        decimal.Decimal
	UserID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []PurchaseOrderItem
}

// PurchaseOrderItem línea de la orden.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	QuantityOrdered  int64
	QuantityReceived int64
	UnitCost         decimal.Decimal
}

// Pending cantidad aún no recibida.
func (i *PurchaseOrderItem) Pending() int64 {
	return i.QuantityOrdered - i.QuantityReceived
}

// IsTerminal indica si la orden ya no admite recepciones ni cancelación.
func (po *PurchaseOrder) IsTerminal() bool {
	return po.Status == POStatusReceived || po.Status == POStatusCancelled
}

// RefreshStatus recalcula el estado a partir de las cantidades recibidas.
func (po *PurchaseOrder) RefreshStatus() {
	if po.Status == POStatusCancelled {
		return
	}
	var received, pending int64
	for i := range po.Items {
		received += po.Items[i].QuantityReceived
		pending += po.Items[i].Pending()
	}
	switch {
	case pending == 0:
		po.Status = POStatusReceived
	case received > 0:
		po.Status = POStatusPartial
	default:
		po.Status = POStatusPending
	}
}
