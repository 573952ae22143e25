package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefijos de numeración de documentos.
const (
	SalePrefix          = "V"
	ReturnPrefix        = "D"
	PurchaseOrderPrefix = "OC"
)

// NewDocumentNumber genera un número legible PREFIJO-AAAAMMDD-XXXXXXXX.
func NewDocumentNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + at.Format("20060102") + "-" + suffix
}
