package entity

import "time"

// Customer cliente del directorio. Las ventas lo referencian por ID y guardan su nombre
// como copia al momento de la venta.
type Customer struct {
	ID        string
	Name      string
	TaxID     string // NIT o cédula; único en el directorio
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
