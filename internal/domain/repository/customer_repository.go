package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para el directorio de clientes.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error)
	// List ordena por nombre; search coincide con nombre, documento o email.
	List(ctx context.Context, search string, limit, offset int) ([]*entity.Customer, int, error)
	Update(ctx context.Context, customer *entity.Customer) error
	// Delete devuelve ErrConflict si el cliente tiene ventas registradas.
	Delete(ctx context.Context, id string) error
}
