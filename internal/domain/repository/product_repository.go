package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// ProductRepository es el puerto hacia el almacén de cantidades (DIP).
// El ledger nunca crea ni elimina productos; solo lee y reescribe la cantidad actual.
type ProductRepository interface {
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el producto bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
	// ListStocked lista productos con cantidad positiva; categoryID vacío = todas las categorías.
	ListStocked(ctx context.Context, categoryID string) ([]*entity.Product, error)
}
