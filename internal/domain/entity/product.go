package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es la fila del almacén de cantidades. El ledger solo lee y actualiza Quantity;
// la creación y baja de productos pertenecen al catálogo.
type Product struct {
	ID         string
	CategoryID string
	SKU        string
	Name       string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}
