package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipo de entrada del diario usado al revertir un protocolo.
// Las entradas de creación llevan el tipo del protocolo.
const StockMovementTypeCancellation = "cancellation"

// StockMovement entrada del diario de movimientos (solo escritura, auditoría y reportes heredados).
type StockMovement struct {
	ID        string
	ProductID string
	Type      string
	Quantity  decimal.Decimal // positivo entrada, negativo salida
	Notes     string
	CreatedAt time.Time
	CreatedBy string
}
