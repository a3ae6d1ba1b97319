package protocol

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// NewMovement calcula el registro antes/después de aplicar delta sobre la cantidad actual.
// QuantityAfter = QuantityBefore + QuantityChanged, con aritmética decimal exacta.
func NewMovement(protocolID, productID string, position int, before, delta decimal.Decimal, now time.Time) *entity.ProtocolMovement {
	return &entity.ProtocolMovement{
		ProtocolID:      protocolID,
		ProductID:       productID,
		Position:        position,
		QuantityBefore:  before,
		QuantityAfter:   before.Add(delta),
		QuantityChanged: delta,
		CreatedAt:       now,
	}
}

// Consistent verifica el invariante antes/después de un movimiento.
func Consistent(m *entity.ProtocolMovement) bool {
	return m.QuantityBefore.Add(m.QuantityChanged).Equal(m.QuantityAfter)
}

// JournalNote nota del diario para la aplicación de un protocolo.
func JournalNote(number, notes string) string {
	if notes == "" {
		return "Protocolo " + number
	}
	return "Protocolo " + number + ": " + notes
}

// CancellationNote nota del diario para la reversión de un protocolo.
func CancellationNote(number string) string {
	return "Anulación protocolo " + number
}
