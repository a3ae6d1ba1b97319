package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProtocolType tipo de operación de stock que originó el protocolo (conjunto cerrado).
type ProtocolType string

const (
	ProtocolTypeSale       ProtocolType = "sale"
	ProtocolTypePurchase   ProtocolType = "purchase"
	ProtocolTypeAdjustment ProtocolType = "adjustment"
	ProtocolTypeZeroStock  ProtocolType = "zero_stock"
	ProtocolTypeInventory  ProtocolType = "inventory"
)

// ProtocolTypes lista todos los tipos válidos.
var ProtocolTypes = []ProtocolType{
	ProtocolTypeSale,
	ProtocolTypePurchase,
	ProtocolTypeAdjustment,
	ProtocolTypeZeroStock,
	ProtocolTypeInventory,
}

// Valid indica si t pertenece al conjunto cerrado de tipos.
func (t ProtocolType) Valid() bool {
	switch t {
	case ProtocolTypeSale, ProtocolTypePurchase, ProtocolTypeAdjustment, ProtocolTypeZeroStock, ProtocolTypeInventory:
		return true
	}
	return false
}

// ProtocolStatus estado del protocolo. Solo existe la transición active -> cancelled.
type ProtocolStatus string

const (
	ProtocolStatusActive    ProtocolStatus = "active"
	ProtocolStatusCancelled ProtocolStatus = "cancelled"
)

// Valid indica si s es un estado conocido.
func (s ProtocolStatus) Valid() bool {
	return s == ProtocolStatusActive || s == ProtocolStatusCancelled
}

// Protocol agrupa uno o más cambios de cantidad por producto en una unidad atómica,
// numerada y reversible.
type Protocol struct {
	ID             string
	ProtocolNumber string // PRT-<año>-<secuencia de 6 dígitos>
	Type           ProtocolType
	Status         ProtocolStatus
	ReferenceID    string // entidad externa que originó el protocolo (ej. venta)
	ReferenceType  string
	Notes          string
	CreatedAt      time.Time
	CreatedBy      string
	CancelledAt    *time.Time
	CancelledBy    string
}

// IsCancelled indica si el protocolo ya fue anulado.
func (p *Protocol) IsCancelled() bool {
	return p.Status == ProtocolStatusCancelled
}

// ProtocolMovement registra el antes/después de un producto dentro de un protocolo.
// Invariante: QuantityAfter = QuantityBefore + QuantityChanged.
type ProtocolMovement struct {
	ID              string
	ProtocolID      string
	ProductID       string
	Position        int // orden en que se aplicó dentro del protocolo
	QuantityBefore  decimal.Decimal
	QuantityAfter   decimal.Decimal
	QuantityChanged decimal.Decimal // positivo = entrada, negativo = salida
	CreatedAt       time.Time
}

// ProtocolWithMovements protocolo con todos sus movimientos, en orden de aplicación.
type ProtocolWithMovements struct {
	Protocol
	Movements []*ProtocolMovement
}
