package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// ProtocolFilter filtros de listado; los campos vacíos no filtran. Limit 0 = sin límite.
type ProtocolFilter struct {
	Type      *entity.ProtocolType
	Status    *entity.ProtocolStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// ProtocolRepository puerto de persistencia de protocolos y sus movimientos.
type ProtocolRepository interface {
	Create(ctx context.Context, protocol *entity.Protocol) error
	CreateMovement(ctx context.Context, movement *entity.ProtocolMovement) error
	// GetByNumber devuelve nil, nil si no existe.
	GetByNumber(ctx context.Context, number string) (*entity.Protocol, error)
	// GetByNumberForUpdate igual que GetByNumber pero bloquea la fila (SELECT FOR UPDATE).
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.Protocol, error)
	// ListMovements devuelve los movimientos en orden de aplicación.
	ListMovements(ctx context.Context, protocolID string) ([]*entity.ProtocolMovement, error)
	MarkCancelled(ctx context.Context, protocolID string, at time.Time, by string) error
	// List ordena por fecha de creación descendente.
	List(ctx context.Context, filter ProtocolFilter) ([]*entity.Protocol, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.Protocol, error)
}

// ProtocolCounterRepository asigna la secuencia anual de numeración.
// Debe ejecutarse dentro de la misma transacción que inserta el protocolo.
type ProtocolCounterRepository interface {
	NextSequence(ctx context.Context, year int) (int, error)
}
