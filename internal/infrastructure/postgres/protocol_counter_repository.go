package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
)

var _ repository.ProtocolCounterRepository = (*ProtocolCounterRepo)(nil)

// ProtocolCounterRepo asigna la secuencia anual con una fila por año en protocol_counters.
// La fila queda bloqueada por el UPDATE hasta el fin de la tx, lo que serializa la numeración.
type ProtocolCounterRepo struct {
	q Querier
}

// NewProtocolCounterRepository construye el adaptador. Debe recibir la tx del protocolo.
func NewProtocolCounterRepository(q Querier) *ProtocolCounterRepo {
	return &ProtocolCounterRepo{q: q}
}

// NextSequence devuelve la siguiente secuencia del año. La primera vez que se usa un año
// el contador arranca después de la mayor secuencia ya emitida con ese prefijo, aunque haya huecos.
func (r *ProtocolCounterRepo) NextSequence(ctx context.Context, year int) (int, error) {
	query := `
		INSERT INTO protocol_counters (year, last_seq)
		SELECT $1, COALESCE(MAX(split_part(protocol_number, '-', 3)::INTEGER), 0) + 1
		FROM protocols
		WHERE protocol_number LIKE $2 AND split_part(protocol_number, '-', 3) ~ '^[0-9]+$'
		ON CONFLICT (year) DO UPDATE SET last_seq = protocol_counters.last_seq + 1
		RETURNING last_seq`
	var seq int
	if err := r.q.QueryRow(ctx, query, year, protocol.Prefix(year)+"%").Scan(&seq); err != nil {
		return 0, fmt.Errorf("next protocol sequence %d: %w", year, err)
	}
	return seq, nil
}
