package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-protocolos/internal/domain"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
)

var _ repository.ProtocolRepository = (*ProtocolRepo)(nil)

const protocolColumns = `id, protocol_number, type, status, reference_id, reference_type, notes,
	created_at, created_by, cancelled_at, cancelled_by`

// ProtocolRepo implementación del puerto ProtocolRepository sobre PostgreSQL (usable con pool o tx).
type ProtocolRepo struct {
	q Querier
}

// NewProtocolRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProtocolRepository(q Querier) *ProtocolRepo {
	return &ProtocolRepo{q: q}
}

// Create persiste la cabecera del protocolo.
func (r *ProtocolRepo) Create(ctx context.Context, p *entity.Protocol) error {
	query := `
		INSERT INTO protocols (id, protocol_number, type, status, reference_id, reference_type, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ProtocolNumber, p.Type, p.Status, nullable(p.ReferenceID), nullable(p.ReferenceType),
		nullable(p.Notes), p.CreatedAt, nullable(p.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("protocolo %s: %w", p.ProtocolNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert protocol: %w", err)
	}
	return nil
}

// CreateMovement persiste un movimiento del protocolo.
func (r *ProtocolRepo) CreateMovement(ctx context.Context, m *entity.ProtocolMovement) error {
	query := `
		INSERT INTO protocol_movements (id, protocol_id, product_id, position, quantity_before, quantity_after, quantity_changed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProtocolID, m.ProductID, m.Position,
		m.QuantityBefore, m.QuantityAfter, m.QuantityChanged, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert protocol movement: %w", err)
	}
	return nil
}

// GetByNumber obtiene un protocolo por número. Devuelve nil, nil si no existe.
func (r *ProtocolRepo) GetByNumber(ctx context.Context, number string) (*entity.Protocol, error) {
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE protocol_number = $1`
	return r.getOne(ctx, query, number)
}

// GetByNumberForUpdate igual que GetByNumber pero bloquea la fila hasta el fin de la tx.
func (r *ProtocolRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Protocol, error) {
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE protocol_number = $1 FOR UPDATE`
	return r.getOne(ctx, query, number)
}

func (r *ProtocolRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Protocol, error) {
	p, err := scanProtocol(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get protocol: %w", err)
	}
	return p, nil
}

// ListMovements devuelve los movimientos en el orden en que se aplicaron.
func (r *ProtocolRepo) ListMovements(ctx context.Context, protocolID string) ([]*entity.ProtocolMovement, error) {
	query := `
		SELECT id, protocol_id, product_id, position, quantity_before, quantity_after, quantity_changed, created_at
		FROM protocol_movements WHERE protocol_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, protocolID)
	if err != nil {
		return nil, fmt.Errorf("list protocol movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProtocolMovement
	for rows.Next() {
		var m entity.ProtocolMovement
		if err := rows.Scan(&m.ID, &m.ProtocolID, &m.ProductID, &m.Position,
			&m.QuantityBefore, &m.QuantityAfter, &m.QuantityChanged, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan protocol movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// MarkCancelled pasa el protocolo a cancelled. Solo afecta protocolos activos.
func (r *ProtocolRepo) MarkCancelled(ctx context.Context, protocolID string, at time.Time, by string) error {
	query := `
		UPDATE protocols SET status = $2, cancelled_at = $3, cancelled_by = $4
		WHERE id = $1 AND status = $5`
	tag, err := r.q.Exec(ctx, query, protocolID, entity.ProtocolStatusCancelled, at, nullable(by), entity.ProtocolStatusActive)
	if err != nil {
		return fmt.Errorf("cancel protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("protocolo %s no está activo: %w", protocolID, domain.ErrInvalidState)
	}
	return nil
}

// List lista protocolos con filtros opcionales, más recientes primero.
func (r *ProtocolRepo) List(ctx context.Context, filter repository.ProtocolFilter) ([]*entity.Protocol, error) {
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE 1=1`
	var args []any
	pos := 1
	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, *filter.Type)
		pos++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, *filter.Status)
		pos++
	}
	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.StartDate)
		pos++
	}
	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.EndDate)
		pos++
	}
	query += " ORDER BY created_at DESC, protocol_number DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, filter.Limit)
		pos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, filter.Offset)
	}
	return r.list(ctx, "list protocols", query, args...)
}

// ListByReference lista los protocolos originados por una entidad externa.
func (r *ProtocolRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.Protocol, error) {
	query := `SELECT ` + protocolColumns + ` FROM protocols
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at DESC, protocol_number DESC`
	return r.list(ctx, "list protocols by reference", query, referenceType, referenceID)
}

func (r *ProtocolRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Protocol, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Protocol
	for rows.Next() {
		p, err := scanProtocol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan protocol: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProtocol(row pgx.Row) (*entity.Protocol, error) {
	var p entity.Protocol
	var referenceID, referenceType, notes, createdBy, cancelledBy *string
	if err := row.Scan(&p.ID, &p.ProtocolNumber, &p.Type, &p.Status, &referenceID, &referenceType, &notes,
		&p.CreatedAt, &createdBy, &p.CancelledAt, &cancelledBy); err != nil {
		return nil, err
	}
	p.ReferenceID = deref(referenceID)
	p.ReferenceType = deref(referenceType)
	p.Notes = deref(notes)
	p.CreatedBy = deref(createdBy)
	p.CancelledBy = deref(cancelledBy)
	return &p, nil
}
