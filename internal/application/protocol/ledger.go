package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	domprotocol "github.com/jhoicas/Inventario-protocolos/internal/domain/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
	"github.com/jhoicas/Inventario-protocolos/pkg/logger"
)

const (
	opCreate = "create"
	opCancel = "cancel"
	opGet    = "get"
	opList   = "list"
)

// Ledger es el único punto que modifica cantidades de producto en los flujos de stock.
// Agrupa los cambios por producto en protocolos atómicos, numerados y reversibles.
type Ledger struct {
	txRunner     TxRunner
	protocolRepo repository.ProtocolRepository
	log          *logger.Logger
	recorder     Recorder
	now          func() time.Time
}

// LedgerOption configura el Ledger.
type LedgerOption func(*Ledger)

// WithClock reemplaza el reloj (fecha de creación/anulación y año de numeración).
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithRecorder registra métricas de las operaciones.
func WithRecorder(r Recorder) LedgerOption {
	return func(l *Ledger) {
		if r != nil {
			l.recorder = r
		}
	}
}

// NewLedger construye el caso de uso. protocolRepo se usa para las lecturas fuera de transacción.
func NewLedger(txRunner TxRunner, protocolRepo repository.ProtocolRepository, log *logger.Logger, opts ...LedgerOption) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	l := &Ledger{
		txRunner:     txRunner,
		protocolRepo: protocolRepo,
		log:          log.Component("protocol_ledger"),
		recorder:     nopRecorder{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MovementInput cambio solicitado para un producto. QuantityChanged positivo = entrada.
type MovementInput struct {
	ProductID       string
	QuantityChanged decimal.Decimal
}

// CreateOptions datos opcionales del protocolo.
type CreateOptions struct {
	ReferenceID   string
	ReferenceType string
	Notes         string
	CreatedBy     string
}

// CreateProtocol aplica todos los movimientos en una única transacción y devuelve el número asignado.
// Los movimientos se aplican en el orden recibido; cada uno lee la cantidad ya modificada por los
// anteriores, así dos movimientos sobre el mismo producto se componen. Si un producto no existe
// se aborta todo con ErrNotFound.
func (l *Ledger) CreateProtocol(ctx context.Context, protocolType entity.ProtocolType, movements []MovementInput, opts CreateOptions) (string, error) {
	if !protocolType.Valid() {
		return "", l.fail(opCreate, fmt.Errorf("tipo de protocolo %q: %w", protocolType, domain.ErrInvalidInput))
	}
	if len(movements) == 0 {
		return "", l.fail(opCreate, fmt.Errorf("protocolo sin movimientos: %w", domain.ErrInvalidInput))
	}
	for i, m := range movements {
		if strings.TrimSpace(m.ProductID) == "" {
			return "", l.fail(opCreate, fmt.Errorf("movimiento %d sin producto: %w", i, domain.ErrInvalidInput))
		}
	}

	now := l.now()
	var created *entity.Protocol

	err := l.txRunner.Run(ctx, func(
		protocolRepo repository.ProtocolRepository,
		counterRepo repository.ProtocolCounterRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// La secuencia se toma dentro de la misma tx: el contador queda bloqueado hasta el commit.
		seq, err := counterRepo.NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		number, err := domprotocol.FormatNumber(now.Year(), seq)
		if err != nil {
			return err
		}

		p := &entity.Protocol{
			ID:             uuid.New().String(),
			ProtocolNumber: number,
			Type:           protocolType,
			Status:         entity.ProtocolStatusActive,
			ReferenceID:    opts.ReferenceID,
			ReferenceType:  opts.ReferenceType,
			Notes:          opts.Notes,
			CreatedAt:      now,
			CreatedBy:      opts.CreatedBy,
		}
		if err := protocolRepo.Create(ctx, p); err != nil {
			return err
		}

		for i, in := range movements {
			product, err := productRepo.GetForUpdate(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrNotFound)
			}

			mov := domprotocol.NewMovement(p.ID, in.ProductID, i, product.Quantity, in.QuantityChanged, now)
			mov.ID = uuid.New().String()
			if err := protocolRepo.CreateMovement(ctx, mov); err != nil {
				return err
			}
			if err := productRepo.UpdateQuantity(ctx, in.ProductID, mov.QuantityAfter); err != nil {
				return err
			}
			if err := movRepo.Create(ctx, &entity.StockMovement{
				ID:        uuid.New().String(),
				ProductID: in.ProductID,
				Type:      string(protocolType),
				Quantity:  in.QuantityChanged,
				Notes:     domprotocol.JournalNote(number, opts.Notes),
				CreatedAt: now,
				CreatedBy: opts.CreatedBy,
			}); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	if err != nil {
		return "", l.fail(opCreate, err)
	}

	l.recorder.ProtocolCreated(string(protocolType), len(movements))
	l.log.Info().
		Str("protocol_number", created.ProtocolNumber).
		Str("type", string(protocolType)).
		Int("movements", len(movements)).
		Str("reference_type", opts.ReferenceType).
		Str("reference_id", opts.ReferenceID).
		Msg("protocolo creado")
	return created.ProtocolNumber, nil
}

// CancelProtocol anula un protocolo activo: marca el estado y restaura cada producto a la cantidad
// que tenía antes del protocolo. La restauración es incondicional (no resta el delta), por lo que
// descarta cambios posteriores de otros protocolos sobre los mismos productos.
func (l *Ledger) CancelProtocol(ctx context.Context, protocolNumber, cancelledBy string) error {
	if strings.TrimSpace(protocolNumber) == "" {
		return l.fail(opCancel, fmt.Errorf("número de protocolo vacío: %w", domain.ErrInvalidInput))
	}

	now := l.now()
	var cancelled *entity.Protocol
	var restored int

	err := l.txRunner.Run(ctx, func(
		protocolRepo repository.ProtocolRepository,
		_ repository.ProtocolCounterRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Lectura con bloqueo: dos anulaciones simultáneas no pueden pasar ambas el chequeo de estado.
		p, err := protocolRepo.GetByNumberForUpdate(ctx, protocolNumber)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("protocolo %s: %w", protocolNumber, domain.ErrNotFound)
		}
		if p.IsCancelled() {
			return fmt.Errorf("protocolo %s ya anulado: %w", protocolNumber, domain.ErrInvalidState)
		}

		movements, err := protocolRepo.ListMovements(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := protocolRepo.MarkCancelled(ctx, p.ID, now, cancelledBy); err != nil {
			return err
		}

		// Orden inverso: si un producto aparece varias veces queda en el valor previo al primer movimiento.
		for i := len(movements) - 1; i >= 0; i-- {
			m := movements[i]
			product, err := productRepo.GetForUpdate(ctx, m.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("producto %s: %w", m.ProductID, domain.ErrNotFound)
			}
			if err := productRepo.UpdateQuantity(ctx, m.ProductID, m.QuantityBefore); err != nil {
				return err
			}
			if err := movRepo.Create(ctx, &entity.StockMovement{
				ID:        uuid.New().String(),
				ProductID: m.ProductID,
				Type:      entity.StockMovementTypeCancellation,
				Quantity:  m.QuantityChanged.Neg(),
				Notes:     domprotocol.CancellationNote(protocolNumber),
				CreatedAt: now,
				CreatedBy: cancelledBy,
			}); err != nil {
				return err
			}
		}
		cancelled = p
		restored = len(movements)
		return nil
	})
	if err != nil {
		return l.fail(opCancel, err)
	}

	l.recorder.ProtocolCancelled(string(cancelled.Type))
	l.log.Info().
		Str("protocol_number", protocolNumber).
		Str("type", string(cancelled.Type)).
		Int("movements_restored", restored).
		Str("cancelled_by", cancelledBy).
		Msg("protocolo anulado")
	return nil
}

// GetProtocol devuelve el protocolo con todos sus movimientos, o ErrNotFound.
func (l *Ledger) GetProtocol(ctx context.Context, protocolNumber string) (*entity.ProtocolWithMovements, error) {
	p, err := l.protocolRepo.GetByNumber(ctx, protocolNumber)
	if err != nil {
		return nil, l.fail(opGet, err)
	}
	if p == nil {
		return nil, fmt.Errorf("protocolo %s: %w", protocolNumber, domain.ErrNotFound)
	}
	movements, err := l.protocolRepo.ListMovements(ctx, p.ID)
	if err != nil {
		return nil, l.fail(opGet, err)
	}
	return &entity.ProtocolWithMovements{Protocol: *p, Movements: movements}, nil
}

// ListProtocols lista los protocolos que cumplen todos los filtros, más recientes primero.
func (l *Ledger) ListProtocols(ctx context.Context, filter repository.ProtocolFilter) ([]*entity.Protocol, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, fmt.Errorf("tipo %q: %w", *filter.Type, domain.ErrInvalidInput)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("estado %q: %w", *filter.Status, domain.ErrInvalidInput)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("paginación negativa: %w", domain.ErrInvalidInput)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, fmt.Errorf("rango de fechas invertido: %w", domain.ErrInvalidInput)
	}
	list, err := l.protocolRepo.List(ctx, filter)
	if err != nil {
		return nil, l.fail(opList, err)
	}
	return list, nil
}

// GetProtocolsByReference devuelve los protocolos (activos o anulados) de una entidad externa.
func (l *Ledger) GetProtocolsByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.Protocol, error) {
	if referenceType == "" || referenceID == "" {
		return nil, fmt.Errorf("referencia incompleta: %w", domain.ErrInvalidInput)
	}
	list, err := l.protocolRepo.ListByReference(ctx, referenceType, referenceID)
	if err != nil {
		return nil, l.fail(opList, err)
	}
	return list, nil
}

// fail clasifica el error: los errores de dominio pasan tal cual, el resto se considera
// un fallo de la transacción (errors.Is funciona para ambos).
func (l *Ledger) fail(op string, err error) error {
	kind := errorKind(err)
	if kind == "transaction" && !errors.Is(err, domain.ErrTransactionFailure) {
		err = fmt.Errorf("%w: %w", domain.ErrTransactionFailure, err)
	}
	l.recorder.OperationFailed(op, kind)

	var ev *zerolog.Event
	if kind == "transaction" {
		ev = l.log.Error()
	} else {
		ev = l.log.Warn()
	}
	ev.Err(err).Str("operation", op).Str("kind", kind).Msg("operación de protocolo fallida")
	return err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "transaction"
	}
}
