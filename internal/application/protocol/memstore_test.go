package protocol_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	app "github.com/jhoicas/Inventario-protocolos/internal/application/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	domprotocol "github.com/jhoicas/Inventario-protocolos/internal/domain/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
)

// memStore almacén en memoria con transacciones serializadas: Run toma un snapshot y lo
// restaura si fn falla, igual que un Rollback.
type memStore struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	protocols map[string]*entity.Protocol
	movements []*entity.ProtocolMovement
	journal   []*entity.StockMovement
	counters  map[int]int

	// failJournalOn hace fallar la escritura del diario para ese producto.
	failJournalOn string
}

var errJournalDown = errors.New("diario no disponible")

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]*entity.Product{},
		protocols: map[string]*entity.Protocol{},
		counters:  map[int]int{},
	}
}

type memSnapshot struct {
	products  map[string]entity.Product
	protocols map[string]entity.Protocol
	movements []*entity.ProtocolMovement
	journal   []*entity.StockMovement
	counters  map[int]int
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		products:  make(map[string]entity.Product, len(s.products)),
		protocols: make(map[string]entity.Protocol, len(s.protocols)),
		movements: append([]*entity.ProtocolMovement(nil), s.movements...),
		journal:   append([]*entity.StockMovement(nil), s.journal...),
		counters:  make(map[int]int, len(s.counters)),
	}
	for k, v := range s.products {
		snap.products[k] = *v
	}
	for k, v := range s.protocols {
		snap.protocols[k] = *v
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = make(map[string]*entity.Product, len(snap.products))
	for k, v := range snap.products {
		v := v
		s.products[k] = &v
	}
	s.protocols = make(map[string]*entity.Protocol, len(snap.protocols))
	for k, v := range snap.protocols {
		v := v
		s.protocols[k] = &v
	}
	s.movements = snap.movements
	s.journal = snap.journal
	s.counters = snap.counters
}

// Run implementa app.TxRunner.
func (s *memStore) Run(ctx context.Context, fn func(
	protocolRepo repository.ProtocolRepository,
	counterRepo repository.ProtocolCounterRepository,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	tx := &memTx{s: s}
	if err := fn(tx, tx, tx, memJournal{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

var _ app.TxRunner = (*memStore)(nil)

// addProduct siembra el almacén de cantidades.
func (s *memStore) addProduct(id, categoryID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &entity.Product{ID: id, CategoryID: categoryID, SKU: "SKU-" + id, Name: id, Quantity: qty}
}

func (s *memStore) quantity(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

func (s *memStore) counts() (protocols, movements, journal int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.protocols), len(s.movements), len(s.journal)
}

func (s *memStore) journalEntries() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockMovement, 0, len(s.journal))
	for _, j := range s.journal {
		out = append(out, *j)
	}
	return out
}

// memTx repos atados a la "transacción": el lock ya lo tiene Run.
type memTx struct{ s *memStore }

func (t *memTx) Create(_ context.Context, p *entity.Protocol) error {
	for _, existing := range t.s.protocols {
		if existing.ProtocolNumber == p.ProtocolNumber {
			return errors.New("duplicate protocol_number")
		}
	}
	cp := *p
	t.s.protocols[p.ID] = &cp
	return nil
}

func (t *memTx) CreateMovement(_ context.Context, m *entity.ProtocolMovement) error {
	if _, ok := t.s.protocols[m.ProtocolID]; !ok {
		return errors.New("fk protocol_id")
	}
	cp := *m
	t.s.movements = append(t.s.movements, &cp)
	return nil
}

func (t *memTx) GetByNumber(_ context.Context, number string) (*entity.Protocol, error) {
	for _, p := range t.s.protocols {
		if p.ProtocolNumber == number {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Protocol, error) {
	return t.GetByNumber(ctx, number)
}

func (t *memTx) ListMovements(_ context.Context, protocolID string) ([]*entity.ProtocolMovement, error) {
	var out []*entity.ProtocolMovement
	for _, m := range t.s.movements {
		if m.ProtocolID == protocolID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (t *memTx) MarkCancelled(_ context.Context, protocolID string, at time.Time, by string) error {
	p, ok := t.s.protocols[protocolID]
	if !ok {
		return errors.New("protocol not found")
	}
	p.Status = entity.ProtocolStatusCancelled
	p.CancelledAt = &at
	p.CancelledBy = by
	return nil
}

func (t *memTx) List(_ context.Context, f repository.ProtocolFilter) ([]*entity.Protocol, error) {
	var out []*entity.Protocol
	for _, p := range t.s.protocols {
		if f.Type != nil && p.Type != *f.Type {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.StartDate != nil && p.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && p.CreatedAt.After(*f.EndDate) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sortRecentFirst(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *memTx) ListByReference(_ context.Context, referenceType, referenceID string) ([]*entity.Protocol, error) {
	var out []*entity.Protocol
	for _, p := range t.s.protocols {
		if p.ReferenceType == referenceType && p.ReferenceID == referenceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortRecentFirst(out)
	return out, nil
}

func sortRecentFirst(list []*entity.Protocol) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ProtocolNumber > list[j].ProtocolNumber
	})
}

// NextSequence siembra el contador con la mayor secuencia existente del año.
func (t *memTx) NextSequence(_ context.Context, year int) (int, error) {
	if _, ok := t.s.counters[year]; !ok {
		highest := 0
		for _, p := range t.s.protocols {
			y, seq, err := domprotocol.ParseNumber(p.ProtocolNumber)
			if err == nil && y == year && seq > highest {
				highest = seq
			}
		}
		t.s.counters[year] = highest
	}
	t.s.counters[year]++
	return t.s.counters[year], nil
}

func (t *memTx) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return t.GetByID(ctx, id)
}

func (t *memTx) UpdateQuantity(_ context.Context, id string, qty decimal.Decimal) error {
	p, ok := t.s.products[id]
	if !ok {
		return errors.New("product not found")
	}
	p.Quantity = qty
	return nil
}

func (t *memTx) ListStocked(_ context.Context, categoryID string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range t.s.products {
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		if p.Quantity.IsPositive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memJournal diario de movimientos (el Create de memTx es el de protocolos).
type memJournal struct{ s *memStore }

func (j memJournal) Create(_ context.Context, m *entity.StockMovement) error {
	if j.s.failJournalOn != "" && m.ProductID == j.s.failJournalOn {
		return errJournalDown
	}
	cp := *m
	j.s.journal = append(j.s.journal, &cp)
	return nil
}

// memReader lecturas fuera de transacción (toman el lock).
type memReader struct{ s *memStore }

func (r memReader) tx() *memTx { return &memTx{s: r.s} }

func (r memReader) Create(ctx context.Context, p *entity.Protocol) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().Create(ctx, p)
}

func (r memReader) CreateMovement(ctx context.Context, m *entity.ProtocolMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().CreateMovement(ctx, m)
}

func (r memReader) GetByNumber(ctx context.Context, number string) (*entity.Protocol, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().GetByNumber(ctx, number)
}

func (r memReader) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Protocol, error) {
	return r.GetByNumber(ctx, number)
}

func (r memReader) ListMovements(ctx context.Context, protocolID string) ([]*entity.ProtocolMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().ListMovements(ctx, protocolID)
}

func (r memReader) MarkCancelled(ctx context.Context, protocolID string, at time.Time, by string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().MarkCancelled(ctx, protocolID, at, by)
}

func (r memReader) List(ctx context.Context, f repository.ProtocolFilter) ([]*entity.Protocol, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().List(ctx, f)
}

func (r memReader) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.Protocol, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().ListByReference(ctx, referenceType, referenceID)
}

func (r memReader) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().GetByID(ctx, id)
}

func (r memReader) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r memReader) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().UpdateQuantity(ctx, id, qty)
}

func (r memReader) ListStocked(ctx context.Context, categoryID string) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tx().ListStocked(ctx, categoryID)
}

var (
	_ repository.ProtocolRepository        = memReader{}
	_ repository.ProductRepository         = memReader{}
	_ repository.ProtocolRepository        = (*memTx)(nil)
	_ repository.ProtocolCounterRepository = (*memTx)(nil)
	_ repository.ProductRepository         = (*memTx)(nil)
	_ repository.StockMovementRepository   = memJournal{}
)
