package operation_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// memState estado completo de la "base de datos" en memoria.
type memState struct {
	ops       map[string]*entity.Operation
	stock     movement.Snapshot
	ledger    []entity.LedgerEntry
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	seq       map[entity.OperationType]int64

	// productLocks productos bloqueados con GetForUpdate, en orden.
	productLocks []string
}

func newMemState() *memState {
	return &memState{
		ops:       map[string]*entity.Operation{},
		stock:     movement.Snapshot{},
		products:  map[string]*entity.Product{},
		locations: map[string]*entity.Location{},
		seq:       map[entity.OperationType]int64{},
	}
}

func cloneOp(op *entity.Operation) *entity.Operation {
	cp := *op
	cp.Lines = append([]entity.OperationLine(nil), op.Lines...)
	return &cp
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.ops {
		c.ops[k] = cloneOp(v)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	c.ledger = append(c.ledger, s.ledger...)
	c.productLocks = append(c.productLocks, s.productLocks...)
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.locations {
		l := *v
		c.locations[k] = &l
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

// memDB TxRunner en memoria: fn trabaja sobre una copia y solo se publica si no hay error.
type memDB struct {
	txMu sync.Mutex
	stMu sync.RWMutex
	st   *memState

	// failStatusUpdate simula un fallo al marcar DONE, después de escribir stock y kardex.
	failStatusUpdate error
	publishedCommits int
}

func newMemDB() *memDB {
	return &memDB{st: newMemState()}
}

func (db *memDB) current() *memState {
	db.stMu.RLock()
	defer db.stMu.RUnlock()
	return db.st
}

func (db *memDB) Run(ctx context.Context, fn func(
	opRepo repository.OperationRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.stMu.RLock()
	work := db.st.clone()
	db.stMu.RUnlock()

	if err := fn(&memOps{st: work, db: db}, &memStock{st: work}, &memProducts{st: work}); err != nil {
		return err
	}
	db.stMu.Lock()
	db.st = work
	db.publishedCommits++
	db.stMu.Unlock()
	return nil
}

func (db *memDB) quantity(productID, locationID string) int64 {
	return db.current().stock.Quantity(movement.StockKey{ProductID: productID, LocationID: locationID})
}

func (db *memDB) ledger() []entity.LedgerEntry {
	return append([]entity.LedgerEntry(nil), db.current().ledger...)
}

func (db *memDB) seedLocation(id, warehouseID string) {
	db.current().locations[id] = &entity.Location{ID: id, WarehouseID: warehouseID, Name: id}
}

func (db *memDB) seedProduct(id string, cost decimal.Decimal) {
	db.current().products[id] = &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, Cost: cost}
}

func (db *memDB) seedStock(productID, locationID string, qty int64) {
	db.current().stock[movement.StockKey{ProductID: productID, LocationID: locationID}] = qty
}

// poolOps lecturas fuera de transacción.
type poolOps struct{ db *memDB }

func (p poolOps) repo() *memOps { return &memOps{st: p.db.current(), db: p.db} }

func (p poolOps) Create(ctx context.Context, op *entity.Operation) error {
	return errors.New("poolOps: escritura fuera de transacción")
}
func (p poolOps) GetByID(ctx context.Context, id string) (*entity.Operation, error) {
	return p.repo().GetByID(ctx, id)
}
func (p poolOps) GetForUpdate(ctx context.Context, id string) (*entity.Operation, error) {
	return p.repo().GetByID(ctx, id)
}
func (p poolOps) Update(ctx context.Context, op *entity.Operation) error {
	return errors.New("poolOps: escritura fuera de transacción")
}
func (p poolOps) UpdateStatus(ctx context.Context, op *entity.Operation) error {
	return errors.New("poolOps: escritura fuera de transacción")
}
func (p poolOps) List(ctx context.Context, f entity.OperationFilter) ([]*entity.Operation, int, error) {
	return p.repo().List(ctx, f)
}
func (p poolOps) NextSequence(ctx context.Context, t entity.OperationType) (int64, error) {
	return 0, errors.New("poolOps: escritura fuera de transacción")
}

type memOps struct {
	st *memState
	db *memDB
}

func (r *memOps) Create(_ context.Context, op *entity.Operation) error {
	for _, o := range r.st.ops {
		if o.Reference == op.Reference {
			return errors.New("referencia duplicada")
		}
	}
	r.st.ops[op.ID] = cloneOp(op)
	return nil
}

func (r *memOps) GetByID(_ context.Context, id string) (*entity.Operation, error) {
	op, ok := r.st.ops[id]
	if !ok {
		return nil, nil
	}
	return cloneOp(op), nil
}

func (r *memOps) GetForUpdate(ctx context.Context, id string) (*entity.Operation, error) {
	return r.GetByID(ctx, id)
}

func (r *memOps) Update(_ context.Context, op *entity.Operation) error {
	r.st.ops[op.ID] = cloneOp(op)
	return nil
}

func (r *memOps) UpdateStatus(_ context.Context, op *entity.Operation) error {
	if op.Status == entity.StatusDone && r.db.failStatusUpdate != nil {
		return r.db.failStatusUpdate
	}
	cur, ok := r.st.ops[op.ID]
	if !ok {
		return errors.New("operación inexistente")
	}
	cur.Status = op.Status
	cur.ValidatedAt = op.ValidatedAt
	cur.UpdatedAt = op.UpdatedAt
	for i := range cur.Lines {
		cur.Lines[i].Theoretical = op.Lines[i].Theoretical
	}
	return nil
}

func (r *memOps) List(_ context.Context, f entity.OperationFilter) ([]*entity.Operation, int, error) {
	var out []*entity.Operation
	for _, op := range r.st.ops {
		if f.Type != "" && op.Type != f.Type {
			continue
		}
		if f.Status != "" && op.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(op.Reference+" "+op.Contact, f.Search) {
			continue
		}
		out = append(out, cloneOp(op))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *memOps) NextSequence(_ context.Context, t entity.OperationType) (int64, error) {
	r.st.seq[t]++
	return r.st.seq[t], nil
}

type memStock struct{ st *memState }

func (r *memStock) GetQuantity(_ context.Context, productID, locationID string) (int64, error) {
	return r.st.stock.Quantity(movement.StockKey{ProductID: productID, LocationID: locationID}), nil
}

func (r *memStock) Snapshot(_ context.Context, keys []movement.StockKey) (movement.Snapshot, error) {
	snap := movement.Snapshot{}
	for _, k := range keys {
		snap[k] = r.st.stock.Quantity(k)
	}
	return snap, nil
}

func (r *memStock) LockForUpdate(ctx context.Context, keys []movement.StockKey) (movement.Snapshot, error) {
	return r.Snapshot(ctx, keys)
}

func (r *memStock) ApplyPlan(ctx context.Context, plan *movement.Plan) error {
	locked, _ := r.Snapshot(ctx, plan.Keys())
	if err := movement.Rebase(plan, locked); err != nil {
		return err
	}
	for _, c := range plan.Changes {
		r.st.stock[c.Key] = c.Quantity
	}
	for _, e := range plan.Entries {
		e.ID = uuid.New().String()
		r.st.ledger = append(r.st.ledger, e)
	}
	return nil
}

func (r *memStock) TotalOnHand(_ context.Context, productID string) (int64, error) {
	var total int64
	for k, v := range r.st.stock {
		if k.ProductID == productID {
			total += v
		}
	}
	return total, nil
}

func (r *memStock) ListByLocation(_ context.Context, locationID, _ string, _, _ int) ([]entity.LocationStock, int, error) {
	var out []entity.LocationStock
	for k, v := range r.st.stock {
		if k.LocationID == locationID {
			out = append(out, entity.LocationStock{ProductID: k.ProductID, LocationID: k.LocationID, Quantity: v})
		}
	}
	return out, len(out), nil
}

func (r *memStock) ListByProduct(_ context.Context, productID string) ([]entity.Stock, error) {
	var out []entity.Stock
	for k, v := range r.st.stock {
		if k.ProductID == productID {
			out = append(out, entity.Stock{ProductID: k.ProductID, LocationID: k.LocationID, Quantity: v})
		}
	}
	return out, nil
}

type memProducts struct{ st *memState }

func (r *memProducts) Create(_ context.Context, p *entity.Product) error {
	cp := *p
	r.st.products[p.ID] = &cp
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProducts) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	r.st.productLocks = append(r.st.productLocks, id)
	return r.GetByID(ctx, id)
}

func (r *memProducts) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.st.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProducts) Update(_ context.Context, p *entity.Product) error {
	cp := *p
	r.st.products[p.ID] = &cp
	return nil
}

func (r *memProducts) UpdateCost(_ context.Context, id string, cost decimal.Decimal) error {
	p, ok := r.st.products[id]
	if !ok {
		return errors.New("producto inexistente")
	}
	p.Cost = cost
	return nil
}

func (r *memProducts) List(_ context.Context, _ string, _, _ int) ([]*entity.Product, int, error) {
	var out []*entity.Product
	for _, p := range r.st.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	delete(r.st.products, id)
	return nil
}

// poolProducts y poolLocations lecturas fuera de transacción.
type poolProducts struct{ db *memDB }

func (p poolProducts) repo() *memProducts { return &memProducts{st: p.db.current()} }

func (p poolProducts) Create(ctx context.Context, v *entity.Product) error {
	return p.repo().Create(ctx, v)
}
func (p poolProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return p.repo().GetByID(ctx, id)
}
func (p poolProducts) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return p.repo().GetByID(ctx, id)
}
func (p poolProducts) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return p.repo().GetBySKU(ctx, sku)
}
func (p poolProducts) Update(ctx context.Context, v *entity.Product) error {
	return p.repo().Update(ctx, v)
}
func (p poolProducts) UpdateCost(ctx context.Context, id string, c decimal.Decimal) error {
	return p.repo().UpdateCost(ctx, id, c)
}
func (p poolProducts) List(ctx context.Context, s string, l, o int) ([]*entity.Product, int, error) {
	return p.repo().List(ctx, s, l, o)
}
func (p poolProducts) Delete(ctx context.Context, id string) error {
	return p.repo().Delete(ctx, id)
}

type poolLocations struct{ db *memDB }

func (p poolLocations) Create(_ context.Context, l *entity.Location) error {
	cp := *l
	p.db.current().locations[l.ID] = &cp
	return nil
}

func (p poolLocations) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := p.db.current().locations[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (p poolLocations) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range p.db.current().locations {
		if l.WarehouseID == warehouseID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (p poolLocations) List(_ context.Context, _, _ int) ([]*entity.Location, int, error) {
	var out []*entity.Location
	for _, l := range p.db.current().locations {
		cp := *l
		out = append(out, &cp)
	}
	return out, len(out), nil
}
