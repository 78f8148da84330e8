package movement

import (
	"fmt"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// StockChange cambio planificado sobre una fila: Delta con signo y cantidad resultante.
type StockChange struct {
	Key      StockKey
	Delta    int64
	Quantity int64
}

// Plan efectos exactos de validar una operación. No realiza I/O.
type Plan struct {
	OperationID string
	Type        entity.OperationType
	Changes     []StockChange
	Entries     []entity.LedgerEntry
	// Theoretical cantidad en sistema por índice de línea (solo ajustes).
	Theoretical map[int]int64
}

// Keys pares afectados por el plan, en orden de bloqueo.
func (p *Plan) Keys() []StockKey {
	keys := make([]StockKey, 0, len(p.Changes))
	for _, c := range p.Changes {
		keys = append(keys, c.Key)
	}
	SortKeys(keys)
	return keys
}

// ValidateOperation revisa la forma de la operación antes de persistirla o planificarla.
func ValidateOperation(op *entity.Operation) error {
	if !op.Type.Valid() {
		return fmt.Errorf("%w: tipo de operación %q", domain.ErrInvalidInput, op.Type)
	}
	if len(op.Lines) == 0 {
		return fmt.Errorf("%w: la operación requiere al menos una línea", domain.ErrInvalidInput)
	}
	if op.Type == entity.OperationTransfer {
		if op.SourceLocationID == "" || op.DestLocationID == "" {
			return fmt.Errorf("%w: el traslado requiere ubicación de origen y destino", domain.ErrInvalidInput)
		}
		if op.SourceLocationID == op.DestLocationID {
			return domain.ErrInvalidLocationPair
		}
	}
	for i, l := range op.Lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		switch op.Type {
		case entity.OperationAdjustment:
			if l.Quantity < 0 {
				return fmt.Errorf("%w: línea %d cantidad contada negativa", domain.ErrInvalidInput, i+1)
			}
		default:
			if l.Quantity <= 0 {
				return fmt.Errorf("%w: línea %d cantidad debe ser mayor a cero", domain.ErrInvalidInput, i+1)
			}
			if l.Done < 0 {
				return fmt.Errorf("%w: línea %d cantidad hecha negativa", domain.ErrInvalidInput, i+1)
			}
		}
		if l.UnitCost != nil && l.UnitCost.IsNegative() {
			return fmt.Errorf("%w: línea %d costo unitario negativo", domain.ErrInvalidInput, i+1)
		}
		switch op.Type {
		case entity.OperationDelivery:
			if op.SourceFor(l) == "" {
				return fmt.Errorf("%w: línea %d sin ubicación de origen", domain.ErrInvalidInput, i+1)
			}
		case entity.OperationReceipt, entity.OperationAdjustment:
			if op.DestFor(l) == "" {
				return fmt.Errorf("%w: línea %d sin ubicación", domain.ErrInvalidInput, i+1)
			}
		}
	}
	return nil
}

// BuildPlan calcula cambios de stock y asientos del kardex a partir de un snapshot.
// Entregas y traslados son todo o nada: si falta stock devuelve *InsufficientStockError.
func BuildPlan(op *entity.Operation, snap Snapshot, actor string, now time.Time) (*Plan, error) {
	if err := ValidateOperation(op); err != nil {
		return nil, err
	}
	if short := CheckAvailability(op, snap); len(short) > 0 {
		return nil, &InsufficientStockError{Shortages: short}
	}

	work := make(Snapshot)
	touched := make(map[StockKey]struct{})
	qty := func(k StockKey) int64 {
		if v, ok := work[k]; ok {
			return v
		}
		return snap.Quantity(k)
	}
	set := func(k StockKey, v int64) {
		work[k] = v
		touched[k] = struct{}{}
	}

	plan := &Plan{OperationID: op.ID, Type: op.Type}
	entry := func(k StockKey, change int64) {
		plan.Entries = append(plan.Entries, entity.LedgerEntry{
			ProductID:  k.ProductID,
			LocationID: k.LocationID,
			Change:     change,
			Type:       op.Type,
			Reference:  op.ID,
			Note:       op.Note,
			CreatedBy:  actor,
			CreatedAt:  now,
		})
	}

	for i, l := range op.Lines {
		q := l.EffectiveQuantity(op.Type)
		switch op.Type {
		case entity.OperationReceipt:
			k := StockKey{ProductID: l.ProductID, LocationID: op.DestFor(l)}
			set(k, qty(k)+q)
			entry(k, q)
		case entity.OperationDelivery:
			k := StockKey{ProductID: l.ProductID, LocationID: op.SourceFor(l)}
			set(k, qty(k)-q)
			entry(k, -q)
		case entity.OperationTransfer:
			src := StockKey{ProductID: l.ProductID, LocationID: op.SourceFor(l)}
			dst := StockKey{ProductID: l.ProductID, LocationID: op.DestFor(l)}
			set(src, qty(src)-q)
			set(dst, qty(dst)+q)
			entry(src, -q)
			entry(dst, q)
		case entity.OperationAdjustment:
			k := StockKey{ProductID: l.ProductID, LocationID: op.DestFor(l)}
			theoretical := qty(k)
			if plan.Theoretical == nil {
				plan.Theoretical = make(map[int]int64)
			}
			plan.Theoretical[i] = theoretical
			set(k, q)
			if d := q - theoretical; d != 0 {
				entry(k, d)
			}
		}
	}

	keys := make([]StockKey, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	SortKeys(keys)
	var short []Shortage
	for _, k := range keys {
		final := work[k]
		if final < 0 {
			short = append(short, Shortage{ProductID: k.ProductID, LocationID: k.LocationID, Required: snap.Quantity(k) - final, Available: snap.Quantity(k)})
			continue
		}
		if d := final - snap.Quantity(k); d != 0 {
			plan.Changes = append(plan.Changes, StockChange{Key: k, Delta: d, Quantity: final})
		}
	}
	if len(short) > 0 {
		return nil, &InsufficientStockError{Shortages: short}
	}
	return plan, nil
}

// Rebase recalcula las cantidades resultantes del plan sobre un snapshot bloqueado.
// Si algún cambio dejaría stock negativo devuelve *InsufficientStockError y no modifica el plan.
func Rebase(plan *Plan, locked Snapshot) error {
	var short []Shortage
	for _, c := range plan.Changes {
		if locked.Quantity(c.Key)+c.Delta < 0 {
			short = append(short, Shortage{
				ProductID:  c.Key.ProductID,
				LocationID: c.Key.LocationID,
				Required:   -c.Delta,
				Available:  locked.Quantity(c.Key),
			})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Shortages: short}
	}
	for i := range plan.Changes {
		plan.Changes[i].Quantity = locked.Quantity(plan.Changes[i].Key) + plan.Changes[i].Delta
	}
	return nil
}
