package movement

import (
	"sort"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// StockKey identifica una fila de stock.
type StockKey struct {
	ProductID  string
	LocationID string
}

func (k StockKey) less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.LocationID < o.LocationID
}

// SortKeys ordena por (producto, ubicación). Es el orden en que se bloquean filas.
func SortKeys(keys []StockKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
}

// Snapshot cantidades conocidas por par. Una clave ausente vale 0.
type Snapshot map[StockKey]int64

// Quantity devuelve la cantidad del par (0 si no existe).
func (s Snapshot) Quantity(k StockKey) int64 {
	return s[k]
}

// Keys devuelve los pares que toca la operación, ordenados y sin duplicados.
func Keys(op *entity.Operation) []StockKey {
	seen := make(map[StockKey]struct{})
	var keys []StockKey
	add := func(k StockKey) {
		if k.ProductID == "" || k.LocationID == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, l := range op.Lines {
		if src := op.SourceFor(l); src != "" {
			add(StockKey{ProductID: l.ProductID, LocationID: src})
		}
		if dst := op.DestFor(l); dst != "" {
			add(StockKey{ProductID: l.ProductID, LocationID: dst})
		}
	}
	SortKeys(keys)
	return keys
}

// CheckAvailability devuelve los pares de origen cuya demanda agregada supera la existencia.
// Recepciones y ajustes nunca tienen faltantes.
func CheckAvailability(op *entity.Operation, snap Snapshot) []Shortage {
	if !op.Type.RequiresAvailability() {
		return nil
	}
	required := make(map[StockKey]int64)
	var order []StockKey
	for _, l := range op.Lines {
		k := StockKey{ProductID: l.ProductID, LocationID: op.SourceFor(l)}
		if _, ok := required[k]; !ok {
			order = append(order, k)
		}
		required[k] += l.EffectiveQuantity(op.Type)
	}
	SortKeys(order)
	var short []Shortage
	for _, k := range order {
		avail := snap.Quantity(k)
		if required[k] > avail {
			short = append(short, Shortage{
				ProductID:  k.ProductID,
				LocationID: k.LocationID,
				Required:   required[k],
				Available:  avail,
			})
		}
	}
	return short
}
