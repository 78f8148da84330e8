package movement

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// WeightedAverageCost costo promedio ponderado tras una entrada.
// NuevoCosto = ((Existencia * CostoActual) + (CantEntrada * CostoEntrada)) / (Existencia + CantEntrada)
func WeightedAverageCost(onHand int64, currentCost decimal.Decimal, received int64, unitCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + received
	if total <= 0 {
		return currentCost
	}
	num := decimal.NewFromInt(onHand).Mul(currentCost).Add(decimal.NewFromInt(received).Mul(unitCost))
	return num.Div(decimal.NewFromInt(total)).Round(4)
}

// CostUpdates nuevos costos por producto para las líneas de recepción con costo unitario.
// onHand es la existencia total del producto antes de la recepción.
func CostUpdates(op *entity.Operation, onHand map[string]int64, costs map[string]decimal.Decimal) map[string]decimal.Decimal {
	if op.Type != entity.OperationReceipt {
		return nil
	}
	out := make(map[string]decimal.Decimal)
	stock := make(map[string]int64)
	for _, l := range op.Lines {
		if l.UnitCost == nil {
			continue
		}
		if _, ok := stock[l.ProductID]; !ok {
			stock[l.ProductID] = onHand[l.ProductID]
		}
		cur, ok := out[l.ProductID]
		if !ok {
			cur = costs[l.ProductID]
		}
		q := l.EffectiveQuantity(op.Type)
		out[l.ProductID] = WeightedAverageCost(stock[l.ProductID], cur, q, *l.UnitCost)
		stock[l.ProductID] += q
	}
	return out
}
