package movement_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
)

const (
	prodP = "prod-p"
	prodQ = "prod-q"
	locA  = "loc-a"
	locB  = "loc-b"
	actor = "user-1"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func key(p, l string) movement.StockKey {
	return movement.StockKey{ProductID: p, LocationID: l}
}

func sumEntries(entries []entity.LedgerEntry, k movement.StockKey) int64 {
	var s int64
	for _, e := range entries {
		if e.ProductID == k.ProductID && e.LocationID == k.LocationID {
			s += e.Change
		}
	}
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepciones
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildPlan_ReceiptSumaEnDestino(t *testing.T) {
	op := &entity.Operation{
		ID: "rcpt-1", Type: entity.OperationReceipt, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 4}, {ProductID: prodP, Quantity: 6}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{}, actor, now)
	require.NoError(t, err)

	require.Len(t, plan.Changes, 1)
	assert.Equal(t, int64(10), plan.Changes[0].Delta)
	assert.Equal(t, int64(10), plan.Changes[0].Quantity)
	require.Len(t, plan.Entries, 2)
	for _, e := range plan.Entries {
		assert.Equal(t, entity.OperationReceipt, e.Type)
		assert.Equal(t, "rcpt-1", e.Reference)
		assert.Positive(t, e.Change)
	}
}

func TestBuildPlan_ReceiptsSucesivosCuadranConKardex(t *testing.T) {
	snap := movement.Snapshot{}
	var ledger []entity.LedgerEntry
	for i, q := range []int64{3, 7, 1, 12} {
		op := &entity.Operation{
			ID: "r" + string(rune('0'+i)), Type: entity.OperationReceipt, DestLocationID: locA,
			Lines: []entity.OperationLine{{ProductID: prodP, Quantity: q}},
		}
		plan, err := movement.BuildPlan(op, snap, actor, now)
		require.NoError(t, err)
		for _, c := range plan.Changes {
			snap[c.Key] = c.Quantity
		}
		ledger = append(ledger, plan.Entries...)
	}
	assert.Equal(t, int64(23), snap.Quantity(key(prodP, locA)))
	assert.Equal(t, snap.Quantity(key(prodP, locA)), sumEntries(ledger, key(prodP, locA)))
}

func TestBuildPlan_ReceiptUsaCantidadHecha(t *testing.T) {
	op := &entity.Operation{
		ID: "rcpt-2", Type: entity.OperationReceipt, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 10, Done: 8}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, int64(8), plan.Entries[0].Change)
}

func TestBuildPlan_LineaSobrescribeUbicacion(t *testing.T) {
	op := &entity.Operation{
		ID: "rcpt-3", Type: entity.OperationReceipt, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 2, LocationID: locB}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, locB, plan.Changes[0].Key.LocationID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Entregas y traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildPlan_DeliveryInsuficienteEsTodoONada(t *testing.T) {
	op := &entity.Operation{
		ID: "del-1", Type: entity.OperationDelivery, SourceLocationID: locA,
		Lines: []entity.OperationLine{
			{ProductID: prodP, Quantity: 5},
			{ProductID: prodQ, Quantity: 15},
		},
	}
	snap := movement.Snapshot{key(prodP, locA): 10, key(prodQ, locA): 10}

	plan, err := movement.BuildPlan(op, snap, actor, now)
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var ise *movement.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Shortages, 1)
	assert.Equal(t, prodQ, ise.Shortages[0].ProductID)
	assert.Equal(t, int64(15), ise.Shortages[0].Required)
	assert.Equal(t, int64(10), ise.Shortages[0].Available)
	assert.Equal(t, "Insufficient stock for product prod-q at location loc-a", err.Error())
}

func TestCheckAvailability_AgregaLineasDelMismoProducto(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationDelivery, SourceLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 6}, {ProductID: prodP, Quantity: 6}},
	}
	short := movement.CheckAvailability(op, movement.Snapshot{key(prodP, locA): 10})
	require.Len(t, short, 1)
	assert.Equal(t, int64(12), short[0].Required)
}

func TestCheckAvailability_ReceiptNuncaFalta(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationReceipt, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1000}},
	}
	assert.Empty(t, movement.CheckAvailability(op, movement.Snapshot{}))
}

func TestBuildPlan_TransferConservaTotal(t *testing.T) {
	op := &entity.Operation{
		ID: "int-1", Type: entity.OperationTransfer, SourceLocationID: locA, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 4, LocationID: "ignorada"}},
	}
	snap := movement.Snapshot{key(prodP, locA): 10, key(prodP, locB): 1}
	plan, err := movement.BuildPlan(op, snap, actor, now)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 2)
	assert.Equal(t, int64(0), plan.Entries[0].Change+plan.Entries[1].Change)

	after := movement.Snapshot{}
	for k, v := range snap {
		after[k] = v
	}
	for _, c := range plan.Changes {
		after[c.Key] = c.Quantity
	}
	assert.Equal(t, int64(6), after.Quantity(key(prodP, locA)))
	assert.Equal(t, int64(5), after.Quantity(key(prodP, locB)))
	assert.Equal(t, snap.Quantity(key(prodP, locA))+snap.Quantity(key(prodP, locB)),
		after.Quantity(key(prodP, locA))+after.Quantity(key(prodP, locB)))
}

func TestBuildPlan_TransferMismaUbicacionRechazado(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationTransfer, SourceLocationID: locA, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1}},
	}
	_, err := movement.BuildPlan(op, movement.Snapshot{key(prodP, locA): 5}, actor, now)
	assert.ErrorIs(t, err, domain.ErrInvalidLocationPair)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildPlan_AdjustmentFijaCantidadContada(t *testing.T) {
	op := &entity.Operation{
		ID: "adj-1", Type: entity.OperationAdjustment, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodQ, Quantity: 5}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{key(prodQ, locB): 8}, actor, now)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, int64(-3), plan.Entries[0].Change)
	assert.Equal(t, entity.OperationAdjustment, plan.Entries[0].Type)
	assert.Equal(t, int64(5), plan.Changes[0].Quantity)
	assert.Equal(t, int64(8), plan.Theoretical[0])
}

func TestBuildPlan_AdjustmentSinDiferenciaNoGeneraAsiento(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationAdjustment, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodQ, Quantity: 8}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{key(prodQ, locB): 8}, actor, now)
	require.NoError(t, err)
	assert.Empty(t, plan.Entries)
	assert.Empty(t, plan.Changes)
	assert.Equal(t, int64(8), plan.Theoretical[0])
}

func TestBuildPlan_AdjustmentContadoNegativoInvalido(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationAdjustment, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodQ, Quantity: -1}},
	}
	_, err := movement.BuildPlan(op, movement.Snapshot{}, actor, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de forma, rebase y costo
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateOperation_Errores(t *testing.T) {
	cases := map[string]*entity.Operation{
		"sin lineas":         {Type: entity.OperationReceipt, DestLocationID: locA},
		"cantidad cero":      {Type: entity.OperationReceipt, DestLocationID: locA, Lines: []entity.OperationLine{{ProductID: prodP}}},
		"sin producto":       {Type: entity.OperationReceipt, DestLocationID: locA, Lines: []entity.OperationLine{{Quantity: 1}}},
		"entrega sin origen": {Type: entity.OperationDelivery, Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1}}},
		"tipo desconocido":   {Type: "OTHER", Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1}}},
	}
	for name, op := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, movement.ValidateOperation(op), domain.ErrInvalidInput)
		})
	}
}

func TestRebase_DetectaDecrementoConcurrente(t *testing.T) {
	op := &entity.Operation{
		ID: "del-2", Type: entity.OperationDelivery, SourceLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 7}},
	}
	plan, err := movement.BuildPlan(op, movement.Snapshot{key(prodP, locA): 10}, actor, now)
	require.NoError(t, err)

	err = movement.Rebase(plan, movement.Snapshot{key(prodP, locA): 5})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), plan.Changes[0].Quantity, "un rebase fallido no modifica el plan")

	require.NoError(t, movement.Rebase(plan, movement.Snapshot{key(prodP, locA): 9}))
	assert.Equal(t, int64(2), plan.Changes[0].Quantity)
}

func TestKeys_OrdenadasYSinDuplicados(t *testing.T) {
	op := &entity.Operation{
		Type: entity.OperationTransfer, SourceLocationID: locB, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodQ, Quantity: 1}, {ProductID: prodP, Quantity: 1}, {ProductID: prodQ, Quantity: 2}},
	}
	keys := movement.Keys(op)
	assert.Equal(t, []movement.StockKey{
		key(prodP, locA), key(prodP, locB), key(prodQ, locA), key(prodQ, locB),
	}, keys)
}

func TestKeys_SoloLadoQueTocaElTipo(t *testing.T) {
	delivery := &entity.Operation{
		Type: entity.OperationDelivery, SourceLocationID: locA, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1}},
	}
	assert.Equal(t, []movement.StockKey{key(prodP, locA)}, movement.Keys(delivery))

	receipt := &entity.Operation{
		Type: entity.OperationReceipt, SourceLocationID: locA, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 1}},
	}
	assert.Equal(t, []movement.StockKey{key(prodP, locB)}, movement.Keys(receipt))

	adjustment := &entity.Operation{
		Type: entity.OperationAdjustment, SourceLocationID: locA, DestLocationID: locB,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 4}},
	}
	assert.Equal(t, []movement.StockKey{key(prodP, locB)}, movement.Keys(adjustment))
}

func TestCostUpdates_PromedioPonderado(t *testing.T) {
	cost := decimal.NewFromInt(20)
	op := &entity.Operation{
		Type: entity.OperationReceipt, DestLocationID: locA,
		Lines: []entity.OperationLine{{ProductID: prodP, Quantity: 10, UnitCost: &cost}},
	}
	out := movement.CostUpdates(op, map[string]int64{prodP: 10}, map[string]decimal.Decimal{prodP: decimal.NewFromInt(10)})
	assert.True(t, decimal.NewFromInt(15).Equal(out[prodP]), "got %s", out[prodP])
}

func TestWeightedAverageCost_SinExistencia(t *testing.T) {
	got := movement.WeightedAverageCost(0, decimal.Zero, 4, decimal.NewFromFloat(2.5))
	assert.True(t, decimal.NewFromFloat(2.5).Equal(got))
}
