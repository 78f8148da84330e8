package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// OperationCountResult conteo de operaciones abiertas de un tipo.
type OperationCountResult struct {
	Type    entity.OperationType
	Draft   int
	Ready   int
	Waiting int
	Late    int // programadas antes de ahora y aún abiertas
}

// InventoryTotals totales globales del inventario.
type InventoryTotals struct {
	Products  int
	Locations int
	OnHand    int64
	Valuation decimal.Decimal // existencia * costo promedio
}

// TopMoverResult producto con más unidades movidas en el período.
type TopMoverResult struct {
	ProductID   string
	SKU         string
	ProductName string
	UnitsIn     int64
	UnitsOut    int64
}

// DashboardRepository consultas read-only del tablero.
type DashboardRepository interface {
	GetOperationCounts(ctx context.Context, now time.Time) ([]OperationCountResult, error)
	GetInventoryTotals(ctx context.Context) (*InventoryTotals, error)
	GetTopMovers(ctx context.Context, from, to time.Time, limit int) ([]TopMoverResult, error)
}
