package repository

import (
	"context"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
)

// StockRepository define el puerto del stock por ubicación y su kardex.
// Los métodos de bloqueo y ApplyPlan solo tienen sentido dentro de una transacción.
type StockRepository interface {
	// GetQuantity cantidad confirmada; 0 si no hay fila.
	GetQuantity(ctx context.Context, productID, locationID string) (int64, error)
	// Snapshot lectura sin bloqueo de varios pares.
	Snapshot(ctx context.Context, keys []movement.StockKey) (movement.Snapshot, error)
	// LockForUpdate crea las filas faltantes en 0 y las bloquea (SELECT FOR UPDATE) en el orden de keys.
	LockForUpdate(ctx context.Context, keys []movement.StockKey) (movement.Snapshot, error)
	// ApplyPlan re-verifica el plan contra las filas bloqueadas, escribe el stock y agrega los asientos.
	ApplyPlan(ctx context.Context, plan *movement.Plan) error
	TotalOnHand(ctx context.Context, productID string) (int64, error)
	ListByLocation(ctx context.Context, locationID, search string, limit, offset int) ([]entity.LocationStock, int, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.Stock, error)
}

// LedgerRepository lectura del kardex (solo lectura; la escritura ocurre en ApplyPlan).
type LedgerRepository interface {
	List(ctx context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, int, error)
	Reconcile(ctx context.Context, productID string) ([]entity.LedgerDrift, error)
}
