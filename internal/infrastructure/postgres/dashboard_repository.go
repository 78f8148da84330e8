package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.DashboardRepository = (*DashboardRepo)(nil)

// DashboardRepo consultas de solo lectura para el tablero de bodega.
type DashboardRepo struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository construye el adaptador del tablero.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepo {
	return &DashboardRepo{pool: pool}
}

// GetOperationCounts cuenta operaciones abiertas por tipo. Atrasada = programada antes de now.
func (r *DashboardRepo) GetOperationCounts(ctx context.Context, now time.Time) ([]repository.OperationCountResult, error) {
	const query = `
	SELECT
	    type,
	    COUNT(*) FILTER (WHERE status = 'DRAFT')   AS draft,
	    COUNT(*) FILTER (WHERE status = 'READY')   AS ready,
	    COUNT(*) FILTER (WHERE status = 'WAITING') AS waiting,
	    COUNT(*) FILTER (WHERE scheduled_date < $1) AS late
	FROM operations
	WHERE status IN ('DRAFT', 'WAITING', 'READY')
	GROUP BY type
	ORDER BY type`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("dashboard.GetOperationCounts: %w", err)
	}
	defer rows.Close()

	var results []repository.OperationCountResult
	for rows.Next() {
		var (
			row repository.OperationCountResult
			typ string
		)
		if err := rows.Scan(&typ, &row.Draft, &row.Ready, &row.Waiting, &row.Late); err != nil {
			return nil, fmt.Errorf("dashboard.GetOperationCounts scan: %w", err)
		}
		row.Type = entity.OperationType(typ)
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetInventoryTotals cantidad de productos, ubicaciones, unidades en existencia y valorización a costo promedio.
func (r *DashboardRepo) GetInventoryTotals(ctx context.Context) (*repository.InventoryTotals, error) {
	const query = `
	SELECT
	    (SELECT COUNT(*) FROM products)                 AS products,
	    (SELECT COUNT(*) FROM locations)                AS locations,
	    COALESCE(SUM(s.quantity), 0)::bigint            AS on_hand,
	    COALESCE(SUM(s.quantity * p.cost), 0)           AS valuation
	FROM stock s
	JOIN products p ON p.id = s.product_id`

	var t repository.InventoryTotals
	if err := r.pool.QueryRow(ctx, query).Scan(&t.Products, &t.Locations, &t.OnHand, &t.Valuation); err != nil {
		return nil, fmt.Errorf("dashboard.GetInventoryTotals: %w", err)
	}
	return &t, nil
}

// GetTopMovers productos con más unidades de entrada y salida en el período.
// Los traslados no cuentan: no cambian el total de la bodega.
func (r *DashboardRepo) GetTopMovers(ctx context.Context, from, to time.Time, limit int) ([]repository.TopMoverResult, error) {
	const query = `
	SELECT
	    p.id::text,
	    p.sku,
	    p.name,
	    COALESCE(SUM(l.change) FILTER (WHERE l.change > 0), 0)::bigint  AS units_in,
	    COALESCE(-SUM(l.change) FILTER (WHERE l.change < 0), 0)::bigint AS units_out
	FROM ledger_entries l
	JOIN products p ON p.id = l.product_id
	WHERE l.created_at BETWEEN $1 AND $2
	  AND l.type <> 'TRANSFER'
	GROUP BY p.id, p.sku, p.name
	ORDER BY SUM(ABS(l.change)) DESC, p.sku
	LIMIT $3`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard.GetTopMovers: %w", err)
	}
	defer rows.Close()

	var results []repository.TopMoverResult
	for rows.Next() {
		var row repository.TopMoverResult
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.ProductName, &row.UnitsIn, &row.UnitsOut); err != nil {
			return nil, fmt.Errorf("dashboard.GetTopMovers scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
