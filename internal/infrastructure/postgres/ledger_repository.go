package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo lectura del kardex. Los asientos se escriben en StockRepo.ApplyPlan.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del kardex.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// List asientos filtrados, más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f entity.LedgerFilter) ([]*entity.LedgerEntry, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id::text = $%d", f.ProductID)
	}
	if f.LocationID != "" {
		add("location_id::text = $%d", f.LocationID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}

	query := `
		SELECT id::text, product_id::text, location_id::text, change, type, reference, note, created_by, created_at,
		       COUNT(*) OVER()
		FROM ledger_entries`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf("\n\t\tORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.LedgerEntry
		total int
	)
	for rows.Next() {
		var (
			e   entity.LedgerEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &e.LocationID, &e.Change, &typ, &e.Reference, &e.Note,
			&e.CreatedBy, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Type = entity.OperationType(typ)
		list = append(list, &e)
	}
	return list, total, rows.Err()
}

// Reconcile pares donde stock.quantity no coincide con SUM(change) del kardex.
// productID vacío revisa todo el inventario.
func (r *LedgerRepo) Reconcile(ctx context.Context, productID string) ([]entity.LedgerDrift, error) {
	const query = `
	SELECT
	    COALESCE(s.product_id, l.product_id)::text   AS product_id,
	    COALESCE(s.location_id, l.location_id)::text AS location_id,
	    COALESCE(s.quantity, 0)                      AS stock_qty,
	    COALESCE(l.total, 0)::bigint                 AS ledger_total
	FROM stock s
	FULL OUTER JOIN (
	    SELECT product_id, location_id, SUM(change) AS total
	    FROM ledger_entries
	    GROUP BY product_id, location_id
	) l ON l.product_id = s.product_id AND l.location_id = s.location_id
	WHERE COALESCE(s.quantity, 0) <> COALESCE(l.total, 0)
	  AND ($1::text = '' OR COALESCE(s.product_id, l.product_id)::text = $1::text)
	ORDER BY 1, 2`

	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("ledger.Reconcile: %w", err)
	}
	defer rows.Close()
	var out []entity.LedgerDrift
	for rows.Next() {
		var d entity.LedgerDrift
		if err := rows.Scan(&d.ProductID, &d.LocationID, &d.StockQty, &d.LedgerTotal); err != nil {
			return nil, fmt.Errorf("ledger.Reconcile scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
