package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetQuantity obtiene el stock confirmado de un producto en una ubicación (0 si no hay fila).
func (r *StockRepo) GetQuantity(ctx context.Context, productID, locationID string) (int64, error) {
	var qty int64
	err := r.q.QueryRow(ctx,
		`SELECT quantity FROM stock WHERE product_id = $1 AND location_id = $2`,
		productID, locationID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return qty, nil
}

// Snapshot lee varias filas sin bloquearlas. Los pares sin fila quedan en 0.
func (r *StockRepo) Snapshot(ctx context.Context, keys []movement.StockKey) (movement.Snapshot, error) {
	snap := make(movement.Snapshot, len(keys))
	if len(keys) == 0 {
		return snap, nil
	}
	products, locations := splitKeys(keys)
	query := `
		SELECT s.product_id::text, s.location_id::text, s.quantity
		FROM stock s
		JOIN unnest($1::uuid[], $2::uuid[]) AS k(product_id, location_id)
		  ON k.product_id = s.product_id AND k.location_id = s.location_id`
	rows, err := r.q.Query(ctx, query, products, locations)
	if err != nil {
		return nil, fmt.Errorf("stock snapshot: %w", err)
	}
	defer rows.Close()
	for _, k := range keys {
		snap[k] = 0
	}
	for rows.Next() {
		var (
			k   movement.StockKey
			qty int64
		)
		if err := rows.Scan(&k.ProductID, &k.LocationID, &qty); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		snap[k] = qty
	}
	return snap, rows.Err()
}

// LockForUpdate crea en 0 las filas que falten y bloquea cada una con SELECT FOR UPDATE,
// siguiendo el orden de keys. Dos validaciones concurrentes sobre los mismos pares
// adquieren los bloqueos en el mismo orden.
func (r *StockRepo) LockForUpdate(ctx context.Context, keys []movement.StockKey) (movement.Snapshot, error) {
	sorted := append([]movement.StockKey(nil), keys...)
	movement.SortKeys(sorted)

	snap := make(movement.Snapshot, len(sorted))
	for _, k := range sorted {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO stock (product_id, location_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (product_id, location_id) DO NOTHING`,
			k.ProductID, k.LocationID,
		); err != nil {
			return nil, writeError("ensure stock row", err)
		}
		var qty int64
		if err := r.q.QueryRow(ctx, `
			SELECT quantity FROM stock
			WHERE product_id = $1 AND location_id = $2
			FOR UPDATE`,
			k.ProductID, k.LocationID,
		).Scan(&qty); err != nil {
			return nil, fmt.Errorf("lock stock: %w", err)
		}
		snap[k] = qty
	}
	return snap, nil
}

// ApplyPlan re-verifica el plan contra las filas bloqueadas, escribe las cantidades resultantes
// y agrega los asientos del kardex. Debe correr en la misma transacción que LockForUpdate.
func (r *StockRepo) ApplyPlan(ctx context.Context, plan *movement.Plan) error {
	locked, err := r.LockForUpdate(ctx, plan.Keys())
	if err != nil {
		return err
	}
	if err := movement.Rebase(plan, locked); err != nil {
		return err
	}

	for _, c := range plan.Changes {
		_, err := r.q.Exec(ctx, `
			UPDATE stock SET quantity = $3, updated_at = now()
			WHERE product_id = $1 AND location_id = $2`,
			c.Key.ProductID, c.Key.LocationID, c.Quantity,
		)
		if err != nil {
			if isCheckViolation(err) {
				return &movement.InsufficientStockError{Shortages: []movement.Shortage{{
					ProductID:  c.Key.ProductID,
					LocationID: c.Key.LocationID,
					Required:   -c.Delta,
					Available:  c.Quantity - c.Delta,
				}}}
			}
			return fmt.Errorf("update stock: %w", err)
		}
	}

	for i := range plan.Entries {
		e := &plan.Entries[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO ledger_entries (id, product_id, location_id, change, type, reference, note, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, e.ProductID, e.LocationID, e.Change, string(e.Type), e.Reference, e.Note, e.CreatedBy, e.CreatedAt,
		)
		if err != nil {
			return writeError("insert ledger entry", err)
		}
	}
	return nil
}

// TotalOnHand suma de existencias del producto en todas las ubicaciones.
func (r *StockRepo) TotalOnHand(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)::bigint FROM stock WHERE product_id = $1`, productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total on hand: %w", err)
	}
	return total, nil
}

// ListByLocation productos con existencia en una ubicación, búsqueda por SKU o nombre.
func (r *StockRepo) ListByLocation(ctx context.Context, locationID, search string, limit, offset int) ([]entity.LocationStock, int, error) {
	query := `
		SELECT p.id::text, p.sku, p.name, p.unit_measure, s.location_id::text, s.quantity, s.updated_at, COUNT(*) OVER()
		FROM stock s
		JOIN products p ON p.id = s.product_id
		WHERE s.location_id = $1 AND s.quantity > 0
		  AND ($2 = '' OR p.sku ILIKE $3 OR p.name ILIKE $3)
		ORDER BY p.name, p.sku
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, locationID, search, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock by location: %w", err)
	}
	defer rows.Close()
	var (
		list  []entity.LocationStock
		total int
	)
	for rows.Next() {
		var s entity.LocationStock
		if err := rows.Scan(&s.ProductID, &s.SKU, &s.ProductName, &s.UnitMeasure, &s.LocationID,
			&s.Quantity, &s.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan location stock: %w", err)
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// ListByProduct filas de stock del producto con cantidad positiva.
func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]entity.Stock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id::text, location_id::text, quantity, updated_at
		FROM stock WHERE product_id = $1 AND quantity > 0
		ORDER BY location_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock by product: %w", err)
	}
	defer rows.Close()
	var list []entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func splitKeys(keys []movement.StockKey) (products, locations []string) {
	products = make([]string, len(keys))
	locations = make([]string, len(keys))
	for i, k := range keys {
		products[i] = k.ProductID
		locations[i] = k.LocationID
	}
	return products, locations
}
