package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.OperationRepository = (*OperationRepo)(nil)

const operationColumns = `
	id::text, type, reference, contact,
	COALESCE(source_location_id::text, ''), COALESCE(dest_location_id::text, ''),
	scheduled_date, responsible, status, note, created_by, validated_at, created_at, updated_at`

// OperationRepo persistencia de recepciones, entregas, traslados y ajustes (cabecera + líneas).
type OperationRepo struct {
	q Querier
}

// NewOperationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOperationRepository(q Querier) *OperationRepo {
	return &OperationRepo{q: q}
}

// Create inserta cabecera y líneas. Referencia repetida → ErrConflict.
func (r *OperationRepo) Create(ctx context.Context, op *entity.Operation) error {
	query := `
		INSERT INTO operations (id, type, reference, contact, source_location_id, dest_location_id,
			scheduled_date, responsible, status, note, created_by, validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		op.ID, string(op.Type), op.Reference, op.Contact, op.SourceLocationID, op.DestLocationID,
		op.ScheduledDate, op.Responsible, string(op.Status), op.Note, op.CreatedBy, op.ValidatedAt,
		op.CreatedAt, op.UpdatedAt,
	)
	if err != nil {
		return writeError("insert operation", err)
	}
	return r.insertLines(ctx, op)
}

// GetByID devuelve la operación con sus líneas; (nil, nil) si no existe.
func (r *OperationRepo) GetByID(ctx context.Context, id string) (*entity.Operation, error) {
	return r.get(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1`, id)
}

// GetForUpdate como GetByID pero bloquea la cabecera hasta el fin de la transacción.
func (r *OperationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Operation, error) {
	return r.get(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1 FOR UPDATE`, id)
}

func (r *OperationRepo) get(ctx context.Context, query, id string) (*entity.Operation, error) {
	op, err := scanOperation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get operation: %w", err)
	}
	lines, err := r.lines(ctx, []string{op.ID})
	if err != nil {
		return nil, err
	}
	op.Lines = lines[op.ID]
	return op, nil
}

// Update reescribe la cabecera y reemplaza las líneas.
func (r *OperationRepo) Update(ctx context.Context, op *entity.Operation) error {
	query := `
		UPDATE operations SET reference = $2, contact = $3,
			source_location_id = NULLIF($4, '')::uuid, dest_location_id = NULLIF($5, '')::uuid,
			scheduled_date = $6, responsible = $7, status = $8, note = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		op.ID, op.Reference, op.Contact, op.SourceLocationID, op.DestLocationID,
		op.ScheduledDate, op.Responsible, string(op.Status), op.Note, op.UpdatedAt,
	)
	if err != nil {
		return writeError("update operation", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM operation_lines WHERE operation_id = $1`, op.ID); err != nil {
		return fmt.Errorf("delete operation lines: %w", err)
	}
	return r.insertLines(ctx, op)
}

// UpdateStatus cambia estado, validated_at y la cantidad teórica de las líneas.
func (r *OperationRepo) UpdateStatus(ctx context.Context, op *entity.Operation) error {
	_, err := r.q.Exec(ctx,
		`UPDATE operations SET status = $2, validated_at = $3, updated_at = $4 WHERE id = $1`,
		op.ID, string(op.Status), op.ValidatedAt, op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update operation status: %w", err)
	}
	for _, l := range op.Lines {
		if l.Theoretical == nil {
			continue
		}
		if _, err := r.q.Exec(ctx,
			`UPDATE operation_lines SET theoretical = $2 WHERE id = $1`, l.ID, *l.Theoretical,
		); err != nil {
			return fmt.Errorf("update line theoretical: %w", err)
		}
	}
	return nil
}

// List operaciones filtradas por tipo, estado y búsqueda en referencia o contacto.
func (r *OperationRepo) List(ctx context.Context, f entity.OperationFilter) ([]*entity.Operation, int, error) {
	query := `
		SELECT ` + operationColumns + `, COUNT(*) OVER()
		FROM operations
		WHERE ($1 = '' OR type = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR reference ILIKE $4 OR contact ILIKE $4)
		ORDER BY created_at DESC, reference DESC
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query,
		string(f.Type), string(f.Status), f.Search, likePattern(f.Search), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}
	var (
		list  []*entity.Operation
		ids   []string
		total int
	)
	for rows.Next() {
		op, err := scanOperation(rows, &total)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan operation: %w", err)
		}
		list = append(list, op)
		ids = append(ids, op.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}
	if len(ids) == 0 {
		return list, total, nil
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, op := range list {
		op.Lines = lines[op.ID]
	}
	return list, total, nil
}

// NextSequence siguiente número de referencia del tipo. Atómico dentro de la transacción.
func (r *OperationRepo) NextSequence(ctx context.Context, t entity.OperationType) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO operation_sequences (type, last_value) VALUES ($1, 1)
		ON CONFLICT (type) DO UPDATE SET last_value = operation_sequences.last_value + 1
		RETURNING last_value`, string(t),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next operation sequence: %w", err)
	}
	return n, nil
}

func (r *OperationRepo) insertLines(ctx context.Context, op *entity.Operation) error {
	for i, l := range op.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO operation_lines (id, operation_id, line_no, product_id, location_id, quantity, done, theoretical, unit_cost)
			VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9)`,
			l.ID, op.ID, i+1, l.ProductID, l.LocationID, l.Quantity, l.Done, l.Theoretical, l.UnitCost,
		)
		if err != nil {
			return writeError("insert operation line", err)
		}
	}
	return nil
}

func (r *OperationRepo) lines(ctx context.Context, opIDs []string) (map[string][]entity.OperationLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, operation_id::text, product_id::text, COALESCE(location_id::text, ''),
		       quantity, done, theoretical, unit_cost
		FROM operation_lines
		WHERE operation_id = ANY($1::uuid[])
		ORDER BY operation_id, line_no`, opIDs)
	if err != nil {
		return nil, fmt.Errorf("list operation lines: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.OperationLine, len(opIDs))
	for rows.Next() {
		var l entity.OperationLine
		if err := rows.Scan(&l.ID, &l.OperationID, &l.ProductID, &l.LocationID,
			&l.Quantity, &l.Done, &l.Theoretical, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan operation line: %w", err)
		}
		out[l.OperationID] = append(out[l.OperationID], l)
	}
	return out, rows.Err()
}

// scanOperation escanea una cabecera; extra recibe columnas adicionales (p. ej. COUNT(*) OVER()).
func scanOperation(row pgx.Row, extra ...any) (*entity.Operation, error) {
	var (
		op          entity.Operation
		typ, status string
	)
	dest := []any{
		&op.ID, &typ, &op.Reference, &op.Contact, &op.SourceLocationID, &op.DestLocationID,
		&op.ScheduledDate, &op.Responsible, &status, &op.Note, &op.CreatedBy, &op.ValidatedAt,
		&op.CreatedAt, &op.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	op.Type = entity.OperationType(typ)
	op.Status = entity.OperationStatus(status)
	return &op, nil
}
