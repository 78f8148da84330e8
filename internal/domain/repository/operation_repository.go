package repository

import (
	"context"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// OperationRepository repositorio único para recepciones, entregas, traslados y ajustes.
type OperationRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, op *entity.Operation) error
	// GetByID devuelve la operación con sus líneas; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Operation, error)
	// GetForUpdate como GetByID pero bloquea la cabecera (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Operation, error)
	// Update reescribe cabecera y reemplaza las líneas.
	Update(ctx context.Context, op *entity.Operation) error
	// UpdateStatus cambia estado, validated_at y la cantidad teórica de las líneas.
	UpdateStatus(ctx context.Context, op *entity.Operation) error
	List(ctx context.Context, filter entity.OperationFilter) ([]*entity.Operation, int, error)
	NextSequence(ctx context.Context, t entity.OperationType) (int64, error)
}
