package operation

import (
	"context"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// TxRunner unidad de trabajo: ejecuta fn con repositorios atados a una transacción
// y hace Commit si fn no devuelve error, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		opRepo repository.OperationRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Metrics contadores del ciclo de vida.
type Metrics interface {
	TransitionRecorded(t entity.OperationType, from, to entity.OperationStatus)
	ValidationObserved(t entity.OperationType, outcome string, d time.Duration)
	LedgerEntriesAppended(t entity.OperationType, n int)
}

// EventPublisher publica eventos después del commit. Un error no revierte nada.
type EventPublisher interface {
	PublishOperationValidated(ctx context.Context, ev ValidatedEvent) error
}

// ValidatedEvent evento emitido cuando una operación pasa a DONE.
type ValidatedEvent struct {
	EventID     string              `json:"eventId"`
	OperationID string              `json:"operationId"`
	Type        string              `json:"type"`
	Reference   string              `json:"reference"`
	Actor       string              `json:"actor"`
	Changes     []StockChangedEvent `json:"changes"`
	OccurredAt  time.Time           `json:"occurredAt"`
}

// StockChangedEvent cambio de una fila de stock dentro del evento.
type StockChangedEvent struct {
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`
	Delta      int64  `json:"delta"`
	Quantity   int64  `json:"quantity"`
}

// Resultados de validación para métricas.
const (
	OutcomeDone         = "done"
	OutcomeInsufficient = "insufficient"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

type nopMetrics struct{}

func (nopMetrics) TransitionRecorded(entity.OperationType, entity.OperationStatus, entity.OperationStatus) {
}
func (nopMetrics) ValidationObserved(entity.OperationType, string, time.Duration) {}
func (nopMetrics) LedgerEntriesAppended(entity.OperationType, int)                {}

type nopPublisher struct{}

func (nopPublisher) PublishOperationValidated(context.Context, ValidatedEvent) error { return nil }
