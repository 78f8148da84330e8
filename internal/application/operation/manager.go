// Package operation contiene el ciclo de vida de recepciones, entregas, traslados y ajustes.
// Es el único camino que escribe Stock y kardex.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// Manager máquina de estados genérica parametrizada por entity.OperationType.
type Manager struct {
	tx        TxRunner
	ops       repository.OperationRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	log       *logger.Logger
	metrics   Metrics
	publisher EventPublisher
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configura dependencias opcionales del Manager.
type Option func(*Manager)

// WithMetrics registra contadores del ciclo de vida.
func WithMetrics(m Metrics) Option {
	return func(mg *Manager) {
		if m != nil {
			mg.metrics = m
		}
	}
}

// WithPublisher publica eventos de validación.
func WithPublisher(p EventPublisher) Option {
	return func(mg *Manager) {
		if p != nil {
			mg.publisher = p
		}
	}
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(mg *Manager) { mg.now = now }
}

// NewManager construye el caso de uso. ops, products y locations se usan para lecturas fuera de transacción.
func NewManager(
	tx TxRunner,
	ops repository.OperationRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	log *logger.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		tx:        tx,
		ops:       ops,
		products:  products,
		locations: locations,
		log:       log,
		metrics:   nopMetrics{},
		publisher: nopPublisher{},
		tracer:    otel.Tracer("bodega/operation"),
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create registra la operación en DRAFT. Los traslados con origen igual a destino se rechazan
// antes de persistir nada.
func (m *Manager) Create(ctx context.Context, actor string, t entity.OperationType, in dto.OperationRequest) (*dto.OperationResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.Create", trace.WithAttributes(attribute.String("operation.type", string(t))))
	defer span.End()

	now := m.now()
	op := buildOperation(t, in)
	op.ID = uuid.New().String()
	op.Status = entity.StatusDraft
	op.CreatedBy = actor
	op.CreatedAt = now
	op.UpdatedAt = now
	assignLineIDs(op)

	if err := m.checkReferences(ctx, op); err != nil {
		return nil, spanError(span, err)
	}

	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, _ repository.StockRepository, _ repository.ProductRepository) error {
		if op.Reference == "" {
			seq, err := opRepo.NextSequence(ctx, t)
			if err != nil {
				return err
			}
			op.Reference = fmt.Sprintf("%s%05d", t.ReferencePrefix(), seq)
		}
		return opRepo.Create(ctx, op)
	})
	if err != nil {
		return nil, spanError(span, err)
	}

	m.metrics.TransitionRecorded(t, "", entity.StatusDraft)
	m.log.Info().
		Str("operation_id", op.ID).
		Str("type", string(t)).
		Str("reference", op.Reference).
		Str("actor", actor).
		Msg("operación creada")
	return toOperationResponse(op), nil
}

// Update reescribe cabecera y líneas de una operación abierta.
func (m *Manager) Update(ctx context.Context, actor string, t entity.OperationType, id string, in dto.OperationRequest) (*dto.OperationResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.Update", trace.WithAttributes(attribute.String("operation.id", id)))
	defer span.End()

	draft := buildOperation(t, in)
	draft.ID = id
	if err := m.checkReferences(ctx, draft); err != nil {
		return nil, spanError(span, err)
	}

	var out *entity.Operation
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, stockRepo repository.StockRepository, _ repository.ProductRepository) error {
		op, err := loadTyped(ctx, opRepo, t, id, true)
		if err != nil {
			return err
		}
		if op.Status.IsFinal() {
			return domain.ErrAlreadyFinalized
		}
		if draft.Reference != "" {
			op.Reference = draft.Reference
		}
		op.Contact = draft.Contact
		op.SourceLocationID = draft.SourceLocationID
		op.DestLocationID = draft.DestLocationID
		op.ScheduledDate = draft.ScheduledDate
		op.Responsible = draft.Responsible
		op.Note = draft.Note
		op.Lines = draft.Lines
		op.UpdatedAt = m.now()
		assignLineIDs(op)

		// Una operación ya marcada se re-evalúa con las líneas nuevas.
		if t.RequiresAvailability() && (op.Status == entity.StatusReady || op.Status == entity.StatusWaiting) {
			snap, err := stockRepo.Snapshot(ctx, movement.Keys(op))
			if err != nil {
				return err
			}
			op.Status = statusForAvailability(movement.CheckAvailability(op, snap))
		}
		if err := opRepo.Update(ctx, op); err != nil {
			return err
		}
		out = op
		return nil
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	m.log.Info().Str("operation_id", id).Str("actor", actor).Msg("operación actualizada")
	return toOperationResponse(out), nil
}

// MarkTodo DRAFT → READY, o WAITING para entregas/traslados sin existencia suficiente.
func (m *Manager) MarkTodo(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.MarkTodo", trace.WithAttributes(attribute.String("operation.id", id)))
	defer span.End()

	var (
		op    *entity.Operation
		short []movement.Shortage
	)
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, stockRepo repository.StockRepository, _ repository.ProductRepository) error {
		var err error
		op, err = loadTyped(ctx, opRepo, t, id, true)
		if err != nil {
			return err
		}
		if op.Status.IsFinal() {
			return domain.ErrAlreadyFinalized
		}
		if op.Status != entity.StatusDraft {
			return fmt.Errorf("%w: %s → READY", domain.ErrInvalidTransition, op.Status)
		}
		if err := movement.ValidateOperation(op); err != nil {
			return err
		}
		next := entity.StatusReady
		if t.RequiresAvailability() {
			snap, err := stockRepo.Snapshot(ctx, movement.Keys(op))
			if err != nil {
				return err
			}
			short = movement.CheckAvailability(op, snap)
			next = statusForAvailability(short)
		}
		op.Status = next
		op.UpdatedAt = m.now()
		return opRepo.UpdateStatus(ctx, op)
	})
	if err != nil {
		return nil, spanError(span, err)
	}

	m.transition(op, entity.StatusDraft, actor)
	msg := "Operation marked as ready"
	if op.Status == entity.StatusWaiting {
		msg = "Operation is waiting for stock"
	}
	return &dto.OperationActionResponse{Message: msg, Operation: toOperationResponse(op), Shortages: toShortages(short)}, nil
}

// CheckAvailability re-evalúa READY/WAITING de una entrega o traslado abierto.
func (m *Manager) CheckAvailability(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.CheckAvailability", trace.WithAttributes(attribute.String("operation.id", id)))
	defer span.End()

	var (
		op    *entity.Operation
		prev  entity.OperationStatus
		short []movement.Shortage
	)
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, stockRepo repository.StockRepository, _ repository.ProductRepository) error {
		var err error
		op, err = loadTyped(ctx, opRepo, t, id, true)
		if err != nil {
			return err
		}
		if op.Status.IsFinal() {
			return domain.ErrAlreadyFinalized
		}
		if op.Status == entity.StatusDraft {
			return fmt.Errorf("%w: la operación sigue en borrador", domain.ErrInvalidTransition)
		}
		prev = op.Status
		snap, err := stockRepo.Snapshot(ctx, movement.Keys(op))
		if err != nil {
			return err
		}
		short = movement.CheckAvailability(op, snap)
		op.Status = statusForAvailability(short)
		if op.Status == prev {
			return nil
		}
		op.UpdatedAt = m.now()
		return opRepo.UpdateStatus(ctx, op)
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	if op.Status != prev {
		m.transition(op, prev, actor)
	}
	msg := "Stock is available"
	if len(short) > 0 {
		msg = "Stock is not available"
	}
	return &dto.OperationActionResponse{Message: msg, Operation: toOperationResponse(op), Shortages: toShortages(short)}, nil
}

// Validate aplica el plan de movimientos y pasa la operación a DONE en una sola transacción.
// Si falta stock la transacción se revierte y la operación conserva su estado.
func (m *Manager) Validate(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.Validate", trace.WithAttributes(
		attribute.String("operation.id", id),
		attribute.String("operation.type", string(t)),
	))
	defer span.End()
	start := m.now()

	var (
		op   *entity.Operation
		prev entity.OperationStatus
		plan *movement.Plan
	)
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, stockRepo repository.StockRepository, productRepo repository.ProductRepository) error {
		var err error
		op, err = loadTyped(ctx, opRepo, t, id, true)
		if err != nil {
			return err
		}
		if op.Status.IsFinal() {
			return domain.ErrAlreadyFinalized
		}
		prev = op.Status
		plan, err = m.applyInTx(ctx, opRepo, stockRepo, productRepo, op, actor)
		return err
	})
	m.metrics.ValidationObserved(t, outcomeOf(err), m.now().Sub(start))
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			m.log.Warn().Str("operation_id", id).Str("type", string(t)).Err(err).Msg("validación rechazada por stock insuficiente")
		}
		return nil, spanError(span, err)
	}

	m.afterValidate(ctx, op, prev, plan, actor)
	return &dto.OperationActionResponse{Message: validatedMessage(t), Operation: toOperationResponse(op)}, nil
}

// Cancel pasa a CANCELLED una operación abierta. No toca el stock.
func (m *Manager) Cancel(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.Cancel", trace.WithAttributes(attribute.String("operation.id", id)))
	defer span.End()

	var (
		op   *entity.Operation
		prev entity.OperationStatus
	)
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, _ repository.StockRepository, _ repository.ProductRepository) error {
		var err error
		op, err = loadTyped(ctx, opRepo, t, id, true)
		if err != nil {
			return err
		}
		if op.Status.IsFinal() {
			return domain.ErrAlreadyFinalized
		}
		prev = op.Status
		op.Status = entity.StatusCancelled
		op.UpdatedAt = m.now()
		return opRepo.UpdateStatus(ctx, op)
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	m.transition(op, prev, actor)
	return &dto.OperationActionResponse{Message: "Operation cancelled", Operation: toOperationResponse(op)}, nil
}

// Adjust ajuste inmediato: crea el ajuste y lo valida en la misma transacción.
// difference = cantidad contada − cantidad teórica leída con la fila bloqueada.
func (m *Manager) Adjust(ctx context.Context, actor string, in dto.QuickAdjustRequest) (*dto.AdjustResponse, error) {
	ctx, span := m.tracer.Start(ctx, "operation.Adjust", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("location.id", in.LocationID),
	))
	defer span.End()

	if in.NewQuantity == nil || *in.NewQuantity < 0 {
		return nil, spanError(span, fmt.Errorf("%w: newQuantity debe ser un entero no negativo", domain.ErrInvalidInput))
	}
	now := m.now()
	op := &entity.Operation{
		ID:             uuid.New().String(),
		Type:           entity.OperationAdjustment,
		DestLocationID: in.LocationID,
		Status:         entity.StatusDraft,
		Note:           in.Reason,
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
		Lines:          []entity.OperationLine{{ProductID: in.ProductID, Quantity: *in.NewQuantity}},
	}
	assignLineIDs(op)
	if err := m.checkReferences(ctx, op); err != nil {
		return nil, spanError(span, err)
	}

	var plan *movement.Plan
	err := m.tx.Run(ctx, func(opRepo repository.OperationRepository, stockRepo repository.StockRepository, productRepo repository.ProductRepository) error {
		seq, err := opRepo.NextSequence(ctx, entity.OperationAdjustment)
		if err != nil {
			return err
		}
		op.Reference = fmt.Sprintf("%s%05d", entity.OperationAdjustment.ReferencePrefix(), seq)
		if err := opRepo.Create(ctx, op); err != nil {
			return err
		}
		plan, err = m.applyInTx(ctx, opRepo, stockRepo, productRepo, op, actor)
		return err
	})
	m.metrics.ValidationObserved(entity.OperationAdjustment, outcomeOf(err), m.now().Sub(now))
	if err != nil {
		return nil, spanError(span, err)
	}

	m.afterValidate(ctx, op, entity.StatusDraft, plan, actor)
	var diff int64
	if th := op.Lines[0].Theoretical; th != nil {
		diff = *in.NewQuantity - *th
	}
	return &dto.AdjustResponse{
		Message:    "Stock adjusted successfully",
		Difference: diff,
		Adjustment: toOperationResponse(op),
	}, nil
}

// Get devuelve una operación del tipo indicado.
func (m *Manager) Get(ctx context.Context, t entity.OperationType, id string) (*dto.OperationResponse, error) {
	op, err := loadTyped(ctx, m.ops, t, id, false)
	if err != nil {
		return nil, err
	}
	return toOperationResponse(op), nil
}

// GetEntity como Get pero devuelve la entidad (PDF).
func (m *Manager) GetEntity(ctx context.Context, t entity.OperationType, id string) (*entity.Operation, error) {
	return loadTyped(ctx, m.ops, t, id, false)
}

// List lista operaciones de un tipo con filtros opcionales de estado y búsqueda.
func (m *Manager) List(ctx context.Context, t entity.OperationType, status, search string, page dto.PageRequest) (*dto.OperationListResponse, error) {
	page.DefaultPage()
	st := entity.OperationStatus(status)
	switch st {
	case "", entity.StatusDraft, entity.StatusWaiting, entity.StatusReady, entity.StatusDone, entity.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, status)
	}
	list, total, err := m.ops.List(ctx, entity.OperationFilter{
		Type:   t,
		Status: st,
		Search: search,
		Limit:  page.Limit(),
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.OperationResponse, 0, len(list))
	for _, op := range list {
		items = append(items, *toOperationResponse(op))
	}
	return &dto.OperationListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// applyInTx bloquea filas, planifica contra el snapshot bloqueado, escribe stock y kardex,
// recalcula costos y marca DONE. Debe correr dentro de TxRunner.Run.
func (m *Manager) applyInTx(
	ctx context.Context,
	opRepo repository.OperationRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	op *entity.Operation,
	actor string,
) (*movement.Plan, error) {
	now := m.now()
	snap, err := stockRepo.LockForUpdate(ctx, movement.Keys(op))
	if err != nil {
		return nil, err
	}
	plan, err := movement.BuildPlan(op, snap, actor, now)
	if err != nil {
		return nil, err
	}

	costs, err := m.costUpdates(ctx, stockRepo, productRepo, op)
	if err != nil {
		return nil, err
	}
	if err := stockRepo.ApplyPlan(ctx, plan); err != nil {
		return nil, err
	}
	for productID, cost := range costs {
		if err := productRepo.UpdateCost(ctx, productID, cost); err != nil {
			return nil, err
		}
	}

	for i, th := range plan.Theoretical {
		v := th
		op.Lines[i].Theoretical = &v
	}
	op.Status = entity.StatusDone
	op.ValidatedAt = &now
	op.UpdatedAt = now
	if err := opRepo.UpdateStatus(ctx, op); err != nil {
		return nil, err
	}
	return plan, nil
}

// costUpdates bloquea los productos recibidos con costo (en orden de ID) y recalcula el
// promedio ponderado. La existencia se lee después del lock para ver recepciones ya confirmadas.
func (m *Manager) costUpdates(ctx context.Context, stockRepo repository.StockRepository, productRepo repository.ProductRepository, op *entity.Operation) (map[string]decimal.Decimal, error) {
	if op.Type != entity.OperationReceipt {
		return nil, nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, l := range op.Lines {
		if l.UnitCost == nil || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	onHand := make(map[string]int64, len(ids))
	costs := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		total, err := stockRepo.TotalOnHand(ctx, id)
		if err != nil {
			return nil, err
		}
		onHand[id] = total
		costs[id] = p.Cost
	}
	return movement.CostUpdates(op, onHand, costs), nil
}

func (m *Manager) afterValidate(ctx context.Context, op *entity.Operation, prev entity.OperationStatus, plan *movement.Plan, actor string) {
	m.transition(op, prev, actor)
	m.metrics.LedgerEntriesAppended(op.Type, len(plan.Entries))

	ev := ValidatedEvent{
		EventID:     uuid.New().String(),
		OperationID: op.ID,
		Type:        string(op.Type),
		Reference:   op.Reference,
		Actor:       actor,
		OccurredAt:  m.now(),
	}
	for _, c := range plan.Changes {
		ev.Changes = append(ev.Changes, StockChangedEvent{
			ProductID:  c.Key.ProductID,
			LocationID: c.Key.LocationID,
			Delta:      c.Delta,
			Quantity:   c.Quantity,
		})
	}
	if err := m.publisher.PublishOperationValidated(ctx, ev); err != nil {
		m.log.WithContext(ctx).Error().Err(err).Str("operation_id", op.ID).Msg("publicar evento de validación")
	}
}

func (m *Manager) transition(op *entity.Operation, from entity.OperationStatus, actor string) {
	m.metrics.TransitionRecorded(op.Type, from, op.Status)
	m.log.Info().
		Str("operation_id", op.ID).
		Str("type", string(op.Type)).
		Str("from", string(from)).
		Str("to", string(op.Status)).
		Str("actor", actor).
		Msg("transición de operación")
}

// checkReferences verifica que existan las ubicaciones y productos referenciados.
func (m *Manager) checkReferences(ctx context.Context, op *entity.Operation) error {
	if err := movement.ValidateOperation(op); err != nil {
		return err
	}
	locs := map[string]struct{}{}
	for _, id := range []string{op.SourceLocationID, op.DestLocationID} {
		if id != "" {
			locs[id] = struct{}{}
		}
	}
	prods := map[string]struct{}{}
	for _, l := range op.Lines {
		prods[l.ProductID] = struct{}{}
		if l.LocationID != "" {
			locs[l.LocationID] = struct{}{}
		}
	}
	for id := range locs {
		loc, err := m.locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if loc == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
	}
	for id := range prods {
		p, err := m.products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
	}
	return nil
}

func loadTyped(ctx context.Context, repo repository.OperationRepository, t entity.OperationType, id string, lock bool) (*entity.Operation, error) {
	var (
		op  *entity.Operation
		err error
	)
	if lock {
		op, err = repo.GetForUpdate(ctx, id)
	} else {
		op, err = repo.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if op == nil || op.Type != t {
		return nil, fmt.Errorf("%w: operación %s", domain.ErrNotFound, id)
	}
	return op, nil
}

func statusForAvailability(short []movement.Shortage) entity.OperationStatus {
	if len(short) > 0 {
		return entity.StatusWaiting
	}
	return entity.StatusReady
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeDone
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficient
	case errors.Is(err, domain.ErrAlreadyFinalized), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidLocationPair):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func validatedMessage(t entity.OperationType) string {
	switch t {
	case entity.OperationReceipt:
		return "Receipt validated successfully"
	case entity.OperationDelivery:
		return "Delivery validated successfully"
	case entity.OperationTransfer:
		return "Transfer validated successfully"
	default:
		return "Adjustment validated successfully"
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
