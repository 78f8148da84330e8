//go:build integration

package postgres_test

// Pruebas contra PostgreSQL real (testcontainers).
// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/...

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/application/operation"
	"github.com/jhoicas/Bodega-api/internal/application/usecase"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Bodega-api/pkg/config"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

const actor = "00000000-0000-0000-0000-0000000000aa"

// ── Entorno ──────────────────────────────────────────────────────────────────

type env struct {
	pool       *pgxpool.Pool
	manager    *operation.Manager
	products   *usecase.ProductUseCase
	warehouses *usecase.WarehouseUseCase
	ledger     *usecase.LedgerUseCase
	stock      *postgres.StockRepo
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bodega_test"),
		tcpostgres.WithUsername("bodega"),
		tcpostgres.WithPassword("bodega"),
		testcontainers.WithWaitStrategy(tcpostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	// el esquema es idempotente
	require.NoError(t, postgres.Migrate(ctx, pool))

	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)

	return &env{
		pool: pool,
		manager: operation.NewManager(postgres.NewTxRunner(pool), postgres.NewOperationRepository(pool),
			productRepo, locationRepo, logger.Nop()),
		products:   usecase.NewProductUseCase(productRepo, categoryRepo, stockRepo),
		warehouses: usecase.NewWarehouseUseCase(postgres.NewWarehouseRepository(pool), locationRepo, stockRepo),
		ledger:     usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool)),
		stock:      stockRepo,
	}
}

func (e *env) seed(t *testing.T) (productID, locA, locB string) {
	t.Helper()
	ctx := context.Background()

	p, err := e.products.Create(ctx, dto.CreateProductRequest{SKU: "TOR-01", Name: "Tornillo"})
	require.NoError(t, err)
	wh, err := e.warehouses.Create(ctx, dto.CreateWarehouseRequest{Name: "Principal", Code: "WH"})
	require.NoError(t, err)
	a, err := e.warehouses.CreateLocation(ctx, dto.CreateLocationRequest{WarehouseID: wh.ID, Name: "Estante A", Code: "A"})
	require.NoError(t, err)
	b, err := e.warehouses.CreateLocation(ctx, dto.CreateLocationRequest{WarehouseID: wh.ID, Name: "Estante B", Code: "B"})
	require.NoError(t, err)
	return p.ID, a.ID, b.ID
}

func (e *env) quantity(t *testing.T, productID, locationID string) int64 {
	t.Helper()
	q, err := e.stock.GetQuantity(context.Background(), productID, locationID)
	require.NoError(t, err)
	return q
}

func (e *env) createAndValidate(t *testing.T, typ entity.OperationType, in dto.OperationRequest) *dto.OperationActionResponse {
	t.Helper()
	ctx := context.Background()
	op, err := e.manager.Create(ctx, actor, typ, in)
	require.NoError(t, err)
	res, err := e.manager.Validate(ctx, actor, typ, op.ID)
	require.NoError(t, err)
	return res
}

// ── Ciclo completo ───────────────────────────────────────────────────────────

func TestIntegracion_CicloDeStockYKardex(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, locB := e.seed(t)

	res := e.createAndValidate(t, entity.OperationReceipt, dto.OperationRequest{
		Supplier:   "Ferretería Central",
		LocationID: locA,
		Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 10}},
	})
	assert.Equal(t, "DONE", res.Operation.Status)
	assert.Equal(t, "WH/IN/00001", res.Operation.Reference)
	assert.Equal(t, int64(10), e.quantity(t, productID, locA))

	e.createAndValidate(t, entity.OperationTransfer, dto.OperationRequest{
		FromLocationID: locA,
		ToLocationID:   locB,
		Items:          []dto.OperationItemRequest{{ProductID: productID, Quantity: 4}},
	})
	assert.Equal(t, int64(6), e.quantity(t, productID, locA))
	assert.Equal(t, int64(4), e.quantity(t, productID, locB))

	newQty := int64(1)
	adj, err := e.manager.Adjust(ctx, actor, dto.QuickAdjustRequest{ProductID: productID, LocationID: locB, NewQuantity: &newQty, Reason: "conteo"})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), adj.Difference)
	assert.Equal(t, int64(1), e.quantity(t, productID, locB))

	stock, err := e.products.Stock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock.Total)

	rec, err := e.ledger.Reconcile(ctx, "")
	require.NoError(t, err)
	assert.True(t, rec.Consistent, "el stock coincide con la suma del kardex")

	list, err := e.ledger.List(ctx, dto.LedgerQuery{ProductID: productID})
	require.NoError(t, err)
	assert.NotEmpty(t, list.Items)

	// con kardex el producto ya no se puede borrar
	err = e.products.Delete(ctx, productID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestIntegracion_EntregaSinStockNoModificaNada(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, _ := e.seed(t)

	op, err := e.manager.Create(ctx, actor, entity.OperationDelivery, dto.OperationRequest{
		Customer:   "Cliente",
		LocationID: locA,
		Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = e.manager.Validate(ctx, actor, entity.OperationDelivery, op.ID)
	var short *movement.InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortages, 1)
	assert.Equal(t, int64(2), short.Shortages[0].Required)
	assert.Equal(t, int64(0), e.quantity(t, productID, locA))

	got, err := e.manager.Get(ctx, entity.OperationDelivery, op.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", got.Status, "la operación conserva su estado")
}

// Validaciones concurrentes sobre la misma ubicación: nunca se vende más de lo que hay.
func TestIntegracion_ValidacionesConcurrentesNoDejanStockNegativo(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, _ := e.seed(t)

	e.createAndValidate(t, entity.OperationReceipt, dto.OperationRequest{
		LocationID: locA,
		Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 10}},
	})

	const deliveries = 5
	ids := make([]string, 0, deliveries)
	for i := 0; i < deliveries; i++ {
		op, err := e.manager.Create(ctx, actor, entity.OperationDelivery, dto.OperationRequest{
			LocationID: locA,
			Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 3}},
		})
		require.NoError(t, err)
		ids = append(ids, op.ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
		other     []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := e.manager.Validate(ctx, actor, entity.OperationDelivery, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				other = append(other, err)
			}
		}(id)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 3, ok)
	assert.Equal(t, 2, short)
	assert.Equal(t, int64(1), e.quantity(t, productID, locA))

	rec, err := e.ledger.Reconcile(ctx, productID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

// Un plan aplicado fuera del Manager también es todo o nada.
func TestIntegracion_ApplyPlanEsAtomico(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, locB := e.seed(t)
	runner := postgres.NewTxRunner(e.pool)
	now := time.Now()

	entry := func(loc string, change int64) entity.LedgerEntry {
		return entity.LedgerEntry{ProductID: productID, LocationID: loc, Change: change,
			Type: entity.OperationAdjustment, CreatedBy: actor, CreatedAt: now}
	}

	// la segunda fila quedaría negativa: no se escribe ninguna
	err := runner.ApplyPlan(ctx, &movement.Plan{
		Type: entity.OperationAdjustment,
		Changes: []movement.StockChange{
			{Key: movement.StockKey{ProductID: productID, LocationID: locA}, Delta: 2},
			{Key: movement.StockKey{ProductID: productID, LocationID: locB}, Delta: -1},
		},
		Entries: []entity.LedgerEntry{entry(locA, 2), entry(locB, -1)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(0), e.quantity(t, productID, locA))

	list, err := e.ledger.List(ctx, dto.LedgerQuery{ProductID: productID})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	require.NoError(t, runner.ApplyPlan(ctx, &movement.Plan{
		Type:    entity.OperationAdjustment,
		Changes: []movement.StockChange{{Key: movement.StockKey{ProductID: productID, LocationID: locA}, Delta: 2}},
		Entries: []entity.LedgerEntry{entry(locA, 2)},
	}))
	assert.Equal(t, int64(2), e.quantity(t, productID, locA))

	rec, err := e.ledger.Reconcile(ctx, productID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

// Una validación que vence esperando un lock de fila no deja rastro: stock, kardex y estado intactos.
func TestIntegracion_ValidacionVencidaSeRevierte(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, _ := e.seed(t)

	e.createAndValidate(t, entity.OperationReceipt, dto.OperationRequest{
		LocationID: locA,
		Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 10}},
	})
	op, err := e.manager.Create(ctx, actor, entity.OperationDelivery, dto.OperationRequest{
		LocationID: locA,
		Items:      []dto.OperationItemRequest{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	// otra transacción retiene la fila de stock
	blocker, err := e.pool.Begin(ctx)
	require.NoError(t, err)
	_, err = blocker.Exec(ctx, `SELECT quantity FROM stock WHERE product_id = $1 AND location_id = $2 FOR UPDATE`, productID, locA)
	require.NoError(t, err)

	reqCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = e.manager.Validate(reqCtx, actor, entity.OperationDelivery, op.ID)
	require.Error(t, err)
	require.NoError(t, blocker.Rollback(ctx))

	assert.Equal(t, int64(10), e.quantity(t, productID, locA))
	got, err := e.manager.Get(ctx, entity.OperationDelivery, op.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", got.Status)
	list, err := e.ledger.List(ctx, dto.LedgerQuery{ProductID: productID})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1, "solo la recepción")

	// liberado el lock, la misma operación valida normalmente
	_, err = e.manager.Validate(ctx, actor, entity.OperationDelivery, op.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.quantity(t, productID, locA))
}

// Recepciones concurrentes del mismo producto en ubicaciones distintas: el costo promedio
// considera ambas, sin importar el orden de confirmación.
func TestIntegracion_RecepcionesConcurrentesNoPierdenCosto(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	productID, locA, locB := e.seed(t)

	costA, costB := decimal.NewFromInt(100), decimal.NewFromInt(200)
	ids := make([]string, 0, 2)
	for _, in := range []dto.OperationRequest{
		{LocationID: locA, Items: []dto.OperationItemRequest{{ProductID: productID, Quantity: 10, UnitCost: &costA}}},
		{LocationID: locB, Items: []dto.OperationItemRequest{{ProductID: productID, Quantity: 10, UnitCost: &costB}}},
	} {
		op, err := e.manager.Create(ctx, actor, entity.OperationReceipt, in)
		require.NoError(t, err)
		ids = append(ids, op.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.manager.Validate(ctx, actor, entity.OperationReceipt, id)
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(p.Cost), "(10*100 + 10*200) / 20 = 150, got %s", p.Cost)
}
