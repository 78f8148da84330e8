package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
	apphttp "github.com/jhoicas/Bodega-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type call struct {
	method string
	actor  string
	typ    entity.OperationType
	id     string
}

type fakeOperations struct {
	calls      []call
	validateFn func(id string) error
	lastCreate dto.OperationRequest
	lastAdjust dto.QuickAdjustRequest
}

func (f *fakeOperations) record(method, actor string, t entity.OperationType, id string) {
	f.calls = append(f.calls, call{method: method, actor: actor, typ: t, id: id})
}

func opResponse(t entity.OperationType, id string, st entity.OperationStatus) *dto.OperationResponse {
	return &dto.OperationResponse{ID: id, Type: string(t), Reference: "WH/OUT/00001", Status: string(st)}
}

func (f *fakeOperations) Create(_ context.Context, actor string, t entity.OperationType, in dto.OperationRequest) (*dto.OperationResponse, error) {
	f.record("create", actor, t, "")
	f.lastCreate = in
	if t == entity.OperationTransfer && in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrInvalidLocationPair
	}
	return opResponse(t, "op-1", entity.StatusDraft), nil
}

func (f *fakeOperations) Update(_ context.Context, actor string, t entity.OperationType, id string, _ dto.OperationRequest) (*dto.OperationResponse, error) {
	f.record("update", actor, t, id)
	return opResponse(t, id, entity.StatusDraft), nil
}

func (f *fakeOperations) MarkTodo(_ context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	f.record("todo", actor, t, id)
	return &dto.OperationActionResponse{Message: "ok", Operation: opResponse(t, id, entity.StatusReady)}, nil
}

func (f *fakeOperations) CheckAvailability(_ context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	f.record("check", actor, t, id)
	return &dto.OperationActionResponse{Message: "ok", Operation: opResponse(t, id, entity.StatusReady)}, nil
}

func (f *fakeOperations) Validate(_ context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	f.record("validate", actor, t, id)
	if f.validateFn != nil {
		if err := f.validateFn(id); err != nil {
			return nil, err
		}
	}
	return &dto.OperationActionResponse{Message: "Delivery validated successfully", Operation: opResponse(t, id, entity.StatusDone)}, nil
}

func (f *fakeOperations) Cancel(_ context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error) {
	f.record("cancel", actor, t, id)
	return nil, domain.ErrAlreadyFinalized
}

func (f *fakeOperations) Adjust(_ context.Context, actor string, in dto.QuickAdjustRequest) (*dto.AdjustResponse, error) {
	f.record("adjust", actor, entity.OperationAdjustment, "")
	f.lastAdjust = in
	return &dto.AdjustResponse{Message: "Stock adjusted successfully", Difference: -3}, nil
}

func (f *fakeOperations) Get(_ context.Context, t entity.OperationType, id string) (*dto.OperationResponse, error) {
	f.record("get", "", t, id)
	if id == "missing" {
		return nil, fmt.Errorf("%w: operación %s", domain.ErrNotFound, id)
	}
	return opResponse(t, id, entity.StatusDraft), nil
}

func (f *fakeOperations) List(_ context.Context, t entity.OperationType, status, _ string, page dto.PageRequest) (*dto.OperationListResponse, error) {
	f.record("list:"+status, "", t, "")
	return &dto.OperationListResponse{Items: []dto.OperationResponse{}, Page: dto.NewPageResponse(page, 0)}, nil
}

type fakeSlips struct{}

func (fakeSlips) DownloadSlip(_ context.Context, _ entity.OperationType, id string) ([]byte, string, error) {
	return []byte("%PDF-1.3 " + id), "wh_out_00001.pdf", nil
}

func newOperationsApp(ops *fakeOperations) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		Operations:    ops,
		Slips:         fakeSlips{},
		Authenticator: tokenAuthenticator{},
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body, role string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

// ──────────────────────────────────────────────────────────────────────────────
// Rutas de operaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestOperaciones_CadaRutaUsaSuTipo(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	cases := map[string]entity.OperationType{
		"/api/receipts/r1":    entity.OperationReceipt,
		"/api/deliveries/d1":  entity.OperationDelivery,
		"/api/transfers/t1":   entity.OperationTransfer,
		"/api/adjustments/a1": entity.OperationAdjustment,
	}
	for path, typ := range cases {
		resp, body := send(t, app, http.MethodGet, path, "", "STAFF")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, string(typ), body["type"], path)
	}
}

func TestOperaciones_CrearUsaUsuarioDelToken(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodPost, "/api/deliveries",
		`{"customer":"Cliente","fromLocationId":"loc-a","items":[{"productId":"p1","quantity":5}]}`, "STAFF")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "DRAFT", body["status"])

	require.Len(t, ops.calls, 1)
	assert.Equal(t, testUserID, ops.calls[0].actor)
	assert.Equal(t, "Cliente", ops.lastCreate.ContactName())
	assert.Equal(t, int64(5), ops.lastCreate.Items[0].Quantity)
}

func TestOperaciones_SinItemsEsValidacion(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodPost, "/api/receipts", `{"supplier":"X","items":[]}`, "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Empty(t, ops.calls, "no debe llegar al caso de uso")
}

func TestOperaciones_ItemSinProductoIndicaCampo(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodPost, "/api/receipts", `{"items":[{"quantity":2}]}`, "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "required", details["items[0].productId"])
}

func TestOperaciones_TrasladoMismaUbicacion(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodPost, "/api/transfers",
		`{"fromLocationId":"loc-a","toLocationId":"loc-a","items":[{"productId":"p1","quantity":1}]}`, "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_LOCATION_PAIR", body["code"])
}

func TestOperaciones_ValidarSinStockDevuelveFaltantes(t *testing.T) {
	ops := &fakeOperations{validateFn: func(string) error {
		return &movement.InsufficientStockError{Shortages: []movement.Shortage{
			{ProductID: "prod-p", LocationID: "loc-a", Required: 15, Available: 10},
		}}
	}}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodPost, "/api/deliveries/d1/validate", "", "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, "Insufficient stock for product prod-p at location loc-a", body["message"])

	details := body["details"].(map[string]interface{})
	shortages := details["shortages"].([]interface{})
	require.Len(t, shortages, 1)
	assert.Equal(t, float64(10), shortages[0].(map[string]interface{})["available"])
}

func TestOperaciones_ValidarOK(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodPost, "/api/deliveries/d1/validate", "", "STAFF")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Delivery validated successfully", body["message"])
	assert.Equal(t, "validate", ops.calls[0].method)
	assert.Equal(t, "d1", ops.calls[0].id)
}

func TestOperaciones_CancelarFinalizada(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodPost, "/api/receipts/r1/cancel", "", "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ALREADY_FINALIZED", body["code"])
}

func TestOperaciones_NoEncontrada(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodGet, "/api/receipts/missing", "", "STAFF")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestOperaciones_SinTokenEs401(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodPost, "/api/receipts", `{"items":[{"productId":"p","quantity":1}]}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestOperaciones_ListaPasaFiltroDeEstado(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodGet, "/api/transfers?status=READY&page=2&pageSize=5", "", "STAFF")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "list:READY", ops.calls[0].method)
	page := body["page"].(map[string]interface{})
	assert.Equal(t, float64(2), page["page"])
	assert.Equal(t, float64(5), page["pageSize"])
}

func TestAjusteRapido(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, body := send(t, app, http.MethodPost, "/api/adjustments",
		`{"productId":"p1","locationId":"loc-a","newQuantity":0,"reason":"rotura"}`, "STAFF")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, float64(-3), body["difference"])
	require.NotNil(t, ops.lastAdjust.NewQuantity)
	assert.Equal(t, int64(0), *ops.lastAdjust.NewQuantity)
}

func TestAjusteRapido_SinCantidadEsValidacion(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	resp, body := send(t, app, http.MethodPost, "/api/adjustments", `{"productId":"p1","locationId":"loc-a"}`, "STAFF")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestAjusteBorrador_UsaTipoAjuste(t *testing.T) {
	ops := &fakeOperations{}
	app := newOperationsApp(ops)

	resp, _ := send(t, app, http.MethodPost, "/api/adjustments/draft",
		`{"locationId":"loc-a","items":[{"productId":"p1","quantity":4}]}`, "STAFF")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.OperationAdjustment, ops.calls[0].typ)
}

func TestOperaciones_PDF(t *testing.T) {
	app := newOperationsApp(&fakeOperations{})

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/d1/pdf", nil)
	req.Header.Set("Authorization", tokenForRole(t, "STAFF"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "wh_out_00001.pdf")
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}
