package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// operationService lo implementa *operation.Manager.
type operationService interface {
	Create(ctx context.Context, actor string, t entity.OperationType, in dto.OperationRequest) (*dto.OperationResponse, error)
	Update(ctx context.Context, actor string, t entity.OperationType, id string, in dto.OperationRequest) (*dto.OperationResponse, error)
	MarkTodo(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error)
	CheckAvailability(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error)
	Validate(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error)
	Cancel(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error)
	Adjust(ctx context.Context, actor string, in dto.QuickAdjustRequest) (*dto.AdjustResponse, error)
	Get(ctx context.Context, t entity.OperationType, id string) (*dto.OperationResponse, error)
	List(ctx context.Context, t entity.OperationType, status, search string, page dto.PageRequest) (*dto.OperationListResponse, error)
}

// slipService lo implementa *operation.SlipUseCase.
type slipService interface {
	DownloadSlip(ctx context.Context, t entity.OperationType, id string) ([]byte, string, error)
}

// OperationHandler expone el ciclo de vida de un tipo de operación. Se registra una
// instancia por tipo (recepciones, entregas, traslados, ajustes).
type OperationHandler struct {
	typ   entity.OperationType
	svc   operationService
	slips slipService
}

// NewOperationHandler construye el handler para el tipo t.
func NewOperationHandler(t entity.OperationType, svc operationService, slips slipService) *OperationHandler {
	return &OperationHandler{typ: t, svc: svc, slips: slips}
}

// Create godoc
// @Summary      Crear operación en borrador
// @Description  Mismo contrato para /receipts, /deliveries, /transfers y /adjustments/draft.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "Cabecera e items"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
// @Router       /api/deliveries [post]
// @Router       /api/transfers [post]
// @Router       /api/adjustments/draft [post]
func (h *OperationHandler) Create(c *fiber.Ctx) error {
	var in dto.OperationRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.svc.Create(c.UserContext(), GetUserID(c), h.typ, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar operación abierta
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID"
// @Param        body  body  dto.OperationRequest  true  "Cabecera e items"
// @Success      200   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
func (h *OperationHandler) Update(c *fiber.Ctx) error {
	var in dto.OperationRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.svc.Update(c.UserContext(), GetUserID(c), h.typ, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener operación
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.OperationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *OperationHandler) Get(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), h.typ, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar operaciones
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "DRAFT, WAITING, READY, DONE, CANCELLED"
// @Param        q         query  string  false  "Buscar por referencia o contacto"
// @Param        page      query  int     false  "Página"  default(1)
// @Param        pageSize  query  int     false  "Tamaño"  default(20)
// @Success      200  {object}  dto.OperationListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/receipts [get]
func (h *OperationHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.UserContext(), h.typ, c.Query("status"), c.Query("q"), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Todo godoc
// @Summary      Marcar por hacer (DRAFT → READY/WAITING)
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.OperationActionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/todo [post]
func (h *OperationHandler) Todo(c *fiber.Ctx) error {
	return h.action(c, h.svc.MarkTodo)
}

// Check godoc
// @Summary      Comprobar disponibilidad
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.OperationActionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/check [post]
func (h *OperationHandler) Check(c *fiber.Ctx) error {
	return h.action(c, h.svc.CheckAvailability)
}

// Validate godoc
// @Summary      Validar operación (aplica stock y kardex)
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.OperationActionResponse
// @Failure      400  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK, ALREADY_FINALIZED"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/validate [post]
func (h *OperationHandler) Validate(c *fiber.Ctx) error {
	return h.action(c, h.svc.Validate)
}

// Cancel godoc
// @Summary      Cancelar operación abierta
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.OperationActionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/cancel [post]
func (h *OperationHandler) Cancel(c *fiber.Ctx) error {
	return h.action(c, h.svc.Cancel)
}

// PDF godoc
// @Summary      Comprobante imprimible
// @Tags         operations
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/pdf [get]
func (h *OperationHandler) PDF(c *fiber.Ctx) error {
	doc, filename, err := h.slips.DownloadSlip(c.UserContext(), h.typ, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(doc)
}

// QuickAdjust godoc
// @Summary      Ajuste inmediato de una ubicación
// @Description  Crea y valida un ajuste de una línea. La diferencia es newQuantity menos la existencia actual.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.QuickAdjustRequest  true  "productId, locationId, newQuantity, reason"
// @Success      201   {object}  dto.AdjustResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *OperationHandler) QuickAdjust(c *fiber.Ctx) error {
	var in dto.QuickAdjustRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.svc.Adjust(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

type actionFunc func(ctx context.Context, actor string, t entity.OperationType, id string) (*dto.OperationActionResponse, error)

func (h *OperationHandler) action(c *fiber.Ctx, fn actionFunc) error {
	out, err := fn(c.UserContext(), GetUserID(c), h.typ, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// register monta las rutas comunes del ciclo de vida en r.
func (h *OperationHandler) register(r fiber.Router) {
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Put("/:id", h.Update)
	r.Get("/:id/pdf", h.PDF)
	r.Post("/:id/todo", h.Todo)
	r.Post("/:id/check", h.Check)
	r.Post("/:id/validate", h.Validate)
	r.Post("/:id/cancel", h.Cancel)
}
