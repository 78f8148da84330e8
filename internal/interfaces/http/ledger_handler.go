package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/application/usecase"
)

// LedgerHandler consultas del kardex.
type LedgerHandler struct {
	uc *usecase.LedgerUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// List godoc
// @Summary      Movimientos del kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        productId   query  string  false  "Producto"
// @Param        locationId  query  string  false  "Ubicación"
// @Param        type        query  string  false  "RECEIPT, DELIVERY, TRANSFER, ADJUSTMENT"
// @Param        reference   query  string  false  "Referencia de la operación"
// @Param        dateFrom    query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        dateTo      query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        page        query  int     false  "Página"  default(1)
// @Param        pageSize    query  int     false  "Tamaño"  default(20)
// @Success      200  {object}  dto.LedgerListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger [get]
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	var q dto.LedgerQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar existencias contra el kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        productId  query  string  false  "Limitar a un producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/ledger/reconcile [get]
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.uc.Reconcile(c.UserContext(), c.Query("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
