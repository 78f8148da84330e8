package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger dependencia con chequeo de salud (*pgxpool.Pool, cache.HealthCheck).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responde el estado de las dependencias.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler construye el handler. Las entradas nil se omiten.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: map[string]Pinger{}}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	deps := fiber.Map{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status, code = "degraded", fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "dependencies": deps})
}
