package http_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/cache"
	apphttp "github.com/jhoicas/Bodega-api/internal/interfaces/http"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Rate limit
// ──────────────────────────────────────────────────────────────────────────────

type countingLimiter struct {
	max   int
	count int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, _ string) (cache.Decision, error) {
	if l.err != nil {
		return cache.Decision{}, l.err
	}
	l.count++
	remaining := l.max - l.count
	if remaining < 0 {
		remaining = 0
	}
	return cache.Decision{
		Allowed:   l.count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}, nil
}

func rateLimitedApp(l apphttp.LoginLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/login", apphttp.RateLimit(l, logger.Nop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimit_BloqueaAlSuperarElLimite(t *testing.T) {
	app := rateLimitedApp(&countingLimiter{max: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimit_ErrorDeRedisDejaPasar(t *testing.T) {
	app := rateLimitedApp(&countingLimiter{max: 1, err: errors.New("redis caído")})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores y logging de peticiones
// ──────────────────────────────────────────────────────────────────────────────

func TestErrorHandler_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: x", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{domain.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: %w", domain.ErrConflict, domain.ErrEmailAlreadyExists), http.StatusBadRequest, "CONFLICT"},
		{domain.ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION"},
		{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{fmt.Errorf("bloquear stock: %w", context.DeadlineExceeded), http.StatusRequestTimeout, "REQUEST_TIMEOUT"},
		{errors.New("pgx: conexión cerrada"), http.StatusInternalServerError, "INTERNAL"},
		{fiber.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
		app.Get("/", func(*fiber.Ctx) error { return tc.err })

		resp, body := send(t, app, http.MethodGet, "/", "", "")
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		assert.Equal(t, tc.code, body["code"], tc.err.Error())
		if tc.status == http.StatusInternalServerError {
			assert.NotContains(t, body["message"], "pgx", "no se exponen detalles internos")
		}
	}
}

func TestRequestLogger_RegistraStatusFinal(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestLogger(log))
	app.Get("/boom", func(*fiber.Ctx) error { return domain.ErrForbidden })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, buf.String(), `"status":403`)
	assert.Contains(t, buf.String(), `"path":"/boom"`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Deadline por petición
// ──────────────────────────────────────────────────────────────────────────────

func TestRequestTimeout_CancelaElContextoDeLaPeticion(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestTimeout(20 * time.Millisecond))
	app.Get("/lento", func(c *fiber.Ctx) error {
		// simula una consulta esperando un lock de fila
		<-c.UserContext().Done()
		return c.UserContext().Err()
	})
	app.Get("/rapido", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})

	resp, body := send(t, app, http.MethodGet, "/lento", "", "")
	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.Equal(t, "REQUEST_TIMEOUT", body["code"])

	resp, body = send(t, app, http.MethodGet, "/rapido", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["deadline"])
}

func TestRequestTimeout_CeroNoLimita(t *testing.T) {
	app := fiber.New()
	app.Use(apphttp.RequestTimeout(0))
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})

	resp, body := send(t, app, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["deadline"])
}
