package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/cache"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// RequestTimeout fija un deadline en c.UserContext(). Las consultas pgx lo respetan: una
// validación bloqueada en FOR UPDATE se cancela y su transacción se revierte. d <= 0 no limita.
func RequestTimeout(d time.Duration) fiber.Handler {
	next := func(c *fiber.Ctx) error { return c.Next() }
	if d <= 0 {
		return next
	}
	return timeout.NewWithContext(next, d)
}

// RequestLogger registra cada petición con método, ruta, status, latencia y request_id.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// el ErrorHandler global escribe la respuesta; se registra el status final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}
		status := c.Response().StatusCode()
		ev := log.WithContext(c.UserContext()).Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.WithContext(c.UserContext()).Error()
		}
		ev.
			Interface("request_id", c.Locals(requestid.ConfigDefault.ContextKey)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("request")
		return nil
	}
}

// LoginLimiter lo implementa *cache.SlidingWindowLimiter.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (cache.Decision, error)
}

// RateLimit limita intentos por IP. Si Redis falla, la petición pasa y se registra el error.
func RateLimit(limiter LoginLimiter, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		d, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.Error().Err(err).Str("ip", c.IP()).Msg("rate limiter no disponible")
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			log.Warn().Str("ip", c.IP()).Int("limit", d.Limit).Msg("límite de intentos superado")
			retry := time.Until(d.ResetAt).Round(time.Second)
			if retry < 0 {
				retry = 0
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: domain.ErrRateLimited.Error(),
			})
		}
		return c.Next()
	}
}

// Tracing abre un span de servidor por petición y lo deja en c.UserContext()
// para que los casos de uso y el logger lo hereden.
func Tracing(service string) fiber.Handler {
	tracer := otel.Tracer("bodega/http")
	return func(c *fiber.Ctx) error {
		carrier := propagation.MapCarrier{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			carrier[strings.ToLower(string(k))] = string(v)
		})
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("service.name", service),
			),
		)
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", c.Route().Path),
			attribute.Int("http.status_code", status),
		)
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}
