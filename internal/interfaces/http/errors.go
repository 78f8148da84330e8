package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
)

// writeError traduce errores de dominio a la respuesta HTTP. Los errores no reconocidos
// se registran completos y al cliente solo le llega un mensaje genérico.
func writeError(c *fiber.Ctx, err error) error {
	var short *movement.InsufficientStockError
	if errors.As(err, &short) {
		details := make([]dto.ShortageResponse, 0, len(short.Shortages))
		for _, s := range short.Shortages {
			details = append(details, dto.ShortageResponse{
				ProductID:  s.ProductID,
				LocationID: s.LocationID,
				Required:   s.Required,
				Available:  s.Available,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: short.Error(),
			Details: fiber.Map{"shortages": details},
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidLocationPair):
		status, code = fiber.StatusBadRequest, "INVALID_LOCATION_PAIR"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code = fiber.StatusBadRequest, "CONFLICT"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusBadRequest, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrAlreadyFinalized):
		status, code = fiber.StatusBadRequest, "ALREADY_FINALIZED"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = fiber.StatusBadRequest, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, code = fiber.StatusBadRequest, "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrRateLimited):
		status, code = fiber.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = fiber.StatusRequestTimeout, "REQUEST_TIMEOUT"
	}

	if status == fiber.StatusInternalServerError {
		log.Error().
			Err(err).
			Interface("request_id", c.Locals(requestid.ConfigDefault.ContextKey)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error no controlado")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno del servidor"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// ErrorHandler manejador global de Fiber: errores de Fiber conservan su status,
// el resto pasa por writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "BODY_TOO_LARGE"
		case fiber.StatusRequestTimeout:
			code = "REQUEST_TIMEOUT"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return writeError(c, err)
}
