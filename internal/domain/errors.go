package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrAlreadyFinalized    = errors.New("la operación ya está finalizada")
	ErrInvalidTransition   = errors.New("transición de estado no permitida")
	ErrInvalidLocationPair = errors.New("la ubicación de origen y destino deben ser distintas")
	ErrRateLimited         = errors.New("demasiadas solicitudes")
)
