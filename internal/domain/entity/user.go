package entity

import "time"

// Roles válidos para User.
const (
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
)

// User representa un usuario del sistema. Se desactiva, nunca se elimina.
type User struct {
	ID           string
	LoginID      string // único
	Email        string // único
	PasswordHash string // bcrypt hash
	Name         string
	Role         string // MANAGER, STAFF
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si el rol es uno de los soportados.
func IsValidRole(role string) bool {
	return role == RoleManager || role == RoleStaff
}
