package dto

import "time"

// RegisterRequest alta de usuario por un gerente.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	LoginID  string `json:"loginId" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=MANAGER STAFF"`
}

// SignupRequest auto-registro (siempre STAFF).
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	LoginID  string `json:"loginId" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest acepta login_id o email en el mismo campo.
type LoginRequest struct {
	LoginOrEmail string `json:"loginOrEmail" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	LoginID   string    `json:"loginId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserListResponse listado de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// SetActiveRequest activa o desactiva un usuario.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
