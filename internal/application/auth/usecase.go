package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
	"github.com/jhoicas/Bodega-api/pkg/jwt"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Identity usuario autenticado extraído del token.
type Identity struct {
	UserID string
	Role   string
}

// AuthUseCase casos de uso de autenticación: registro, login y gestión de personal.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, log: log, now: time.Now}
}

// Register crea un usuario con el rol indicado (STAFF por defecto) y devuelve token + usuario.
// Devuelve ErrConflict si el email o el login ya existen.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.LoginResponse, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleStaff
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: rol %q", domain.ErrInvalidInput, role)
	}
	user, err := uc.createUser(ctx, in.Name, in.Email, in.LoginID, in.Password, role)
	if err != nil {
		return nil, err
	}
	return uc.issue(user)
}

// Signup auto-registro: siempre STAFF.
func (uc *AuthUseCase) Signup(ctx context.Context, in dto.SignupRequest) (*dto.LoginResponse, error) {
	user, err := uc.createUser(ctx, in.Name, in.Email, in.LoginID, in.Password, entity.RoleStaff)
	if err != nil {
		return nil, err
	}
	return uc.issue(user)
}

// Login verifica login/email y password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByLoginOrEmail(ctx, strings.TrimSpace(in.LoginOrEmail))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.log.Warn().Str("user_id", user.ID).Msg("login con password incorrecto")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrForbidden
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("login exitoso")
	return uc.issue(user)
}

// Authenticate valida el token y carga el usuario: un usuario inexistente es ErrUnauthorized,
// uno desactivado ErrForbidden. El rol sale de la base, no del token.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*Identity, error) {
	userID, _, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: usuario %s no existe", domain.ErrUnauthorized, userID)
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: usuario desactivado", domain.ErrForbidden)
	}
	return &Identity{UserID: user.ID, Role: user.Role}, nil
}

// Authorize exige que la identidad tenga alguno de los roles.
func Authorize(id *Identity, roles ...string) error {
	if id == nil {
		return domain.ErrUnauthorized
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return domain.ErrForbidden
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// ListUsers lista el personal.
func (uc *AuthUseCase) ListUsers(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	users, total, err := uc.userRepo.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *toUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// SetActive activa o desactiva un usuario. Un gerente no puede desactivarse a sí mismo.
func (uc *AuthUseCase) SetActive(ctx context.Context, actorID, userID string, active bool) (*dto.UserResponse, error) {
	if actorID == userID && !active {
		return nil, fmt.Errorf("%w: no puede desactivar su propio usuario", domain.ErrConflict)
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	user.Active = active
	user.UpdatedAt = uc.now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("actor", actorID).Bool("active", active).Msg("estado de usuario actualizado")
	return toUserResponse(user), nil
}

func (uc *AuthUseCase) createUser(ctx context.Context, name, email, loginID, password, role string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		loginID = email
	}
	for _, key := range []string{email, loginID} {
		existing, err := uc.userRepo.FindByLoginOrEmail(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConflict, domain.ErrEmailAlreadyExists)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		LoginID:      loginID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", role).Msg("usuario creado")
	return user, nil
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		LoginID:   u.LoginID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
