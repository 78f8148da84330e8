package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/application/auth"
	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*entity.User{}} }

func (r *memUsers) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) FindByLoginOrEmail(_ context.Context, key string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.LoginID == key || strings.EqualFold(u.Email, key) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) List(_ context.Context, limit, offset int) ([]*entity.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func newUseCase() (*auth.AuthUseCase, *memUsers) {
	repo := newMemUsers()
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: "test-secret", ExpMinutes: 5, Issuer: "bodega-test"}, logger.Nop())
	return uc, repo
}

func register(t *testing.T, uc *auth.AuthUseCase, email, role string) *dto.LoginResponse {
	t.Helper()
	res, err := uc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: email, Password: "supersecreta", Role: role,
	})
	require.NoError(t, err)
	return res
}

func TestRegister_CreaUsuarioYToken(t *testing.T) {
	uc, _ := newUseCase()
	res := register(t, uc, "Ana@Bodega.io", entity.RoleManager)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ana@bodega.io", res.User.Email)
	assert.Equal(t, "ana@bodega.io", res.User.LoginID, "sin loginId se usa el email")
	assert.Equal(t, entity.RoleManager, res.User.Role)
	assert.True(t, res.User.Active)

	id, err := uc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, entity.RoleManager, id.Role)
}

func TestRegister_EmailDuplicadoEsConflicto(t *testing.T) {
	uc, _ := newUseCase()
	register(t, uc, "ana@bodega.io", "")

	_, err := uc.Register(context.Background(), dto.RegisterRequest{Email: "ANA@bodega.io", Password: "otraclave1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSignup_SiempreStaff(t *testing.T) {
	uc, _ := newUseCase()
	res, err := uc.Signup(context.Background(), dto.SignupRequest{Name: "Luis", Email: "luis@bodega.io", LoginID: "luis", Password: "supersecreta"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, res.User.Role)
	assert.Equal(t, "luis", res.User.LoginID)
}

func TestLogin_PorLoginOEmail(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.Signup(ctx, dto.SignupRequest{Name: "Luis", Email: "luis@bodega.io", LoginID: "luis", Password: "supersecreta"})
	require.NoError(t, err)

	for _, key := range []string{"luis", "LUIS@bodega.io"} {
		res, err := uc.Login(ctx, dto.LoginRequest{LoginOrEmail: key, Password: "supersecreta"})
		require.NoError(t, err, key)
		assert.NotEmpty(t, res.Token)
	}
}

func TestLogin_Errores(t *testing.T) {
	uc, repo := newUseCase()
	ctx := context.Background()
	res := register(t, uc, "ana@bodega.io", "")

	_, err := uc.Login(ctx, dto.LoginRequest{LoginOrEmail: "nadie", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = uc.Login(ctx, dto.LoginRequest{LoginOrEmail: "ana@bodega.io", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	u := repo.users[res.User.ID]
	u.Active = false
	_, err = uc.Login(ctx, dto.LoginRequest{LoginOrEmail: "ana@bodega.io", Password: "supersecreta"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthenticate_TokenInvalido(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Authenticate(context.Background(), "no-es-un-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_UsuarioDesactivadoOBorrado(t *testing.T) {
	uc, repo := newUseCase()
	ctx := context.Background()
	manager := register(t, uc, "jefe@bodega.io", entity.RoleManager)
	staff := register(t, uc, "staff@bodega.io", entity.RoleStaff)

	_, err := uc.Authenticate(ctx, staff.Token)
	require.NoError(t, err)

	_, err = uc.SetActive(ctx, manager.User.ID, staff.User.ID, false)
	require.NoError(t, err)
	_, err = uc.Authenticate(ctx, staff.Token)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el token sigue vigente pero el usuario no")

	delete(repo.users, staff.User.ID)
	_, err = uc.Authenticate(ctx, staff.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_RolVigenteDesdeLaBase(t *testing.T) {
	uc, repo := newUseCase()
	res := register(t, uc, "ana@bodega.io", entity.RoleManager)
	repo.users[res.User.ID].Role = entity.RoleStaff

	id, err := uc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, id.Role)
}

func TestAuthorize(t *testing.T) {
	staff := &auth.Identity{UserID: "u1", Role: entity.RoleStaff}
	manager := &auth.Identity{UserID: "u2", Role: entity.RoleManager}

	assert.NoError(t, auth.Authorize(staff))
	assert.NoError(t, auth.Authorize(manager, entity.RoleManager))
	assert.ErrorIs(t, auth.Authorize(staff, entity.RoleManager), domain.ErrForbidden)
	assert.ErrorIs(t, auth.Authorize(nil, entity.RoleStaff), domain.ErrUnauthorized)
}

func TestSetActive(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	manager := register(t, uc, "jefe@bodega.io", entity.RoleManager)
	staff := register(t, uc, "staff@bodega.io", entity.RoleStaff)

	out, err := uc.SetActive(ctx, manager.User.ID, staff.User.ID, false)
	require.NoError(t, err)
	assert.False(t, out.Active)

	_, err = uc.SetActive(ctx, manager.User.ID, manager.User.ID, false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.SetActive(ctx, manager.User.ID, "no-existe", true)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	list, err := uc.ListUsers(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Page.Total)
}
