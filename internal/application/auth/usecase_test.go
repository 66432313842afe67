package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/materiales-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func newAuth() *auth.AuthUseCase {
	s := memory.NewStore()
	return auth.NewAuthUseCase(s.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "test"})
}

func TestRegisterLogin_TokenConRol(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()
	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "Bodega@Empresa.co", Password: "clave-segura", Role: entity.RoleBodeguero})
	require.NoError(t, err)
	assert.Equal(t, "bodega@empresa.co", u.Email)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "bodega@empresa.co", Password: "clave-segura"})
	require.NoError(t, err)
	userID, role, err := pkgjwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, entity.RoleBodeguero, role)
}

func TestRegister_RolPorDefectoYDuplicado(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()
	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "obra@empresa.co", Password: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleResidente, u.Role)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "obra@empresa.co", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_Validacion(t *testing.T) {
	_, err := newAuth().RegisterUser(context.Background(), dto.RegisterRequest{Email: "x", Password: "corta", Role: "vendedor"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.co", Password: "12345678"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "a@b.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@b.co", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
