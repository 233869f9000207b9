package user

import (
	"context"
	"testing"

	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"github.com/sportshop/store-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB, *auth.JWTManager) {
	t.Helper()
	db := testutil.NewDB(t, &User{})
	cfg := testutil.Config()
	jwt := auth.NewJWTManager(cfg)
	return NewService(db, cfg, jwt), db, jwt
}

func register(t *testing.T, s *Service, email string) *AuthResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), RegisterRequest{Name: "Ana", Email: email, Password: "secreto1"})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	s, _, jwt := setup(t)

	resp := register(t, s, "  Ana@Example.com ")
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, auth.RoleCustomer, resp.User.Role)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	id, err := jwt.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id.UserID)
	assert.Equal(t, auth.RoleCustomer, id.Role)
}

func TestRegister_Errors(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	register(t, s, "ana@example.com")

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"missing name", RegisterRequest{Email: "b@example.com", Password: "secreto1"}, apperror.ErrInvalidRequest},
		{"short password", RegisterRequest{Name: "B", Email: "b@example.com", Password: "abc"}, apperror.ErrInvalidRequest},
		{"admin role", RegisterRequest{Name: "B", Email: "b@example.com", Password: "secreto1", Role: auth.RoleAdmin}, apperror.ErrForbidden},
		{"unknown role", RegisterRequest{Name: "B", Email: "b@example.com", Password: "secreto1", Role: "root"}, apperror.ErrInvalidRequest},
		{"taken email", RegisterRequest{Name: "B", Email: "ANA@example.com", Password: "secreto1"}, apperror.ErrDuplicateKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_SellerRoleAllowed(t *testing.T) {
	s, _, _ := setup(t)

	resp, err := s.Register(context.Background(), RegisterRequest{
		Name: "Vendedor", Email: "v@example.com", Password: "secreto1", Role: auth.RoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleSeller, resp.User.Role)
}

func TestLogin(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	registered := register(t, s, "ana@example.com")

	resp, err := s.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "secreto1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = s.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = s.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secreto1"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = s.Login(ctx, LoginRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)

	require.NoError(t, db.Model(&User{}).Where("id = ?", registered.User.ID).Update("is_active", false).Error)
	_, err = s.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secreto1"})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Contains(t, err.Error(), "inactivo")
}

func TestGetProfile(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	registered := register(t, s, "ana@example.com")

	u, err := s.GetProfile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	_, err = s.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	id := register(t, s, "ana@example.com").User.ID

	assert.ErrorIs(t, s.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "secreto1"}), apperror.ErrInvalidRequest)
	assert.ErrorIs(t, s.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "nuevo123"}), apperror.ErrUnauthorized)
	assert.ErrorIs(t, s.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "secreto1", NewPassword: "x"}), apperror.ErrInvalidRequest)

	require.NoError(t, s.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "secreto1", NewPassword: "nuevo123"}))

	_, err := s.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secreto1"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = s.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "nuevo123"})
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "Admin", "Admin@Shop.local", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, "Admin", "admin@shop.local", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	resp, err := s.Login(ctx, LoginRequest{Email: "admin@shop.local", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)
}
