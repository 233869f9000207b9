// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, jwtManager *auth.JWTManager) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      jwtManager,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"rol"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Register creates a new user account. Self-registration can never grant the admin role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperror.InvalidRequest("Todos los campos son obligatorios")
	}

	role := strings.TrimSpace(req.Role)
	switch {
	case role == "":
		role = auth.RoleCustomer
	case role == auth.RoleAdmin:
		return nil, apperror.Forbidden("No se puede registrar un administrador")
	case !auth.ValidRole(role):
		return nil, apperror.InvalidRequest("Rol inválido")
	}

	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, apperror.InvalidRequest(err.Error())
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, apperror.DuplicateKey("El email")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, apperror.FromDB(err, "", "El email")
	}

	return s.authResponse(&user)
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.InvalidRequest("Email y contraseña son obligatorios")
	}

	db := s.db.WithContext(ctx)

	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Credenciales inválidas")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("Usuario inactivo")
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, apperror.Unauthorized("Credenciales inválidas")
	}

	now := time.Now().UTC()
	if err := db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLoginAt = &now

	return s.authResponse(&user)
}

// GetProfile retrieves user profile
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, apperror.FromDB(err, "Usuario no encontrado", "")
	}
	return &user, nil
}

// ChangePassword changes user password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperror.InvalidRequest("Contraseña actual y nueva son obligatorias")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwordManager.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		return apperror.Unauthorized("Contraseña actual incorrecta")
	}

	if err := s.passwordManager.ValidatePassword(req.NewPassword); err != nil {
		return apperror.InvalidRequest(err.Error())
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// EnsureAdmin creates the given admin account unless the email is already taken
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hashedPassword, err := s.passwordManager.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     auth.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

func (s *Service) authResponse(user *User) (*AuthResponse, error) {
	token, err := s.jwtManager.Generate(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:      user,
		Token:     token,
		ExpiresIn: int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}
