// internal/pkg/auth/password.go
package auth

import (
	"fmt"

	"github.com/sportshop/store-api/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordManager handles password operations
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks length bounds only; bcrypt ignores bytes past 72
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < p.config.Security.MinPasswordLength {
		return fmt.Errorf("La contraseña debe tener al menos %d caracteres", p.config.Security.MinPasswordLength)
	}
	if len(password) > 72 {
		return fmt.Errorf("La contraseña no puede superar los 72 caracteres")
	}
	return nil
}

func (p *PasswordManager) cost() int {
	cost := p.config.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
