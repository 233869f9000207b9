// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/sportshop/store-api/internal/pkg/auth"
	"gorm.io/gorm"
)

// User represents the user entity
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null;size:150" json:"nombre"`
	Email       string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	Role        string     `gorm:"not null;size:20;default:'cliente'" json:"rol"`
	IsActive    bool       `gorm:"default:true" json:"activo"`
	LastLoginAt *time.Time `json:"ultimo_acceso,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// Identity returns the token subject for this user
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role, Email: u.Email}
}

// NormalizeEmail lowercases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
