// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sportshop/store-api/internal/pkg/auth"
)

const identityKey = "identity"

// AuthMiddleware requires a valid bearer token and stores the caller's identity
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token no proporcionado",
			})
			return
		}

		identity, err := jwtManager.Validate(tokenString)
		if err != nil {
			message := "Token inválido"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "Token expirado"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuthMiddleware stores the identity when a valid token is present
// and ignores missing or bad tokens
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString != "" {
			if identity, err := jwtManager.Validate(tokenString); err == nil {
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// AdminMiddleware ensures the authenticated caller is an admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token no proporcionado",
			})
			return
		}

		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Acceso denegado. Se requiere rol de administrador",
			})
			return
		}

		c.Next()
	}
}

// GetIdentity returns the authenticated caller, if any
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// GetUserID returns the authenticated caller's id, or nil for guests
func GetUserID(c *gin.Context) *uint {
	identity, ok := GetIdentity(c)
	if !ok {
		return nil
	}
	id := identity.UserID
	return &id
}
