package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTConfig holds JWT authentication configuration. Token issuance is an
// external collaborator; this middleware only validates.
type JWTConfig struct {
	SecretKey string
	Logger    *zap.Logger
	// Optional lets unauthenticated requests through as anonymous.
	Optional bool
}

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(config JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}

		if authHeader == "" {
			if config.Optional {
				c.Set("user_id", "anonymous")
				c.Set("authenticated", false)
				c.Next()
				return
			}
			config.Logger.Warn("Missing authorization header", zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			if config.Optional {
				c.Set("user_id", "anonymous")
				c.Set("authenticated", false)
				c.Next()
				return
			}
			config.Logger.Warn("Invalid authorization header format", zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(config.SecretKey), nil
		})

		if err != nil || !token.Valid || (claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now())) {
			if config.Optional {
				c.Set("user_id", "anonymous")
				c.Set("authenticated", false)
				c.Next()
				return
			}
			config.Logger.Warn("Invalid or expired token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("authenticated", true)
		c.Next()
	}
}

// UserIDFromContext extracts the authenticated user id set by the JWT
// middleware. Anonymous or missing ids come back as uuid.Nil.
func UserIDFromContext(c *gin.Context) uuid.UUID {
	raw, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
