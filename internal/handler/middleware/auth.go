package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"support-center/internal/domain/appointment"
	"support-center/internal/pkg/jwt"
)

const (
	ctxActorKey = "actor"

	RoleManager    = "manager"
	RoleTechnician = "technician"
)

type AuthMiddleware struct {
	tokens *jwt.Service
}

func NewAuthMiddleware(tokens *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			slog.Warn("token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxActorKey, appointment.Actor{
			ID:        claims.ActorID,
			IsManager: claims.Role == RoleManager,
		})
		c.Set("jwt_claims", map[string]any{
			"actor_id": claims.ActorID.String(),
			"role":     claims.Role,
		})
		c.Next()
	}
}

// RequireManager must run after RequireAuth.
func (m *AuthMiddleware) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}
		if !actor.IsManager {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) (appointment.Actor, bool) {
	v, exists := c.Get(ctxActorKey)
	if !exists {
		return appointment.Actor{}, false
	}
	actor, ok := v.(appointment.Actor)
	return actor, ok
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}
