package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
)

const actorKey = "actor"

// AuthMiddleware verifies the bearer token and loads the user row behind it,
// so every request sees the current role, not the one minted into the token.
func AuthMiddleware(authService service.AuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(actorKey, access.Actor{
			ID:        user.ID,
			Username:  user.Username,
			Role:      access.Role(user.Role),
			Superuser: user.IsSuperuser,
		})

		c.Next()
	}
}

// CurrentActor returns the authenticated actor set by AuthMiddleware.
func CurrentActor(c *gin.Context) (access.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return access.Actor{}, false
	}
	actor, ok := value.(access.Actor)
	return actor, ok
}
