package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learnstack/api/internal/config"
	"learnstack/api/internal/repository"
	"learnstack/api/internal/service"
)

// Auth verifies the bearer token, loads the current user, and records
// a session heartbeat. The heartbeat write is throttled inside the
// session manager, so per-request invocation is cheap.
func Auth(cfg *config.AppConfig, sessions *service.SessionManager, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := sessions.VerifyAccessToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		if claims.SessionID != 0 {
			_ = sessions.RecordActivity(c.Request.Context(), claims.SessionID)
		}

		c.Set("access_token", tokenStr)
		c.Set("access_claims", *claims)
		c.Set("current_user", user)

		c.Next()
	}
}
