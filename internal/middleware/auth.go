package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agenthub-system/internal/database/models"
	"agenthub-system/internal/utils"
)

const (
	ContextAgentKey   = "agent"
	ContextAgentIDKey = "agent_id"
)

// JWTAuth verifies the bearer token and resolves it to an agent row,
// which later handlers read from the context. Missing or invalid tokens
// and tokens for deleted accounts all end the request with 401.
func JWTAuth(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "No token provided",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		var agent models.Agent
		if err := db.First(&agent, claims.AgentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"message": "User not found for this token",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to verify identity",
			})
			return
		}

		c.Set(ContextAgentKey, &agent)
		c.Set(ContextAgentIDKey, agent.ID)
		c.Next()
	}
}

// RequireAdmin gates admin routes. It assumes JWTAuth already placed the
// agent in the context.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent := AgentFromContext(c)
		if agent == nil || !agent.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Administrator privileges required",
			})
			return
		}
		c.Next()
	}
}

func AgentFromContext(c *gin.Context) *models.Agent {
	v, ok := c.Get(ContextAgentKey)
	if !ok {
		return nil
	}
	agent, ok := v.(*models.Agent)
	if !ok {
		return nil
	}
	return agent
}
