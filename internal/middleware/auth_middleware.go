package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pomodisc/backend/internal/errors"
	"pomodisc/backend/internal/service"
)

const SubjectContextKey = "subject"

// Auth requires a bearer token when access control is enabled. Event streams
// opened by EventSource cannot set headers, so a token query parameter is
// accepted as well.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.Enabled() {
			c.Next()
			return
		}

		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				writeError(c, apperrors.Unauthorized("missing authorization header"))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(c, apperrors.Unauthorized("invalid authorization format"))
				return
			}

			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeError(c, apperrors.Unauthorized("invalid authorization format"))
				return
			}
		}

		subject, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(SubjectContextKey, subject)
		c.Next()
	}
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
