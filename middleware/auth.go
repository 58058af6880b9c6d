// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studioz/services/gateway"
	"studioz/utils"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// OptionalJWTAuth identifies the user when a bearer token is sent. Requests
// without a token continue anonymously; a bad token is rejected.
func OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil {
			zap.L().Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token"})
			return
		}

		c.Set(utils.CtxUserID, userID)
		// The upstream API authorizes the same token.
		c.Request = c.Request.WithContext(gateway.WithBearer(c.Request.Context(), tokenString))
		c.Next()
	}
}

// RequireUser rejects requests that OptionalJWTAuth did not authenticate.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(utils.CtxUserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Insufficient authorization"})
			return
		}
		c.Next()
	}
}
