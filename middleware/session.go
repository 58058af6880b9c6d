package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studioz/utils"
)

// SessionMiddleware echoes a valid X-Session-ID or issues a new one, so
// anonymous carts and client state survive between requests.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(utils.SessionHeader)
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.New().String()
		}
		c.Set(utils.CtxSessionID, sessionID)
		c.Header(utils.SessionHeader, sessionID)
		c.Next()
	}
}
