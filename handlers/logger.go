package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studioz/utils"
)

const ctxLogger = "logger"

// getLogger returns the request logger, tagged with the caller and route on first use.
func getLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ctxLogger); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}

	fields := []zap.Field{zap.String("route", c.FullPath())}
	if id := c.GetString(utils.CtxUserID); id != "" {
		fields = append(fields, zap.String("userID", id))
	}
	if id := c.GetString(utils.CtxSessionID); id != "" {
		fields = append(fields, zap.String("sessionID", id))
	}
	logger := utils.GetLogger().With(fields...)
	c.Set(ctxLogger, logger)
	return logger
}
