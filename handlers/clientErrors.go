package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studioz/models"
	"studioz/services/reload"
	"studioz/utils"
)

type ClientErrorHandler struct {
	Guard *reload.Guard
}

func NewClientErrorHandler(g *reload.Guard) *ClientErrorHandler {
	return &ClientErrorHandler{Guard: g}
}

// ReportHandler logs a front-end render failure and tells the page whether to reload.
func (h *ClientErrorHandler) ReportHandler(c *gin.Context) {
	var report models.ClientErrorReport
	if err := c.ShouldBindJSON(&report); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid error report", err.Error())
		return
	}
	session := c.GetString(utils.CtxSessionID)
	if session == "" {
		session = c.ClientIP()
	}

	action, err := h.Guard.Decide(c.Request.Context(), session, report)
	logger := getLogger(c)
	if err != nil {
		logger.Warn("Reload guard unavailable", zap.Error(err))
	}
	logger.Info("Client error reported",
		zap.String("session", session),
		zap.String("name", report.Name),
		zap.String("message", report.Message),
		zap.String("url", report.URL),
		zap.String("release", report.Release),
		zap.String("action", string(action)))
	utils.ClientReloads.WithLabelValues(string(action)).Inc()

	c.JSON(http.StatusOK, gin.H{"action": action})
}
