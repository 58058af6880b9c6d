package handlers

import (
	"github.com/gin-gonic/gin"

	"studioz/models"
	"studioz/utils"
)

// ownerOf resolves who the request acts for: the authenticated user when
// there is one, else the anonymous session.
func ownerOf(c *gin.Context) (models.Owner, bool) {
	if userID := c.GetString(utils.CtxUserID); userID != "" {
		return models.Owner{ID: userID}, true
	}
	if sessionID := c.GetString(utils.CtxSessionID); sessionID != "" {
		return models.Owner{ID: sessionID, Anonymous: true}, true
	}
	return models.Owner{}, false
}
