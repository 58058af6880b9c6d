// File: studioz/handlers/availability.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studioz/services/availability"
	"studioz/services/gateway"
	"studioz/utils"
)

// AvailabilityHandler answers availability questions for one item.
type AvailabilityHandler struct {
	Catalogue gateway.Catalogue
	Resolver  *availability.Resolver
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(catalogue gateway.Catalogue, resolver *availability.Resolver) *AvailabilityHandler {
	RegisterValidators()
	return &AvailabilityHandler{Catalogue: catalogue, Resolver: resolver}
}

// context loads item and studio. A studio that cannot be found leaves the
// item unconstrained by studio hours.
func (h *AvailabilityHandler) context(ctx context.Context, c *gin.Context, itemID string) (availability.Context, bool) {
	item, err := h.Catalogue.GetItem(ctx, itemID)
	if err != nil {
		respondError(c, "Failed to load item", err)
		return availability.Context{}, false
	}
	ac := availability.Context{Item: *item}
	if item.StudioID != "" {
		studio, err := h.Catalogue.GetStudio(ctx, item.StudioID)
		switch {
		case err == nil:
			ac.Studio = studio
		case errors.Is(err, gateway.ErrNotFound):
			getLogger(c).Warn("Studio not found for item", zap.String("itemId", itemID), zap.String("studioId", item.StudioID))
		default:
			respondError(c, "Failed to load studio", err)
			return availability.Context{}, false
		}
	}
	return ac, true
}

func (h *AvailabilityHandler) ItemAvailabilityHandler(c *gin.Context) {
	ac, ok := h.context(c.Request.Context(), c, c.Param("itemId"))
	if !ok {
		return
	}
	ac.SelectedDate = c.Query("date")
	c.JSON(http.StatusOK, h.Resolver.Resolve(ac))
}

func (h *AvailabilityHandler) ItemSlotsHandler(c *gin.Context) {
	date, ok := h.Resolver.ParseDate(c.Query("date"))
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date", "use YYYY-MM-DD or DD/MM/YYYY")
		return
	}
	ac, ok := h.context(c.Request.Context(), c, c.Param("itemId"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Resolver.TimeSlotsWithMetadata(date, ac))
}

type validateRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required,slottime"`
	Hours     int    `json:"hours" binding:"required,min=1,max=24"`
}

func (h *AvailabilityHandler) ValidateBookingHandler(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}
	date, ok := h.Resolver.ParseDate(req.Date)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date", "use YYYY-MM-DD or DD/MM/YYYY")
		return
	}
	ac, ok := h.context(c.Request.Context(), c, c.Param("itemId"))
	if !ok {
		return
	}

	if err := h.Resolver.ValidateBookingRequest(date, req.StartTime, req.Hours, ac); err != nil {
		var ve *availability.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "code": ve.Code, "reason": ve.Reason, "message": ve.Message})
			return
		}
		respondError(c, "Validation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
