package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studioz/services/availability"
	"studioz/services/gateway"
	"studioz/utils"
)

// StudioBlocker reserves studio hours outside the cart flow.
type StudioBlocker interface {
	ReserveStudioTimeSlots(ctx context.Context, req gateway.StudioBlockRequest) error
}

type MerchantHandler struct {
	Blocker StudioBlocker
}

func NewMerchantHandler(b StudioBlocker) *MerchantHandler {
	RegisterValidators()
	return &MerchantHandler{Blocker: b}
}

type blockRequest struct {
	BookingDate string   `json:"bookingDate" binding:"required,bookingdate"`
	StartTime   string   `json:"startTime" binding:"required,slottime"`
	Hours       int      `json:"hours" binding:"required,min=1,max=24"`
	ItemIDs     []string `json:"itemIds"`
}

// BlockStudioHoursHandler blocks hours of a studio for its owner.
func (h *MerchantHandler) BlockStudioHoursHandler(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid block request", err.Error())
		return
	}
	bookingDate, _ := availability.NormalizeDate(req.BookingDate)
	key := c.GetHeader(gateway.IdempotencyHeader)
	if key == "" {
		key = uuid.New().String()
	}

	err := h.Blocker.ReserveStudioTimeSlots(c.Request.Context(), gateway.StudioBlockRequest{
		StudioID:       c.Param("studioId"),
		BookingDate:    bookingDate,
		StartTime:      req.StartTime,
		Hours:          req.Hours,
		ItemIDs:        req.ItemIDs,
		IdempotencyKey: key,
	})
	if err != nil {
		getLogger(c).Warn("Studio block failed", zap.String("studioId", c.Param("studioId")), zap.Error(err))
		respondError(c, "Failed to block studio hours", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": true, "idempotencyKey": key})
}
