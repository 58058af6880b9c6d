package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studioz/services/availability"
	"studioz/services/cart"
	"studioz/services/clientstate"
	"studioz/services/gateway"
	"studioz/utils"
)

// statusFor maps domain errors onto HTTP status codes and a stable code.
func statusFor(err error) (int, string) {
	var ve *availability.ValidationError
	var ue *gateway.UpstreamError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Code
	case errors.Is(err, cart.ErrInvalidLine), errors.Is(err, gateway.ErrUnknownSearch),
		errors.Is(err, clientstate.ErrUnknownKey), errors.Is(err, clientstate.ErrInvalidValue):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, cart.ErrLineNotFound), errors.Is(err, clientstate.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, cart.ErrExceedsAvailability):
		return http.StatusConflict, "exceeds_availability"
	case errors.Is(err, cart.ErrUndoExpired):
		return http.StatusGone, "undo_expired"
	case errors.Is(err, cart.ErrPartialClear):
		return http.StatusBadGateway, "partial_clear"
	case errors.Is(err, gateway.ErrSlotTaken):
		return http.StatusConflict, "slot_taken"
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gateway.ErrInvalidCoupon):
		return http.StatusUnprocessableEntity, "invalid_coupon"
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.As(err, &ue):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c *gin.Context, message string, err error) {
	status, code := statusFor(err)
	utils.JSONCodedError(c, status, code, message, err.Error())
}
