package cart

import (
	"errors"

	"studioz/services/availability"
	"studioz/services/gateway"
)

func bookingFailureMessage(err error) string {
	var ve *availability.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, gateway.ErrSlotTaken):
		return "This time slot was just booked by someone else"
	case errors.Is(err, gateway.ErrUnavailable):
		return "Booking service is temporarily unavailable, please try again shortly"
	case errors.Is(err, gateway.ErrNotFound):
		return "This item is no longer available"
	}
	return "Something went wrong updating your cart"
}
