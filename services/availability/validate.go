package availability

import (
	"fmt"
	"time"
)

const (
	CodeDateUnavailable  = "date_unavailable"
	CodeSlotUnavailable  = "slot_unavailable"
	CodeBelowMinimum     = "below_minimum"
	CodeAboveMaximum     = "above_maximum"
	CodeSlotsUnavailable = "slots_unavailable"
)

// ValidationError explains why a booking request was refused.
type ValidationError struct {
	Code    string `json:"code"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateBookingRequest checks a booking of hours starting at start on date.
func (r *Resolver) ValidateBookingRequest(date time.Time, start string, hours int, c Context) error {
	res := r.IsDateBookable(date, c)
	if !res.IsBookable {
		return &ValidationError{
			Code:    CodeDateUnavailable,
			Reason:  res.Reason,
			Message: fmt.Sprintf("Date not available: %s", res.Reason),
		}
	}

	slot, ok := NormalizeSlot(start)
	if !ok || !contains(res.AvailableSlots, slot) {
		return &ValidationError{Code: CodeSlotUnavailable, Message: "Selected time slot is not available"}
	}

	if minHours := MinimumHours(c.Item); hours < minHours {
		return &ValidationError{Code: CodeBelowMinimum, Message: fmt.Sprintf("Minimum booking is %d hour(s)", minHours)}
	}

	if maxHours := r.MaximumHours(slot, date, c); hours > maxHours {
		return &ValidationError{Code: CodeAboveMaximum, Message: fmt.Sprintf("Maximum available hours from this time is %d", maxHours)}
	}

	for _, s := range RequiredSlots(slot, hours) {
		if !contains(res.AvailableSlots, s) {
			return &ValidationError{Code: CodeSlotsUnavailable, Message: "Not all requested time slots are available"}
		}
	}
	return nil
}
