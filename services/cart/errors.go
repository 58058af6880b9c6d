package cart

import "errors"

var (
	ErrLineNotFound        = errors.New("cart line not found")
	ErrInvalidLine         = errors.New("cart line is missing item, date or start time")
	ErrExceedsAvailability = errors.New("no further contiguous hours available for this line")
	ErrUndoExpired         = errors.New("undo token expired or already used")
	ErrPartialClear        = errors.New("some cart lines could not be released")
)
