package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	ErrSlotTaken     = errors.New("time slot already taken")
	ErrNotFound      = errors.New("upstream resource not found")
	ErrUnavailable   = errors.New("upstream service unavailable")
	ErrInvalidCoupon = errors.New("coupon is not valid")
	ErrUnknownSearch = errors.New("unknown search kind")
)

// UpstreamError is a non-2xx answer from the Studioz API.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.Status)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// Is lets callers match on the sentinel errors with errors.Is.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrSlotTaken:
		return e.Status == http.StatusConflict
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func newUpstreamError(resp *resty.Response) *UpstreamError {
	ue := &UpstreamError{Status: resp.StatusCode()}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		ue.Code = body.Code
		ue.Message = body.Message
		if ue.Message == "" {
			ue.Message = body.Error
		}
	}
	return ue
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
