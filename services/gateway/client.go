package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"studioz/models"
	"studioz/utils"
)

// IdempotencyHeader carries the intent id on every mutating booking call.
const IdempotencyHeader = "Idempotency-Key"

// ReserveRequest reserves Hours contiguous slots starting at StartTime.
type ReserveRequest struct {
	ItemID         string `json:"itemId"`
	BookingDate    string `json:"bookingDate"`
	StartTime      string `json:"startTime"`
	Hours          int    `json:"hours"`
	CustomerName   string `json:"costumerName,omitempty"`
	CustomerPhone  string `json:"costumerPhone,omitempty"`
	Comment        string `json:"comment,omitempty"`
	IdempotencyKey string `json:"-"`
}

// SlotRequest addresses the block of slots held by one cart line.
type SlotRequest struct {
	ItemID         string `json:"itemId"`
	BookingDate    string `json:"bookingDate"`
	StartTime      string `json:"startTime"`
	Hours          int    `json:"hours"`
	ReservationID  string `json:"reservationId,omitempty"`
	IdempotencyKey string `json:"-"`
}

// StudioBlockRequest blocks studio hours on behalf of the merchant.
type StudioBlockRequest struct {
	StudioID       string   `json:"studioId"`
	BookingDate    string   `json:"bookingDate"`
	StartTime      string   `json:"startTime"`
	Hours          int      `json:"hours"`
	ItemIDs        []string `json:"itemIds,omitempty"`
	IdempotencyKey string   `json:"-"`
}

type reservationResponse struct {
	ReservationID string `json:"reservationId"`
	ID            string `json:"_id"`
}

func (r reservationResponse) id() string {
	if r.ReservationID != "" {
		return r.ReservationID
	}
	return r.ID
}

// Bookings is the slot reservation surface used by the cart pipeline.
type Bookings interface {
	ReserveItemTimeSlots(ctx context.Context, req ReserveRequest) (string, error)
	ReserveNextTimeSlot(ctx context.Context, req SlotRequest) (string, error)
	ReleaseLastTimeSlot(ctx context.Context, req SlotRequest) error
	ReleaseTimeSlots(ctx context.Context, req SlotRequest) error
}

// Catalogue is the read surface for items, studios, coupons and search.
type Catalogue interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetStudio(ctx context.Context, id string) (*models.Studio, error)
	Search(ctx context.Context, kind, q string) (json.RawMessage, error)
	ValidateStudioCoupon(ctx context.Context, code, studioID string, subtotal float64) (*models.Coupon, error)
}

// Client talks to the upstream Studioz REST API.
type Client struct {
	http      *resty.Client
	bookings  *Breaker
	catalogue *Breaker
}

// NewClient creates a client with no automatic retries; failures are reported, never replayed.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		bookings:  NewBreaker("bookings"),
		catalogue: NewBreaker("catalogue"),
	}
}

// BreakerStates reports each breaker's state for the health endpoint.
func (c *Client) BreakerStates() string {
	return fmt.Sprintf("bookings=%s catalogue=%s", c.bookings.GetState(), c.catalogue.GetState())
}

type bearerKey struct{}

// WithBearer attaches the caller's token so it is forwarded upstream.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func (c *Client) do(ctx context.Context, br *Breaker, op, method, path, key string, body, out interface{}, opts ...func(*resty.Request)) (*resty.Response, error) {
	res, err := br.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx)
		for _, opt := range opts {
			opt(req)
		}
		if body != nil {
			req.SetBody(body)
		}
		if key != "" {
			req.SetHeader(IdempotencyHeader, key)
		}
		if token, ok := ctx.Value(bearerKey{}).(string); ok && token != "" {
			req.SetAuthToken(token)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, newUpstreamError(resp)
		}
		return resp, nil
	})
	if isBreakerRejection(err) {
		err = fmt.Errorf("%w: circuit %s is %s", ErrUnavailable, br.name, br.GetState())
	}
	utils.UpstreamCalls.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	resp := res.(*resty.Response)
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return resp, nil
}

// pathParam fills a {name} segment; resty path-escapes the value.
func pathParam(name, value string) func(*resty.Request) {
	return func(r *resty.Request) { r.SetPathParam(name, value) }
}

func (c *Client) ReserveItemTimeSlots(ctx context.Context, req ReserveRequest) (string, error) {
	var out reservationResponse
	if _, err := c.do(ctx, c.bookings, "reserve", http.MethodPost, "/bookings/reserve-time-slots", req.IdempotencyKey, req, &out); err != nil {
		return "", err
	}
	return out.id(), nil
}

func (c *Client) ReserveNextTimeSlot(ctx context.Context, req SlotRequest) (string, error) {
	var out reservationResponse
	if _, err := c.do(ctx, c.bookings, "reserve_next", http.MethodPost, "/bookings/reserve-next-time-slot", req.IdempotencyKey, req, &out); err != nil {
		return "", err
	}
	return out.id(), nil
}

func (c *Client) ReleaseLastTimeSlot(ctx context.Context, req SlotRequest) error {
	_, err := c.do(ctx, c.bookings, "release_last", http.MethodPost, "/bookings/release-last-time-slot", req.IdempotencyKey, req, nil)
	return err
}

func (c *Client) ReleaseTimeSlots(ctx context.Context, req SlotRequest) error {
	_, err := c.do(ctx, c.bookings, "release_all", http.MethodPost, "/bookings/release-time-slots", req.IdempotencyKey, req, nil)
	return err
}

func (c *Client) ReserveStudioTimeSlots(ctx context.Context, req StudioBlockRequest) error {
	_, err := c.do(ctx, c.bookings, "reserve_studio", http.MethodPost, "/bookings/reserve-studio-time-slots", req.IdempotencyKey, req, nil)
	return err
}

func (c *Client) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if _, err := c.do(ctx, c.catalogue, "get_item", http.MethodGet, "/items/{id}", "", nil, &item, pathParam("id", id)); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) GetStudio(ctx context.Context, id string) (*models.Studio, error) {
	var studio models.Studio
	if _, err := c.do(ctx, c.catalogue, "get_studio", http.MethodGet, "/studios/{id}", "", nil, &studio, pathParam("id", id)); err != nil {
		return nil, err
	}
	return &studio, nil
}

var searchKinds = map[string]bool{"items": true, "studios": true, "users": true}

// Search proxies GET /search/{kind}?q= and returns the raw upstream document.
func (c *Client) Search(ctx context.Context, kind, q string) (json.RawMessage, error) {
	if !searchKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSearch, kind)
	}
	resp, err := c.do(ctx, c.catalogue, "search_"+kind, http.MethodGet, "/search/{kind}", "", nil, nil,
		pathParam("kind", kind),
		func(r *resty.Request) { r.SetQueryParam("q", q) })
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body()), nil
}

// ValidateStudioCoupon asks upstream whether code applies to a studio subtotal.
func (c *Client) ValidateStudioCoupon(ctx context.Context, code, studioID string, subtotal float64) (*models.Coupon, error) {
	body := map[string]interface{}{"code": code, "studioId": studioID, "amount": subtotal}
	var out struct {
		Valid  bool          `json:"valid"`
		Coupon models.Coupon `json:"coupon"`
	}
	if _, err := c.do(ctx, c.catalogue, "validate_coupon", http.MethodPost, "/studio-coupons/validate", "", body, &out); err != nil {
		return nil, err
	}
	if !out.Valid {
		return nil, ErrInvalidCoupon
	}
	return &out.Coupon, nil
}
