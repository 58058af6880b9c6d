package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studioz/models"
	"studioz/services/availability"
	"studioz/services/gateway"
	"studioz/services/intent"
	"studioz/utils"
)

// CartService is the booking-aware cart. Callers serialize calls per owner;
// Mutations does this for the HTTP surface.
type CartService interface {
	Get(ctx context.Context, owner models.Owner) (*models.Cart, error)
	AddItem(ctx context.Context, owner models.Owner, line models.CartItem) (*models.Cart, error)
	Increment(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error)
	Decrement(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error)
	Clear(ctx context.Context, owner models.Owner) (*models.Cart, error)
	Replace(ctx context.Context, owner models.Owner, items []models.CartItem) (*models.Cart, error)
	MergeAnonymous(ctx context.Context, session, user models.Owner) (*models.Cart, error)
	Summary(ctx context.Context, owner models.Owner, coupon string) (*models.CartSummary, error)
}

// ReservationMarker mirrors reservation ids into client state.
type ReservationMarker interface {
	Put(ctx context.Context, owner models.Owner, key string, value json.RawMessage) (*models.ClientStateEntry, error)
	Delete(ctx context.Context, owner models.Owner, key string) error
}

type DefaultCartService struct {
	Store    Store
	Bookings gateway.Bookings
	Intents  intent.Log
	// Optional collaborators; a nil value disables enrichment, checks or mirroring.
	Catalogue    gateway.Catalogue
	Resolver     *availability.Resolver
	Reservations ReservationMarker
	Now          func() time.Time
}

func (s *DefaultCartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultCartService) Get(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	return s.Store.Load(ctx, owner)
}

func (s *DefaultCartService) save(ctx context.Context, owner models.Owner, c *models.Cart) error {
	c.Version++
	c.UpdatedAt = s.now().UTC()
	if err := s.Store.Save(ctx, owner, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func slotRequest(line models.CartItem, key string) gateway.SlotRequest {
	return gateway.SlotRequest{
		ItemID:         line.ItemID,
		BookingDate:    line.BookingDate,
		StartTime:      line.StartTime,
		Hours:          line.Quantity,
		ReservationID:  line.ReservationID,
		IdempotencyKey: key,
	}
}

func (s *DefaultCartService) begin(ctx context.Context, owner models.Owner, line models.CartItem, kind models.IntentKind, hours int) (*models.ReservationIntent, error) {
	return s.Intents.Begin(ctx, models.ReservationIntent{
		OwnerID:       owner.Key(),
		ItemID:        line.ItemID,
		BookingDate:   line.BookingDate,
		StartTime:     line.StartTime,
		Kind:          kind,
		Hours:         hours,
		ReservationID: line.ReservationID,
	})
}

func (s *DefaultCartService) settle(ctx context.Context, in *models.ReservationIntent, reservationID string, cause error) {
	var err error
	if cause != nil {
		err = s.Intents.RollBack(ctx, in.ID, cause)
	} else {
		err = s.Intents.Commit(ctx, in.ID, reservationID)
	}
	if err != nil {
		utils.GetLogger().Error("Failed to settle reservation intent", zap.String("intentId", in.ID), zap.Error(err))
	}
}

// compensate undoes an upstream reserve whose cart write failed. When the
// release fails too the intent stays pending for the sweeper.
func (s *DefaultCartService) compensate(ctx context.Context, in *models.ReservationIntent, release func(context.Context, gateway.SlotRequest) error, req gateway.SlotRequest, cause error) {
	req.IdempotencyKey = "compensate-" + in.ID
	if err := release(context.WithoutCancel(ctx), req); err != nil {
		utils.GetLogger().Error("Compensating release failed; left for sweeper",
			zap.String("intentId", in.ID), zap.String("itemId", req.ItemID), zap.Error(err))
		return
	}
	s.settle(ctx, in, "", cause)
}

// restore takes back hours that were released for a cart write that then
// failed, so the stored cart still matches what the upstream holds. kind is
// IntentReserve to re-reserve the whole line or IntentReserveNext to extend
// line by one hour. A failed restore is logged; the cart then shows hours
// the upstream no longer holds.
func (s *DefaultCartService) restore(ctx context.Context, owner models.Owner, line models.CartItem, kind models.IntentKind) {
	ctx = context.WithoutCancel(ctx)
	hours := line.Quantity
	if kind == models.IntentReserveNext {
		hours = 1
	}
	in, err := s.begin(ctx, owner, line, kind, hours)
	if err != nil {
		utils.GetLogger().Error("Failed to record restore intent", zap.String("itemId", line.ItemID), zap.Error(err))
		return
	}

	var reservationID string
	if kind == models.IntentReserveNext {
		reservationID, err = s.Bookings.ReserveNextTimeSlot(ctx, slotRequest(line, in.ID))
	} else {
		reservationID, err = s.Bookings.ReserveItemTimeSlots(ctx, gateway.ReserveRequest{
			ItemID:         line.ItemID,
			BookingDate:    line.BookingDate,
			StartTime:      line.StartTime,
			Hours:          line.Quantity,
			CustomerName:   line.CustomerName,
			CustomerPhone:  line.CustomerPhone,
			Comment:        line.Comment,
			IdempotencyKey: in.ID,
		})
	}
	s.settle(ctx, in, reservationID, err)
	if err != nil {
		utils.GetLogger().Error("Failed to restore released hours",
			zap.String("itemId", line.ItemID), zap.String("bookingDate", line.BookingDate), zap.Error(err))
	}
}

// catalogueContext fetches item and studio data; ok is false when unreachable.
func (s *DefaultCartService) catalogueContext(ctx context.Context, itemID string) (availability.Context, bool) {
	if s.Catalogue == nil {
		return availability.Context{}, false
	}
	item, err := s.Catalogue.GetItem(ctx, itemID)
	if err != nil {
		utils.GetLogger().Debug("Catalogue lookup skipped", zap.String("itemId", itemID), zap.Error(err))
		return availability.Context{}, false
	}
	c := availability.Context{Item: *item}
	if item.StudioID != "" {
		if studio, err := s.Catalogue.GetStudio(ctx, item.StudioID); err == nil {
			c.Studio = studio
		}
	}
	return c, true
}

func enrich(line models.CartItem, item models.Item) models.CartItem {
	line.Price = item.Price
	if line.StudioID == "" {
		line.StudioID = item.StudioID
	}
	if line.Name == (models.LocalizedText{}) {
		line.Name = item.Name
	}
	if line.StudioName == (models.LocalizedText{}) {
		line.StudioName = item.StudioName
	}
	if line.StudioImgURL == "" {
		line.StudioImgURL = item.StudioImgURL
	}
	return line
}

func (s *DefaultCartService) markReservation(ctx context.Context, owner models.Owner, itemID, reservationID string) {
	if s.Reservations == nil || reservationID == "" {
		return
	}
	value, _ := json.Marshal(reservationID)
	if _, err := s.Reservations.Put(ctx, owner, "reservation_"+itemID, value); err != nil {
		utils.GetLogger().Warn("Failed to store reservation id", zap.String("itemId", itemID), zap.Error(err))
	}
}

// unmarkReservation drops the reservation id of itemID once c holds no line
// for that item on any date.
func (s *DefaultCartService) unmarkReservation(ctx context.Context, owner models.Owner, c *models.Cart, itemID string) {
	if s.Reservations == nil {
		return
	}
	for _, line := range c.Items {
		if line.ItemID == itemID {
			return
		}
	}
	if err := s.Reservations.Delete(ctx, owner, "reservation_"+itemID); err != nil {
		utils.GetLogger().Warn("Failed to clear reservation id", zap.String("itemId", itemID), zap.Error(err))
	}
}

// AddItem reserves the line's hours and merges it into the cart only once the
// reservation succeeded.
func (s *DefaultCartService) AddItem(ctx context.Context, owner models.Owner, line models.CartItem) (*models.Cart, error) {
	line, err := normalizeLine(line)
	if err != nil {
		return nil, err
	}

	if ac, ok := s.catalogueContext(ctx, line.ItemID); ok {
		line = enrich(line, ac.Item)
		line.Total = lineTotal(line.Price, line.Quantity)
		if s.Resolver != nil {
			if date, ok := s.Resolver.ParseDate(line.BookingDate); ok {
				if err := s.Resolver.ValidateBookingRequest(date, line.StartTime, line.Quantity, ac); err != nil {
					return nil, err
				}
			}
		}
	}

	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	in, err := s.begin(ctx, owner, line, models.IntentReserve, line.Quantity)
	if err != nil {
		return nil, err
	}
	reservationID, err := s.Bookings.ReserveItemTimeSlots(ctx, gateway.ReserveRequest{
		ItemID:         line.ItemID,
		BookingDate:    line.BookingDate,
		StartTime:      line.StartTime,
		Hours:          line.Quantity,
		CustomerName:   line.CustomerName,
		CustomerPhone:  line.CustomerPhone,
		Comment:        line.Comment,
		IdempotencyKey: in.ID,
	})
	if err != nil {
		s.settle(ctx, in, "", err)
		return nil, fmt.Errorf("reserve time slots: %w", err)
	}

	line.ReservationID = reservationID
	line.AddedAt = s.now().UTC()
	c.Items = mergeLine(c.Items, line)
	if err := s.save(ctx, owner, c); err != nil {
		req := slotRequest(line, "")
		s.compensate(ctx, in, s.Bookings.ReleaseTimeSlots, req, err)
		return nil, err
	}
	s.settle(ctx, in, reservationID, nil)
	s.markReservation(ctx, owner, line.ItemID, reservationID)
	return c, nil
}

// Increment extends a line by one hour after the upstream reserved it.
func (s *DefaultCartService) Increment(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error) {
	bookingDate, ok := availability.NormalizeDate(bookingDate)
	if !ok {
		return nil, ErrInvalidLine
	}
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := findLine(c.Items, itemID, bookingDate)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	line := c.Items[i]

	// Advisory only; the upstream reservation stays authoritative.
	if ac, ok := s.catalogueContext(ctx, itemID); ok && s.Resolver != nil {
		if date, ok := s.Resolver.ParseDate(bookingDate); ok {
			if line.Quantity+1 > s.Resolver.RemainingContiguousHours(date, line.StartTime, line.Quantity, ac) {
				return nil, ErrExceedsAvailability
			}
		}
	}

	in, err := s.begin(ctx, owner, line, models.IntentReserveNext, 1)
	if err != nil {
		return nil, err
	}
	reservationID, err := s.Bookings.ReserveNextTimeSlot(ctx, slotRequest(line, in.ID))
	if err != nil {
		s.settle(ctx, in, "", err)
		return nil, fmt.Errorf("reserve next time slot: %w", err)
	}

	line.Quantity++
	line.Total = lineTotal(line.Price, line.Quantity)
	if line.ReservationID == "" {
		line.ReservationID = reservationID
	}
	c.Items[i] = line
	if err := s.save(ctx, owner, c); err != nil {
		s.compensate(ctx, in, s.Bookings.ReleaseLastTimeSlot, slotRequest(line, ""), err)
		return nil, err
	}
	s.settle(ctx, in, reservationID, nil)
	return c, nil
}

// Decrement releases the line's last hour; a line reaching zero is removed.
func (s *DefaultCartService) Decrement(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error) {
	bookingDate, ok := availability.NormalizeDate(bookingDate)
	if !ok {
		return nil, ErrInvalidLine
	}
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := findLine(c.Items, itemID, bookingDate)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	line := c.Items[i]

	in, err := s.begin(ctx, owner, line, models.IntentReleaseLast, 1)
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.ReleaseLastTimeSlot(ctx, slotRequest(line, in.ID)); err != nil {
		s.settle(ctx, in, "", err)
		return nil, fmt.Errorf("release last time slot: %w", err)
	}
	s.settle(ctx, in, "", nil)

	prev := line
	line.Quantity--
	removed := line.Quantity <= 0
	if removed {
		c.Items = removeLine(c.Items, i)
	} else {
		line.Total = lineTotal(line.Price, line.Quantity)
		c.Items[i] = line
	}
	if err := s.save(ctx, owner, c); err != nil {
		if removed {
			s.restore(ctx, owner, prev, models.IntentReserve)
		} else {
			s.restore(ctx, owner, line, models.IntentReserveNext)
		}
		return nil, err
	}
	if removed {
		s.unmarkReservation(ctx, owner, c, itemID)
	}
	return c, nil
}

// RemoveItem releases every hour of the line before dropping it.
func (s *DefaultCartService) RemoveItem(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*models.Cart, error) {
	bookingDate, ok := availability.NormalizeDate(bookingDate)
	if !ok {
		return nil, ErrInvalidLine
	}
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := findLine(c.Items, itemID, bookingDate)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	line := c.Items[i]
	if err := s.release(ctx, owner, line); err != nil {
		return nil, err
	}

	c.Items = removeLine(c.Items, i)
	if err := s.save(ctx, owner, c); err != nil {
		s.restore(ctx, owner, line, models.IntentReserve)
		return nil, err
	}
	s.unmarkReservation(ctx, owner, c, itemID)
	return c, nil
}

func (s *DefaultCartService) release(ctx context.Context, owner models.Owner, line models.CartItem) error {
	in, err := s.begin(ctx, owner, line, models.IntentReleaseAll, line.Quantity)
	if err != nil {
		return err
	}
	if err := s.Bookings.ReleaseTimeSlots(ctx, slotRequest(line, in.ID)); err != nil {
		s.settle(ctx, in, "", err)
		return fmt.Errorf("release time slots for %s: %w", line.ItemID, err)
	}
	s.settle(ctx, in, "", nil)
	return nil
}

// Clear releases every line. Lines whose release failed stay in the cart and
// the failures are returned joined with ErrPartialClear alongside the cart.
func (s *DefaultCartService) Clear(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	kept := []models.CartItem{}
	var released []models.CartItem
	var failures []error
	for _, line := range c.Items {
		if err := s.release(ctx, owner, line); err != nil {
			kept = append(kept, line)
			failures = append(failures, err)
			continue
		}
		released = append(released, line)
	}

	c.Items = kept
	if err := s.save(ctx, owner, c); err != nil {
		for _, line := range released {
			s.restore(ctx, owner, line, models.IntentReserve)
		}
		return nil, err
	}
	for _, line := range released {
		s.unmarkReservation(ctx, owner, c, line.ItemID)
	}
	if len(failures) > 0 {
		return c, errors.Join(append([]error{ErrPartialClear}, failures...)...)
	}
	return c, nil
}

// Replace overwrites the cart with items, deduplicated by item and date.
// Lines are persisted as given; no reservation calls are made.
func (s *DefaultCartService) Replace(ctx context.Context, owner models.Owner, items []models.CartItem) (*models.Cart, error) {
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	merged := []models.CartItem{}
	for _, it := range items {
		line, err := normalizeLine(it)
		if err != nil {
			return nil, err
		}
		merged = mergeLine(merged, line)
	}
	c.Items = merged
	if err := s.save(ctx, owner, c); err != nil {
		return nil, err
	}
	return c, nil
}

// MergeAnonymous folds a session cart into the user's cart and deletes it.
func (s *DefaultCartService) MergeAnonymous(ctx context.Context, session, user models.Owner) (*models.Cart, error) {
	anon, err := s.Store.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	c, err := s.Store.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(anon.Items) == 0 {
		return c, nil
	}

	c.Items = mergeLines(c.Items, anon.Items)
	if err := s.save(ctx, user, c); err != nil {
		return nil, err
	}
	if err := s.Store.Delete(ctx, session); err != nil {
		utils.GetLogger().Warn("Failed to delete merged session cart", zap.String("session", session.ID), zap.Error(err))
	}
	for _, line := range anon.Items {
		s.markReservation(ctx, user, line.ItemID, line.ReservationID)
	}
	return c, nil
}
