package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studioz/models"
	"studioz/services/availability"
	"studioz/services/gateway"
)

var (
	alice   = models.Owner{ID: "alice"}
	visitor = models.Owner{ID: "sess-1", Anonymous: true}
	fixedAt = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc      *DefaultCartService
	store    *memoryStore
	bookings *mockBookings
	intents  *recordingLog
	marker   *memoryMarker
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemoryStore(),
		bookings: &mockBookings{},
		intents:  newRecordingLog(),
		marker:   newMemoryMarker(),
	}
	f.svc = &DefaultCartService{
		Store:        f.store,
		Bookings:     f.bookings,
		Intents:      f.intents,
		Reservations: f.marker,
		Now:          func() time.Time { return fixedAt },
	}
	return f
}

func line(itemID string, qty int) models.CartItem {
	return models.CartItem{
		ItemID:      itemID,
		StudioID:    "studio-1",
		BookingDate: "18/10/2026",
		StartTime:   "10:00",
		Quantity:    qty,
		Price:       120,
		Total:       lineTotal(120, qty),
	}
}

func TestAddItemReservesThenStoresLine(t *testing.T) {
	f := newFixture()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 2 && r.StartTime == "10:00" && r.IdempotencyKey != ""
	})).Return("res-1", nil).Once()

	in := line("item-1", 2)
	in.StartTime = "10:30"
	c, err := f.svc.AddItem(context.Background(), alice, in)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "10:00", c.Items[0].StartTime)
	assert.Equal(t, 240.0, c.Items[0].Total)
	assert.Equal(t, "res-1", c.Items[0].ReservationID)
	assert.Equal(t, 1, c.Version)

	v, ok := f.marker.get(alice, "reservation_item-1")
	assert.True(t, ok)
	assert.Equal(t, `"res-1"`, v)
	assert.Equal(t, 1, f.intents.count(models.IntentCommitted))
	f.bookings.AssertExpectations(t)
}

func TestAddingSameItemAndDateMergesQuantity(t *testing.T) {
	f := newFixture()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.Anything).Return("res-1", nil).Twice()

	_, err := f.svc.AddItem(context.Background(), visitor, line("item-1", 1))
	require.NoError(t, err)
	c, err := f.svc.AddItem(context.Background(), visitor, line("item-1", 2))
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 360.0, c.Items[0].Total)
}

func TestAddingSameItemOnAnotherDateAppends(t *testing.T) {
	f := newFixture()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.Anything).Return("res-1", nil).Twice()

	_, err := f.svc.AddItem(context.Background(), alice, line("item-1", 1))
	require.NoError(t, err)
	other := line("item-1", 1)
	other.BookingDate = "19/10/2026"
	c, err := f.svc.AddItem(context.Background(), alice, other)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestAddItemRejectsIncompleteLine(t *testing.T) {
	f := newFixture()
	in := line("item-1", 1)
	in.StartTime = ""
	_, err := f.svc.AddItem(context.Background(), alice, in)
	assert.ErrorIs(t, err, ErrInvalidLine)
	f.bookings.AssertNotCalled(t, "ReserveItemTimeSlots", mock.Anything, mock.Anything)
}

func TestFailedReserveLeavesCartUnchanged(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-0", 1))
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.Anything).
		Return("", &gateway.UpstreamError{Status: 409, Message: "taken"}).Once()

	_, err := f.svc.AddItem(context.Background(), alice, line("item-1", 1))
	assert.ErrorIs(t, err, gateway.ErrSlotTaken)

	c, _ := f.store.Load(context.Background(), alice)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "item-0", c.Items[0].ItemID)
	assert.Equal(t, 1, f.intents.count(models.IntentRolledBack))
}

func TestSaveFailureAfterReserveCompensates(t *testing.T) {
	f := newFixture()
	f.store.saveErr = errors.New("redis down")
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.Anything).Return("res-1", nil).Once()
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 2
	})).Return(nil).Once()

	_, err := f.svc.AddItem(context.Background(), alice, line("item-1", 2))
	require.Error(t, err)
	f.bookings.AssertExpectations(t)
	assert.Equal(t, 1, f.intents.count(models.IntentRolledBack))
}

func TestIncrementAddsExactlyOneHour(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 2))
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.Hours == 2
	})).Return("res-1", nil).Once()

	c, err := f.svc.Increment(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 360.0, c.Items[0].Total)
}

func TestIncrementFailureLeavesQuantity(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 2))
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).Return("", gateway.ErrUnavailable).Once()

	_, err := f.svc.Increment(context.Background(), alice, "item-1", "18/10/2026")
	assert.ErrorIs(t, err, gateway.ErrUnavailable)

	c, _ := f.store.Load(context.Background(), alice)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestIncrementUnknownLine(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Increment(context.Background(), alice, "item-1", "18/10/2026")
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestIncrementChecksRemainingHours(t *testing.T) {
	f := newFixture()
	catalogue := &mockCatalogue{}
	f.svc.Catalogue = catalogue
	f.svc.Resolver = availability.NewResolver(time.UTC).WithClock(func() time.Time { return fixedAt })
	f.store.put(alice, line("item-1", 2))

	item := &models.Item{ID: "item-1", Availability: []models.DateAvailability{{Date: "18/10/2026", Times: []string{}}}}
	catalogue.On("GetItem", mock.Anything, "item-1").Return(item, nil)

	_, err := f.svc.Increment(context.Background(), alice, "item-1", "18/10/2026")
	assert.ErrorIs(t, err, ErrExceedsAvailability)
	f.bookings.AssertNotCalled(t, "ReserveNextTimeSlot", mock.Anything, mock.Anything)

	item.Availability[0].Times = []string{"12:00"}
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).Return("res-1", nil).Once()
	c, err := f.svc.Increment(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestDecrementToZeroRemovesLine(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1), line("item-2", 2))
	f.marker.entries[alice.Key()+"/reservation_item-1"] = `"res-1"`
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()

	c, err := f.svc.Decrement(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "item-2", c.Items[0].ItemID)
	_, ok := f.marker.get(alice, "reservation_item-1")
	assert.False(t, ok)
}

func TestDecrementRecomputesTotal(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 3))
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()

	c, err := f.svc.Decrement(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 240.0, c.Items[0].Total)
}

func TestFailedReleaseLeavesCartUnchanged(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1))
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(errors.New("boom")).Once()
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.Anything).Return(errors.New("boom")).Once()

	_, err := f.svc.Decrement(context.Background(), alice, "item-1", "18/10/2026")
	require.Error(t, err)
	_, err = f.svc.RemoveItem(context.Background(), alice, "item-1", "18/10/2026")
	require.Error(t, err)

	c, _ := f.store.Load(context.Background(), alice)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestRemoveItemReleasesAllHours(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 3))
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.Hours == 3
	})).Return(nil).Once()

	c, err := f.svc.RemoveItem(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestClearKeepsLinesThatFailedToRelease(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1), line("item-2", 1))
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.ItemID == "item-1"
	})).Return(nil).Once()
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.ItemID == "item-2"
	})).Return(gateway.ErrUnavailable).Once()

	c, err := f.svc.Clear(context.Background(), alice)
	assert.ErrorIs(t, err, ErrPartialClear)
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
	require.NotNil(t, c)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "item-2", c.Items[0].ItemID)
}

func TestReplaceDeduplicates(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Replace(context.Background(), alice, []models.CartItem{line("item-1", 1), line("item-1", 2), line("item-2", 1)})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	f.bookings.AssertNotCalled(t, "ReserveItemTimeSlots", mock.Anything, mock.Anything)
}

func TestMergeAnonymousCart(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1))
	anon := line("item-1", 2)
	anon.ReservationID = "res-9"
	f.store.put(visitor, anon, line("item-2", 1))

	c, err := f.svc.MergeAnonymous(context.Background(), visitor, alice)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 360.0, c.Items[0].Total)

	left, _ := f.store.Load(context.Background(), visitor)
	assert.Empty(t, left.Items)
	_, ok := f.marker.get(alice, "reservation_item-1")
	assert.True(t, ok)
}

func TestSummaryGroupsByStudio(t *testing.T) {
	f := newFixture()
	other := line("item-2", 1)
	other.StudioID = "studio-2"
	other.Price = 99.9
	f.store.put(alice, line("item-1", 2), other)

	sum, err := f.svc.Summary(context.Background(), alice, "")
	require.NoError(t, err)
	require.Len(t, sum.Studios, 2)
	assert.Equal(t, 240.0, sum.Studios[0].Subtotal)
	assert.Equal(t, 2, sum.Studios[0].Hours)
	assert.Equal(t, 339.9, sum.Subtotal)
	assert.Equal(t, 339.9, sum.Total)
}

func TestSummaryAppliesCouponToFirstAcceptingStudio(t *testing.T) {
	f := newFixture()
	catalogue := &mockCatalogue{}
	f.svc.Catalogue = catalogue
	other := line("item-2", 1)
	other.StudioID = "studio-2"
	f.store.put(alice, line("item-1", 2), other)

	catalogue.On("ValidateStudioCoupon", mock.Anything, "SAVE10", "studio-1", 240.0).Return(nil, gateway.ErrInvalidCoupon)
	catalogue.On("ValidateStudioCoupon", mock.Anything, "SAVE10", "studio-2", 120.0).
		Return(&models.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: 10}, nil)

	sum, err := f.svc.Summary(context.Background(), alice, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 12.0, sum.Discount)
	assert.Equal(t, 348.0, sum.Total)
	assert.Equal(t, "SAVE10", sum.Coupon)
}

func TestCouponDiscountNeverExceedsSubtotal(t *testing.T) {
	f := newFixture()
	catalogue := &mockCatalogue{}
	f.svc.Catalogue = catalogue
	f.store.put(alice, line("item-1", 1))
	catalogue.On("ValidateStudioCoupon", mock.Anything, "BIG", "studio-1", 120.0).
		Return(&models.Coupon{Code: "BIG", DiscountType: "fixed", DiscountValue: 500}, nil)

	sum, err := f.svc.Summary(context.Background(), alice, "BIG")
	require.NoError(t, err)
	assert.Equal(t, 120.0, sum.Discount)
	assert.Zero(t, sum.Total)
}

func TestSummaryRejectsUnknownCoupon(t *testing.T) {
	f := newFixture()
	catalogue := &mockCatalogue{}
	f.svc.Catalogue = catalogue
	f.store.put(alice, line("item-1", 1))
	catalogue.On("ValidateStudioCoupon", mock.Anything, "NOPE", "studio-1", 120.0).Return(nil, gateway.ErrInvalidCoupon)

	_, err := f.svc.Summary(context.Background(), alice, "NOPE")
	assert.ErrorIs(t, err, gateway.ErrInvalidCoupon)
}

func TestISODateIsStoredAsItemDateAndMerges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.BookingDate == "18/10/2026"
	})).Return("res-1", nil).Twice()

	iso := line("item-1", 1)
	iso.BookingDate = "2026-10-18"
	_, err := f.svc.AddItem(ctx, alice, iso)
	require.NoError(t, err)

	c, err := f.svc.AddItem(ctx, alice, line("item-1", 1))
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "18/10/2026", c.Items[0].BookingDate)
	assert.Equal(t, 2, c.Items[0].Quantity)

	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()
	c, err = f.svc.Decrement(ctx, alice, "item-1", "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
	f.bookings.AssertExpectations(t)
}

func TestAddItemRejectsUnparsableDate(t *testing.T) {
	f := newFixture()
	bad := line("item-1", 1)
	bad.BookingDate = "next tuesday"

	_, err := f.svc.AddItem(context.Background(), alice, bad)
	assert.ErrorIs(t, err, ErrInvalidLine)
	f.bookings.AssertNotCalled(t, "ReserveItemTimeSlots", mock.Anything, mock.Anything)

	_, err = f.svc.RemoveItem(context.Background(), alice, "item-1", "next tuesday")
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestSaveFailureAfterDecrementRestoresHour(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 3))
	f.store.saveErr = errors.New("redis down")
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.MatchedBy(func(r gateway.SlotRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 2
	})).Return("res-1", nil).Once()

	_, err := f.svc.Decrement(context.Background(), alice, "item-1", "18/10/2026")
	require.Error(t, err)
	f.bookings.AssertExpectations(t)

	c, _ := f.store.Load(context.Background(), alice)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 2, f.intents.count(models.IntentCommitted))
}

func TestSaveFailureAfterDecrementToZeroReReservesLine(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1))
	f.store.saveErr = errors.New("redis down")
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 1
	})).Return("res-2", nil).Once()

	_, err := f.svc.Decrement(context.Background(), alice, "item-1", "18/10/2026")
	require.Error(t, err)
	f.bookings.AssertExpectations(t)
}

func TestSaveFailureAfterRemoveReReservesLine(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 2))
	f.store.saveErr = errors.New("redis down")
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.Anything).Return(nil).Once()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 2 && r.StartTime == "10:00"
	})).Return("res-2", nil).Once()

	_, err := f.svc.RemoveItem(context.Background(), alice, "item-1", "18/10/2026")
	require.Error(t, err)
	f.bookings.AssertExpectations(t)
}

func TestSaveFailureAfterClearReReservesReleasedLines(t *testing.T) {
	f := newFixture()
	f.store.put(alice, line("item-1", 1), line("item-2", 2))
	f.store.saveErr = errors.New("redis down")
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.Anything).Return(nil).Twice()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.ItemID == "item-1" && r.Hours == 1
	})).Return("res-1", nil).Once()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.ItemID == "item-2" && r.Hours == 2
	})).Return("res-2", nil).Once()

	_, err := f.svc.Clear(context.Background(), alice)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartialClear)
	f.bookings.AssertExpectations(t)
}

func TestReservationMarkerSurvivesWhileAnotherDateRemains(t *testing.T) {
	f := newFixture()
	other := line("item-1", 1)
	other.BookingDate = "19/10/2026"
	f.store.put(alice, line("item-1", 1), other)
	f.marker.entries[alice.Key()+"/reservation_item-1"] = `"res-1"`
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := f.svc.RemoveItem(context.Background(), alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	_, ok := f.marker.get(alice, "reservation_item-1")
	assert.True(t, ok)

	_, err = f.svc.RemoveItem(context.Background(), alice, "item-1", "19/10/2026")
	require.NoError(t, err)
	_, ok = f.marker.get(alice, "reservation_item-1")
	assert.False(t, ok)
}
