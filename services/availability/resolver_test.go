package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioz/models"
)

// 2026-10-14 is a Wednesday; 2026-10-18 a Sunday.
func fixedResolver(hour, minute int) *Resolver {
	now := time.Date(2026, 10, 14, hour, minute, 0, 0, time.UTC)
	return NewResolver(time.UTC).WithClock(func() time.Time { return now })
}

func sundayStudio(days ...string) *models.Studio {
	if len(days) == 0 {
		days = []string{"Sunday"}
	}
	return &models.Studio{
		ID: "studio-1",
		StudioAvailability: models.StudioAvailability{
			Days:  days,
			Times: []models.TimeRange{{Start: "10:00", End: "18:00"}},
		},
	}
}

func TestResolveClosedDay(t *testing.T) {
	r := fixedResolver(9, 30)
	res := r.Resolve(Context{
		Item:         models.Item{ID: "item-1", Price: 100},
		Studio:       sundayStudio(),
		SelectedDate: "2026-10-19",
	})

	assert.Equal(t, DateResult{IsBookable: false, AvailableSlots: []string{}, Reason: ReasonClosed}, res)
}

func TestResolveOpenDayEnglishAndHebrew(t *testing.T) {
	r := fixedResolver(9, 30)
	want := []string{"10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

	for _, studio := range []*models.Studio{sundayStudio(), sundayStudio("ראשון")} {
		res := r.Resolve(Context{Item: models.Item{ID: "item-1"}, Studio: studio, SelectedDate: "18/10/2026"})
		assert.True(t, res.IsBookable)
		assert.Empty(t, res.Reason)
		assert.Equal(t, want, res.AvailableSlots)
	}
}

func TestResolveMissingData(t *testing.T) {
	r := fixedResolver(9, 30)

	assert.False(t, r.Resolve(Context{Item: models.Item{ID: "item-1"}}).IsBookable)
	assert.False(t, r.Resolve(Context{Item: models.Item{ID: "item-1"}, SelectedDate: "not-a-date"}).IsBookable)
	assert.False(t, r.Resolve(Context{SelectedDate: "2026-10-18"}).IsBookable)
}

func TestItemExceptionAndMinimumDuration(t *testing.T) {
	r := fixedResolver(9, 30)
	item := models.Item{
		ID: "item-1",
		Availability: []models.DateAvailability{
			{Date: "18/10/2026", Times: []string{"10:00", "11:00", "14:00", "15:00", "16:00"}},
		},
		MinimumBookingDuration: &models.Duration{Value: 3, Unit: "hours"},
	}
	date := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	res := r.IsDateBookable(date, Context{Item: item, Studio: sundayStudio()})
	assert.True(t, res.IsBookable)
	assert.Equal(t, []string{"10:00", "11:00", "14:00", "15:00", "16:00"}, res.AvailableSlots)

	item.MinimumBookingDuration = &models.Duration{Value: 240, Unit: "minutes"}
	res = r.IsDateBookable(date, Context{Item: item, Studio: sundayStudio()})
	assert.False(t, res.IsBookable)
	assert.Equal(t, ReasonMinDuration, res.Reason)
	assert.Len(t, res.AvailableSlots, 5)
}

func TestPreparationTimeBuffer(t *testing.T) {
	buffer := PreparationTimeBuffer([]string{"13:00", "12:00"}, &models.Duration{Value: 60, Unit: "minutes"})
	assert.Equal(t, []string{"11:00", "15:00"}, buffer)

	assert.Nil(t, PreparationTimeBuffer(nil, &models.Duration{Value: 1}))
	assert.Nil(t, PreparationTimeBuffer([]string{"12:00"}, nil))
}

func TestAvailableSlotsApplyPreparationBuffer(t *testing.T) {
	r := fixedResolver(9, 30)
	item := models.Item{
		ID: "item-1",
		Availability: []models.DateAvailability{
			{Date: "18/10/2026", Times: []string{"10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}},
		},
		PreparationTime: &models.Duration{Value: 1, Unit: "hours"},
	}
	date := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	slots := r.AvailableSlotsForDate(date, Context{Item: item, Studio: sundayStudio()})
	assert.Equal(t, []string{"10:00", "14:00", "16:00", "17:00"}, slots)
}

func TestAdvanceBooking(t *testing.T) {
	r := fixedResolver(9, 30)
	item := models.Item{ID: "item-1", AdvanceBookingRequired: &models.Duration{Value: 2, Unit: "days"}}

	tomorrow := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	res := r.IsDateBookable(tomorrow, Context{Item: item})
	assert.Equal(t, ReasonAdvanceBooking, res.Reason)
	assert.Empty(t, res.AvailableSlots)

	later := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.True(t, r.IsDateBookable(later, Context{Item: item}).IsBookable)
}

func TestSameDayAdvanceNoticeTrimsEarlyHours(t *testing.T) {
	item := models.Item{ID: "item-1", AdvanceBookingRequired: &models.Duration{Value: 3, Unit: "hours"}}
	today := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	slots := fixedResolver(9, 30).AvailableSlotsForDate(today, Context{Item: item})
	require.Len(t, slots, 12)
	assert.Equal(t, "12:00", slots[0])
	assert.Equal(t, "23:00", slots[11])

	late := fixedResolver(22, 30)
	assert.Empty(t, late.AvailableSlotsForDate(today, Context{Item: item}))
	assert.Equal(t, ReasonAdvanceBooking, late.IsDateBookable(today, Context{Item: item}).Reason)
}

func TestGenerateHoursFromTimeRanges(t *testing.T) {
	assert.Len(t, GenerateHoursFromTimeRanges(nil), 24)

	late := GenerateHoursFromTimeRanges([]models.TimeRange{{Start: "09:00", End: "23:59"}})
	assert.Len(t, late, 15)
	assert.Equal(t, "23:00", late[len(late)-1])

	overlap := GenerateHoursFromTimeRanges([]models.TimeRange{
		{Start: "11:00", End: "14:00"},
		{Start: "10:00", End: "12:00"},
	})
	assert.Equal(t, []string{"10:00", "11:00", "12:00", "13:00"}, overlap)
}

func TestClosingHourForDay(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 18, ClosingHourForDay(sunday, &sundayStudio().StudioAvailability))

	late := models.StudioAvailability{Days: []string{"Sunday"}, Times: []models.TimeRange{{Start: "10:00", End: "23:59"}}}
	assert.Equal(t, 24, ClosingHourForDay(sunday, &late))
	assert.Equal(t, 24, ClosingHourForDay(sunday, nil))
}

func TestMaxConsecutiveHours(t *testing.T) {
	slots := []string{"13:00", "10:00", "11:00"}
	assert.Equal(t, 2, MaxConsecutiveHours("10:00", slots))
	assert.Equal(t, 1, MaxConsecutiveHours("13:00", slots))
	assert.Equal(t, 0, MaxConsecutiveHours("12:00", slots))

	assert.Equal(t, []string{"10:00"}, FilterSlotsByMinimumDuration(slots, 2))
	assert.Equal(t, []string{"22:00", "23:00"}, RequiredSlots("22:00", 3))
}

func TestValidateBookingRequest(t *testing.T) {
	r := fixedResolver(9, 30)
	c := Context{Item: models.Item{ID: "item-1"}, Studio: sundayStudio()}
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	assert.NoError(t, r.ValidateBookingRequest(sunday, "10:00", 2, c))

	cases := []struct {
		date  time.Time
		start string
		hours int
		code  string
	}{
		{monday, "10:00", 1, CodeDateUnavailable},
		{sunday, "09:00", 1, CodeSlotUnavailable},
		{sunday, "16:00", 3, CodeAboveMaximum},
		{sunday, "10:00", 0, CodeBelowMinimum},
	}
	for _, tc := range cases {
		err := r.ValidateBookingRequest(tc.date, tc.start, tc.hours, c)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), tc.code)
		assert.Equal(t, tc.code, verr.Code)
	}
}

func TestRemainingContiguousHours(t *testing.T) {
	r := fixedResolver(9, 30)
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	blocked := models.Item{ID: "item-1", Availability: []models.DateAvailability{
		{Date: "18/10/2026", Times: []string{"10:00", "11:00", "12:00", "15:00"}},
	}}
	assert.Equal(t, 1, r.RemainingContiguousHours(sunday, "13:00", 1, Context{Item: blocked, Studio: sundayStudio()}))

	open := models.Item{ID: "item-1", Availability: []models.DateAvailability{
		{Date: "18/10/2026", Times: []string{"14:00", "15:00"}},
	}}
	assert.Equal(t, 3, r.RemainingContiguousHours(sunday, "13:00", 1, Context{Item: open, Studio: sundayStudio()}))

	open.MaxQuantityPerBooking = 2
	assert.Equal(t, 2, r.RemainingContiguousHours(sunday, "13:00", 1, Context{Item: open, Studio: sundayStudio()}))
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 1.5, DurationToHours(&models.Duration{Value: 90, Unit: "minutes"}))
	assert.Equal(t, 24.0, DurationToHours(&models.Duration{Value: 1, Unit: "days"}))
	assert.Equal(t, 120.0, DurationToMinutes(&models.Duration{Value: 2}))
	assert.Equal(t, 0.0, DurationToHours(nil))

	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, base.AddDate(0, 0, 2), AddDuration(base, &models.Duration{Value: 2, Unit: "days"}))
	assert.Equal(t, base.Add(45*time.Minute), AddDuration(base, &models.Duration{Value: 45, Unit: "minutes"}))
}

func TestBookableDateRange(t *testing.T) {
	r := fixedResolver(9, 30)
	from, until := r.BookableDateRange(models.Item{AdvanceBookingRequired: &models.Duration{Value: 1, Unit: "days"}})
	assert.Equal(t, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, 1, 14, 9, 30, 0, 0, time.UTC), until)
}
