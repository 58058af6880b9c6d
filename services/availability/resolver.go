package availability

import (
	"math"
	"strings"
	"time"

	"studioz/models"
)

type Reason string

const (
	ReasonClosed         Reason = "closed"
	ReasonAdvanceBooking Reason = "advance_booking"
	ReasonNoSlots        Reason = "no_slots"
	ReasonMinDuration    Reason = "min_duration"
)

const (
	isoDateLayout  = "2006-01-02"
	itemDateLayout = "02/01/2006"

	// bookingHorizonMonths bounds how far ahead the calendar offers dates.
	bookingHorizonMonths = 3
)

// Context holds everything needed to evaluate one item.
type Context struct {
	Item         models.Item
	Studio       *models.Studio
	SelectedDate string // "YYYY-MM-DD" or "DD/MM/YYYY"
}

func (c Context) studioAvailability() *models.StudioAvailability {
	if c.Studio == nil {
		return nil
	}
	return &c.Studio.StudioAvailability
}

type DateResult struct {
	IsBookable     bool     `json:"isBookable"`
	AvailableSlots []string `json:"availableSlots"`
	Reason         Reason   `json:"reason,omitempty"`
}

type TimeSlotResult struct {
	Slot                string `json:"slot"`
	IsAvailable         bool   `json:"isAvailable"`
	MaxConsecutiveHours int    `json:"maxConsecutiveHours"`
}

// Resolver evaluates availability against a clock in the studios' time zone.
type Resolver struct {
	now func() time.Time
	loc *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{now: time.Now, loc: loc}
}

// WithClock returns a copy of the resolver reading time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	cp := *r
	cp.now = now
	return &cp
}

func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// ParseDate accepts "YYYY-MM-DD" and "DD/MM/YYYY" and returns local midnight.
func (r *Resolver) ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{isoDateLayout, itemDateLayout} {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites "YYYY-MM-DD" or "DD/MM/YYYY" as "DD/MM/YYYY".
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{isoDateLayout, itemDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatItemDate(t), true
		}
	}
	return "", false
}

// FormatItemDate renders a date the way carts and item availability store it.
func FormatItemDate(t time.Time) string {
	return t.Format(itemDateLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *Resolver) startOfDay(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
}

func (r *Resolver) MinBookableDate(item models.Item) time.Time {
	return AddDuration(r.Now(), item.AdvanceBookingRequired)
}

func (r *Resolver) BookableDateRange(item models.Item) (time.Time, time.Time) {
	return r.MinBookableDate(item), r.Now().AddDate(0, bookingHorizonMonths, 0)
}

// IsStudioOpenOnDay treats an unconfigured schedule as open every day.
func IsStudioOpenOnDay(date time.Time, sa *models.StudioAvailability) bool {
	if sa == nil || len(sa.Days) == 0 {
		return true
	}
	return FindDayIndex(sa.Days, date.Weekday()) != -1
}

func StudioTimesForDay(date time.Time, sa *models.StudioAvailability) *models.TimeRange {
	if sa == nil || len(sa.Days) == 0 || len(sa.Times) == 0 {
		return nil
	}
	idx := FindDayIndex(sa.Days, date.Weekday())
	if idx == -1 || idx >= len(sa.Times) {
		return nil
	}
	t := sa.Times[idx]
	return &t
}

// ClosingHourForDay returns the closing hour, 24 when open until midnight or unknown.
func ClosingHourForDay(date time.Time, sa *models.StudioAvailability) int {
	times := StudioTimesForDay(date, sa)
	if times == nil || times.End == "" {
		return hoursPerDay
	}
	h, ok := endHour(times.End)
	if !ok {
		return hoursPerDay
	}
	return h
}

func (r *Resolver) MeetsAdvanceBookingRequirement(date time.Time, item models.Item) bool {
	if item.AdvanceBookingRequired == nil || item.AdvanceBookingRequired.Value == 0 {
		return true
	}
	return !r.startOfDay(date).Before(r.startOfDay(r.MinBookableDate(item)))
}

func studioSlotsForDate(date time.Time, sa *models.StudioAvailability) []string {
	if dayTimes := StudioTimesForDay(date, sa); dayTimes != nil {
		return GenerateHoursFromTimeRanges([]models.TimeRange{*dayTimes})
	}
	if sa == nil {
		return GenerateHoursFromTimeRanges(nil)
	}
	return GenerateHoursFromTimeRanges(sa.Times)
}

func itemAvailabilityFor(item models.Item, date time.Time) *models.DateAvailability {
	key := FormatItemDate(date)
	for i := range item.Availability {
		if item.Availability[i].Date == key {
			return &item.Availability[i]
		}
	}
	return nil
}

// AvailableSlotsForDate lists the open hourly slots of an item on date.
// Minimum duration is not applied here; see IsDateBookable.
func (r *Resolver) AvailableSlotsForDate(date time.Time, c Context) []string {
	date = date.In(r.loc)
	sa := c.studioAvailability()
	studioSlots := studioSlotsForDate(date, sa)
	slots := studioSlots

	exception := itemAvailabilityFor(c.Item, date)
	if exception != nil {
		slots = filter(slots, func(s string) bool { return contains(exception.Times, s) })

		if c.Item.PreparationTime != nil && c.Item.PreparationTime.Value != 0 {
			booked := filter(studioSlots, func(s string) bool { return !contains(exception.Times, s) })
			buffer := PreparationTimeBuffer(booked, c.Item.PreparationTime)
			slots = filter(slots, func(s string) bool { return !contains(buffer, s) })
		}
	}

	now := r.Now()
	if sameDay(date, now) && c.Item.AdvanceBookingRequired != nil && c.Item.AdvanceBookingRequired.Value != 0 {
		minTime := AddDuration(now, c.Item.AdvanceBookingRequired)
		if !sameDay(minTime, date) {
			return []string{}
		}
		minHour := minTime.Hour()
		slots = filter(slots, func(s string) bool {
			h, ok := slotHour(s)
			return ok && h >= minHour
		})
	}

	return slots
}

func MinimumHours(item models.Item) int {
	if item.MinimumBookingDuration == nil || item.MinimumBookingDuration.Value == 0 {
		return 1
	}
	h := int(math.Ceil(DurationToHours(item.MinimumBookingDuration)))
	if h < 1 {
		return 1
	}
	return h
}

// IsDateBookable runs the closed, advance notice, slots and minimum duration checks in order.
func (r *Resolver) IsDateBookable(date time.Time, c Context) DateResult {
	if !IsStudioOpenOnDay(date.In(r.loc), c.studioAvailability()) {
		return DateResult{AvailableSlots: []string{}, Reason: ReasonClosed}
	}
	if !r.MeetsAdvanceBookingRequirement(date, c.Item) {
		return DateResult{AvailableSlots: []string{}, Reason: ReasonAdvanceBooking}
	}

	slots := r.AvailableSlotsForDate(date, c)
	if len(slots) == 0 {
		return DateResult{AvailableSlots: []string{}, Reason: ReasonNoSlots}
	}

	minHours := MinimumHours(c.Item)
	for _, s := range slots {
		if MaxConsecutiveHours(s, slots) >= minHours {
			return DateResult{IsBookable: true, AvailableSlots: slots}
		}
	}
	return DateResult{AvailableSlots: slots, Reason: ReasonMinDuration}
}

// Resolve evaluates c.SelectedDate. Missing or unparsable input is never bookable.
func (r *Resolver) Resolve(c Context) DateResult {
	if c.Item.ID == "" {
		return DateResult{AvailableSlots: []string{}}
	}
	date, ok := r.ParseDate(c.SelectedDate)
	if !ok {
		return DateResult{AvailableSlots: []string{}}
	}
	return r.IsDateBookable(date, c)
}

func (r *Resolver) TimeSlotsWithMetadata(date time.Time, c Context) []TimeSlotResult {
	available := r.AvailableSlotsForDate(date, c)
	var all []string
	if sa := c.studioAvailability(); sa != nil {
		all = GenerateHoursFromTimeRanges(sa.Times)
	} else {
		all = GenerateHoursFromTimeRanges(nil)
	}

	out := make([]TimeSlotResult, 0, len(all))
	for _, s := range all {
		res := TimeSlotResult{Slot: s, IsAvailable: contains(available, s)}
		if res.IsAvailable {
			res.MaxConsecutiveHours = MaxConsecutiveHours(s, available)
		}
		out = append(out, res)
	}
	return out
}

// MaximumHours is the longest booking possible from start, capped per item.
func (r *Resolver) MaximumHours(start string, date time.Time, c Context) int {
	maxConsecutive := MaxConsecutiveHours(start, r.AvailableSlotsForDate(date, c))
	if c.Item.MaxQuantityPerBooking > 0 && c.Item.MaxQuantityPerBooking < maxConsecutive {
		return c.Item.MaxQuantityPerBooking
	}
	return maxConsecutive
}

// RemainingContiguousHours bounds a cart line starting at start. Hours already
// held by the line count as open even when the item data lists them as taken.
func (r *Resolver) RemainingContiguousHours(date time.Time, start string, held int, c Context) int {
	available := r.AvailableSlotsForDate(date, c)
	for _, s := range RequiredSlots(start, held) {
		if !contains(available, s) {
			available = append(available, s)
		}
	}

	remaining := MaxConsecutiveHours(start, available)
	if closing := ClosingHourForDay(date.In(r.loc), c.studioAvailability()); closing < hoursPerDay {
		if h, ok := slotHour(start); ok && closing-h < remaining {
			remaining = max(closing-h, 0)
		}
	}
	if c.Item.MaxQuantityPerBooking > 0 && c.Item.MaxQuantityPerBooking < remaining {
		return c.Item.MaxQuantityPerBooking
	}
	return remaining
}
