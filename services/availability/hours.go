package availability

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"studioz/models"
)

const hoursPerDay = 24

func slotLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// slotHour reads the hour part of "HH:MM".
func slotHour(slot string) (int, bool) {
	h, _, _ := strings.Cut(slot, ":")
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, false
	}
	return n, true
}

func allDayHours() []string {
	out := make([]string, hoursPerDay)
	for h := range out {
		out[h] = slotLabel(h)
	}
	return out
}

// endHour treats 23:59 as midnight so the 23:00 slot stays bookable.
func endHour(end string) (int, bool) {
	if end == "" || end == "23:59" {
		return hoursPerDay, true
	}
	return slotHour(end)
}

// GenerateHoursFromTimeRanges expands opening windows into hourly slots.
func GenerateHoursFromTimeRanges(ranges []models.TimeRange) []string {
	if len(ranges) == 0 {
		return allDayHours()
	}

	seen := make(map[string]bool)
	var hours []string
	for _, r := range ranges {
		start := 0
		if r.Start != "" {
			s, ok := slotHour(r.Start)
			if !ok {
				continue
			}
			start = s
		}
		end, ok := endHour(r.End)
		if !ok {
			continue
		}
		for h := max(start, 0); h < end && h < hoursPerDay; h++ {
			slot := slotLabel(h)
			if !seen[slot] {
				seen[slot] = true
				hours = append(hours, slot)
			}
		}
	}

	if len(hours) == 0 {
		return allDayHours()
	}
	sort.Strings(hours)
	return hours
}

// PreparationTimeBuffer returns the hours blocked around already booked slots.
func PreparationTimeBuffer(booked []string, prep *models.Duration) []string {
	if prep == nil || prep.Value == 0 || len(booked) == 0 {
		return nil
	}

	bufferHours := int(math.Ceil(DurationToMinutes(prep) / 60))
	sorted := append([]string(nil), booked...)
	sort.Strings(sorted)

	first, ok1 := slotHour(sorted[0])
	last, ok2 := slotHour(sorted[len(sorted)-1])
	if !ok1 || !ok2 {
		return nil
	}

	var buffered []string
	for i := 1; i <= bufferHours; i++ {
		if h := first - i; h >= 0 {
			buffered = append(buffered, slotLabel(h))
		}
	}
	for i := 1; i <= bufferHours; i++ {
		if h := last + 1 + i; h < hoursPerDay {
			buffered = append(buffered, slotLabel(h))
		}
	}
	return buffered
}

func areConsecutiveSlots(a, b string) bool {
	ha, ok1 := slotHour(a)
	hb, ok2 := slotHour(b)
	return ok1 && ok2 && hb-ha == 1
}

// MaxConsecutiveHours counts the unbroken run of hourly slots starting at start.
func MaxConsecutiveHours(start string, slots []string) int {
	sorted := append([]string(nil), slots...)
	sort.Strings(sorted)

	idx := -1
	for i, s := range sorted {
		if s == start {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0
	}

	consecutive := 1
	for i := idx + 1; i < len(sorted); i++ {
		if !areConsecutiveSlots(sorted[i-1], sorted[i]) {
			break
		}
		consecutive++
	}
	return consecutive
}

func FilterSlotsByMinimumDuration(slots []string, minHours int) []string {
	if minHours <= 1 {
		return slots
	}
	var out []string
	for _, s := range slots {
		if MaxConsecutiveHours(s, slots) >= minHours {
			out = append(out, s)
		}
	}
	return out
}

// RequiredSlots lists the hourly slots covered by a booking, clipped at midnight.
func RequiredSlots(start string, hours int) []string {
	h, ok := slotHour(start)
	if !ok {
		return nil
	}
	var out []string
	for i := 0; i < hours; i++ {
		if h+i < hoursPerDay {
			out = append(out, slotLabel(h+i))
		}
	}
	return out
}

// NormalizeSlot turns "HH:MM" into the hourly slot label it starts in.
func NormalizeSlot(t string) (string, bool) {
	h, ok := slotHour(t)
	if !ok || h < 0 || h >= hoursPerDay {
		return "", false
	}
	return slotLabel(h), true
}

func contains(slots []string, s string) bool {
	for _, v := range slots {
		if v == s {
			return true
		}
	}
	return false
}

func filter(slots []string, keep func(string) bool) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
