package availability

import (
	"math"
	"time"

	"studioz/models"
)

func DurationToHours(d *models.Duration) float64 {
	if d == nil || d.Value == 0 {
		return 0
	}
	switch d.Unit {
	case "minutes":
		return d.Value / 60
	case "days":
		return d.Value * 24
	default:
		return d.Value
	}
}

func DurationToMinutes(d *models.Duration) float64 {
	if d == nil || d.Value == 0 {
		return 0
	}
	switch d.Unit {
	case "minutes":
		return d.Value
	case "days":
		return d.Value * 24 * 60
	default:
		return d.Value * 60
	}
}

// AddDuration adds d to t; whole days are added on the calendar.
func AddDuration(t time.Time, d *models.Duration) time.Time {
	if d == nil || d.Value == 0 {
		return t
	}
	if d.Unit == "days" && d.Value == math.Trunc(d.Value) {
		return t.AddDate(0, 0, int(d.Value))
	}
	return t.Add(time.Duration(DurationToMinutes(d) * float64(time.Minute)))
}
