package cart

import (
	"github.com/shopspring/decimal"

	"studioz/models"
	"studioz/services/availability"
)

// lineTotal is price × quantity rounded to agorot.
func lineTotal(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

func sameLine(a models.CartItem, itemID, bookingDate string) bool {
	return a.ItemID == itemID && a.BookingDate == bookingDate
}

func findLine(items []models.CartItem, itemID, bookingDate string) int {
	for i, it := range items {
		if sameLine(it, itemID, bookingDate) {
			return i
		}
	}
	return -1
}

// canonicalDate returns the stored form of a booking date, or s unchanged
// when it does not parse.
func canonicalDate(s string) string {
	if d, ok := availability.NormalizeDate(s); ok {
		return d
	}
	return s
}

// normalizeLine checks the identifying fields and fills defaults. Booking
// dates are stored as "DD/MM/YYYY".
func normalizeLine(it models.CartItem) (models.CartItem, error) {
	if it.ItemID == "" || it.BookingDate == "" || it.StartTime == "" {
		return it, ErrInvalidLine
	}
	date, ok := availability.NormalizeDate(it.BookingDate)
	if !ok {
		return it, ErrInvalidLine
	}
	it.BookingDate = date
	start, ok := availability.NormalizeSlot(it.StartTime)
	if !ok {
		return it, ErrInvalidLine
	}
	it.StartTime = start
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	it.Total = lineTotal(it.Price, it.Quantity)
	return it, nil
}

// mergeLine adds line to items. A line for the same item and date has its
// quantity summed and total recomputed instead of being duplicated.
func mergeLine(items []models.CartItem, line models.CartItem) []models.CartItem {
	if i := findLine(items, line.ItemID, line.BookingDate); i >= 0 {
		existing := items[i]
		existing.Quantity += line.Quantity
		existing.Total = lineTotal(existing.Price, existing.Quantity)
		if existing.ReservationID == "" {
			existing.ReservationID = line.ReservationID
		}
		out := append([]models.CartItem(nil), items...)
		out[i] = existing
		return out
	}
	return append(append([]models.CartItem(nil), items...), line)
}

func mergeLines(items, incoming []models.CartItem) []models.CartItem {
	out := append([]models.CartItem{}, items...)
	for _, it := range incoming {
		out = mergeLine(out, it)
	}
	return out
}

func removeLine(items []models.CartItem, i int) []models.CartItem {
	out := make([]models.CartItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
