package clientstate

import "strings"

const (
	KeyReservationPrefix  = "reservation_"
	KeyCustomerPhone      = "customerPhone"
	KeyCustomerName       = "customerName"
	KeyUserLocation       = "userLocation"
	KeyTheme              = "studioz-theme"
	KeyReservationFilters = "reservations_filters"
)

var fixedKeys = map[string]bool{
	KeyCustomerPhone:      true,
	KeyCustomerName:       true,
	KeyUserLocation:       true,
	KeyTheme:              true,
	KeyReservationFilters: true,
}

// AllowedKey reports whether key is one the front end may persist.
func AllowedKey(key string) bool {
	if fixedKeys[key] {
		return true
	}
	itemID, ok := strings.CutPrefix(key, KeyReservationPrefix)
	return ok && itemID != "" && !strings.ContainsAny(itemID, " /")
}

// ReservationKey is the entry holding the reservation id of a cart line.
func ReservationKey(itemID string) string {
	return KeyReservationPrefix + itemID
}

// family groups keys that share migrations.
func family(key string) string {
	if strings.HasPrefix(key, KeyReservationPrefix) {
		return KeyReservationPrefix
	}
	return key
}
