package models

import "time"

type IntentKind string

const (
	IntentReserve     IntentKind = "reserve"
	IntentReserveNext IntentKind = "reserve_next"
	IntentReleaseLast IntentKind = "release_last"
	IntentReleaseAll  IntentKind = "release_all"
)

type IntentState string

const (
	IntentPending    IntentState = "pending"
	IntentCommitted  IntentState = "committed"
	IntentRolledBack IntentState = "rolled_back"
)

// ReservationIntent records one reserve/release call against the upstream bookings API.
type ReservationIntent struct {
	ID            string      `bson:"id" json:"id"`
	OwnerID       string      `bson:"ownerId" json:"ownerId"`
	ItemID        string      `bson:"itemId" json:"itemId"`
	BookingDate   string      `bson:"bookingDate" json:"bookingDate"`
	StartTime     string      `bson:"startTime" json:"startTime"`
	Kind          IntentKind  `bson:"kind" json:"kind"`
	Hours         int         `bson:"hours" json:"hours"`
	State         IntentState `bson:"state" json:"state"`
	ReservationID string      `bson:"reservationId,omitempty" json:"reservationId,omitempty"`
	Error         string      `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Compensating reports whether a stale pending intent may have reserved hours upstream.
func (i ReservationIntent) Compensating() bool {
	return i.Kind == IntentReserve || i.Kind == IntentReserveNext
}
