package models

// LocalizedText carries the English and Hebrew variants of a display string.
type LocalizedText struct {
	En string `bson:"en,omitempty" json:"en,omitempty"`
	He string `bson:"he,omitempty" json:"he,omitempty"`
}

const (
	PricePerHour    = "hour"
	PricePerSession = "session"
	PricePerUnit    = "unit"
	PricePerSong    = "song"
)

// Item is a bookable studio service as served by the upstream catalogue.
type Item struct {
	ID                     string             `bson:"_id" json:"_id"`
	StudioID               string             `bson:"studioId" json:"studioId"`
	Name                   LocalizedText      `bson:"name" json:"name"`
	StudioName             LocalizedText      `bson:"studioName" json:"studioName"`
	Price                  float64            `bson:"price" json:"price"`
	PricePer               string             `bson:"pricePer" json:"pricePer"`
	Availability           []DateAvailability `bson:"availability,omitempty" json:"availability,omitempty"`
	MinimumBookingDuration *Duration          `bson:"minimumBookingDuration,omitempty" json:"minimumBookingDuration,omitempty"`
	AdvanceBookingRequired *Duration          `bson:"advanceBookingRequired,omitempty" json:"advanceBookingRequired,omitempty"`
	PreparationTime        *Duration          `bson:"preparationTime,omitempty" json:"preparationTime,omitempty"`
	MaxQuantityPerBooking  int                `bson:"maxQuantityPerBooking,omitempty" json:"maxQuantityPerBooking,omitempty"`
	StudioImgURL           string             `bson:"studioImgUrl,omitempty" json:"studioImgUrl,omitempty"`
}

// Studio is the subset of the upstream studio record the gateway needs.
type Studio struct {
	ID                 string             `bson:"_id" json:"_id"`
	Name               LocalizedText      `bson:"name" json:"name"`
	StudioAvailability StudioAvailability `bson:"studioAvailability" json:"studioAvailability"`
}
