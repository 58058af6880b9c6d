package models

// Duration is an amount of time as entered by a merchant on an item.
type Duration struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit,omitempty" json:"unit,omitempty"` // "minutes", "hours" or "days"; empty means hours
}

// DateAvailability restricts an item's open hours on one date.
type DateAvailability struct {
	Date  string   `bson:"date" json:"date"`   // "DD/MM/YYYY"
	Times []string `bson:"times" json:"times"` // e.g. ["10:00", "11:00"]
}

// TimeRange is an opening window in "HH:MM".
type TimeRange struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// StudioAvailability is a recurring weekly schedule. Times[i] belongs to Days[i].
type StudioAvailability struct {
	Days  []string    `bson:"days" json:"days"` // English or Hebrew weekday names
	Times []TimeRange `bson:"times" json:"times"`
}
