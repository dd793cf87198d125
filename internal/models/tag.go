package models

import "time"

// DateLayout is the calendar-day format used for tag dates and record slugs.
const DateLayout = "2006-01-02"

// Tag is a release marker that matched one of the monitored prefixes.
type Tag struct {
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
	// Date is CreatedAt rendered as DateLayout in the configured zone.
	Date string `json:"date"`
}

// ReleasePlan pairs a tag with the previous tag of the same prefix.
// Previous is nil for the first tag of a prefix seen in a run.
type ReleasePlan struct {
	Tag      Tag  `json:"tag"`
	Previous *Tag `json:"previous,omitempty"`
}
