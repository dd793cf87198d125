package models

// DayRecord is the persisted per-day aggregation read by the site renderer.
// Field names and order are part of the content contract.
type DayRecord struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Highlights []string `json:"highlights"`
}

// DayRecordInfo describes a record already present in the content directory.
type DayRecordInfo struct {
	Path       string `json:"path"`
	Slug       string `json:"slug"`
	Highlights int    `json:"highlights"`
}
