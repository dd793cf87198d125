package models

type SummarySource string

const (
	SummarySourceAI       SummarySource = "ai"
	SummarySourceFallback SummarySource = "fallback"
)

// Summary holds the bullets produced for one tag.
type Summary struct {
	Tag     Tag           `json:"tag"`
	BaseRef string        `json:"baseRef"`
	Files   int           `json:"files"`
	Bullets []string      `json:"bullets"`
	Source  SummarySource `json:"source"`
}
