package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one ledger row per pipeline invocation.
type Run struct {
	ID            uint      `gorm:"primaryKey"`
	RunKey        string    `gorm:"size:36;not null;uniqueIndex"`
	RepoPath      string    `gorm:"size:1024"`
	OutputDir     string    `gorm:"size:1024"`
	Status        RunStatus `gorm:"size:20;not null;default:running"`
	TagsProcessed int       `gorm:"not null;default:0"`
	DaysWritten   int       `gorm:"not null;default:0"`
	Error         string    `gorm:"type:text"`
	StartedAt     time.Time `gorm:"not null"`
	FinishedAt    *time.Time
	Tags          []RunTag `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RunTag records how a single tag was summarized during a run.
type RunTag struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       uint   `gorm:"not null;index"`
	TagName     string `gorm:"size:255;not null"`
	Prefix      string `gorm:"size:255;not null"`
	Date        string `gorm:"size:10;not null;index"`
	BaseRef     string `gorm:"size:255"`
	Files       int    `gorm:"not null;default:0"`
	Source      string `gorm:"size:20;not null"`
	BulletsJSON string `gorm:"type:text"`
	CreatedAt   time.Time
}
