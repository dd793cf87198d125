package services

import (
	"tagnotes/internal/repositories"

	"gorm.io/gorm"
)

// DbServices aggregates all domain services backed by the ledger database.
type DbServices struct {
	Runs HistoryService
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB) *DbServices {
	runRepo := repositories.NewRunRepository(db)

	return &DbServices{
		Runs: NewHistoryService(runRepo),
	}
}
