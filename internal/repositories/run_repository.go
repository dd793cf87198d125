package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"tagnotes/internal/models"
)

type RunRepository interface {
	Create(run *models.Run) error
	AddTags(tags []models.RunTag) error
	Finish(run *models.Run) error
	ListRecent(limit int) ([]models.Run, error)
	GetByKey(runKey string) (*models.Run, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	if strings.TrimSpace(run.RunKey) == "" {
		return fmt.Errorf("run key is required")
	}
	return r.db.Create(run).Error
}

func (r *runRepository) AddTags(tags []models.RunTag) error {
	if len(tags) == 0 {
		return nil
	}
	for _, t := range tags {
		if t.RunID == 0 {
			return fmt.Errorf("run tag %s has no run id", t.TagName)
		}
	}
	return r.db.CreateInBatches(&tags, 100).Error
}

// Finish stores the terminal fields of a run that was already created.
func (r *runRepository) Finish(run *models.Run) error {
	if run == nil || run.ID == 0 {
		return fmt.Errorf("run ID is required")
	}
	return r.db.Model(&models.Run{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":         run.Status,
		"tags_processed": run.TagsProcessed,
		"days_written":   run.DaysWritten,
		"error":          run.Error,
		"finished_at":    run.FinishedAt,
	}).Error
}

func (r *runRepository) ListRecent(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.Run
	res := r.db.Order("started_at desc").Order("id desc").Limit(limit).Find(&runs)
	if res.Error != nil {
		return nil, res.Error
	}
	return runs, nil
}

func (r *runRepository) GetByKey(runKey string) (*models.Run, error) {
	var run models.Run
	res := r.db.Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Where("run_key = ?", runKey).Take(&run)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &run, nil
}
