package mocks

import (
	"tagnotes/internal/models"
)

type RunRepositoryMock struct {
	CreateFunc     func(run *models.Run) error
	AddTagsFunc    func(tags []models.RunTag) error
	FinishFunc     func(run *models.Run) error
	ListRecentFunc func(limit int) ([]models.Run, error)
	GetByKeyFunc   func(runKey string) (*models.Run, error)
}

func (m *RunRepositoryMock) Create(run *models.Run) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(run)
	}
	return nil
}

func (m *RunRepositoryMock) AddTags(tags []models.RunTag) error {
	if m.AddTagsFunc != nil {
		return m.AddTagsFunc(tags)
	}
	return nil
}

func (m *RunRepositoryMock) Finish(run *models.Run) error {
	if m.FinishFunc != nil {
		return m.FinishFunc(run)
	}
	return nil
}

func (m *RunRepositoryMock) ListRecent(limit int) ([]models.Run, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(limit)
	}
	return nil, nil
}

func (m *RunRepositoryMock) GetByKey(runKey string) (*models.Run, error) {
	if m.GetByKeyFunc != nil {
		return m.GetByKeyFunc(runKey)
	}
	return nil, nil
}
