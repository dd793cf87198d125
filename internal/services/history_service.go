package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tagnotes/internal/events"
	"tagnotes/internal/models"
	"tagnotes/internal/repositories"
)

// HistoryService records pipeline runs in the ledger.
type HistoryService interface {
	Start(ctx context.Context, runKey, repoPath, outputDir string) (*models.Run, error)
	Record(ctx context.Context, run *models.Run, summaries []models.Summary) error
	Finish(ctx context.Context, run *models.Run, daysWritten int, runErr error) error
	Recent(limit int) ([]models.Run, error)
	Get(runKey string) (*models.Run, error)
}

type historyService struct {
	repo repositories.RunRepository
	now  func() time.Time
}

func NewHistoryService(repo repositories.RunRepository) HistoryService {
	return &historyService{repo: repo, now: time.Now}
}

func (s *historyService) Start(ctx context.Context, runKey, repoPath, outputDir string) (*models.Run, error) {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return nil, fmt.Errorf("run key is required")
	}
	run := &models.Run{
		RunKey:    runKey,
		RepoPath:  repoPath,
		OutputDir: outputDir,
		Status:    models.RunStatusRunning,
		StartedAt: s.now(),
	}
	if err := s.repo.Create(run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	events.Emit(ctx, events.StageLedger, events.NewDebug("run recorded").With("runId", fmt.Sprint(run.ID)))
	return run, nil
}

func (s *historyService) Record(ctx context.Context, run *models.Run, summaries []models.Summary) error {
	if run == nil || run.ID == 0 {
		return fmt.Errorf("run is required")
	}
	tags := make([]models.RunTag, 0, len(summaries))
	for _, sum := range summaries {
		bullets, err := json.Marshal(sum.Bullets)
		if err != nil {
			return fmt.Errorf("encode bullets for %s: %w", sum.Tag.Name, err)
		}
		tags = append(tags, models.RunTag{
			RunID:       run.ID,
			TagName:     sum.Tag.Name,
			Prefix:      sum.Tag.Prefix,
			Date:        sum.Tag.Date,
			BaseRef:     sum.BaseRef,
			Files:       sum.Files,
			Source:      string(sum.Source),
			BulletsJSON: string(bullets),
		})
	}
	if err := s.repo.AddTags(tags); err != nil {
		return fmt.Errorf("record tags: %w", err)
	}
	run.TagsProcessed = len(tags)
	return nil
}

func (s *historyService) Finish(ctx context.Context, run *models.Run, daysWritten int, runErr error) error {
	if run == nil || run.ID == 0 {
		return fmt.Errorf("run is required")
	}
	finished := s.now()
	run.FinishedAt = &finished
	run.DaysWritten = daysWritten
	run.Status = models.RunStatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := s.repo.Finish(run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	events.Emit(ctx, events.StageLedger, events.NewDebug("run finished").
		With("status", string(run.Status)))
	return nil
}

func (s *historyService) Recent(limit int) ([]models.Run, error) {
	return s.repo.ListRecent(limit)
}

func (s *historyService) Get(runKey string) (*models.Run, error) {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return nil, fmt.Errorf("run key is required")
	}
	return s.repo.GetByKey(runKey)
}

// DecodeBullets reverses the encoding used for RunTag.BulletsJSON.
func DecodeBullets(tag models.RunTag) []string {
	var bullets []string
	if tag.BulletsJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(tag.BulletsJSON), &bullets); err != nil {
		return nil
	}
	return bullets
}
