package services

import (
	"context"
	"fmt"

	"tagnotes/internal/events"
	"tagnotes/internal/models"

	"github.com/go-git/go-git/v5"
)

// PlanReleases folds the date-sorted tags into (tag, previous tag of the same
// prefix) pairs. The last-seen map is local to the call.
func PlanReleases(tags []models.Tag) []models.ReleasePlan {
	last := make(map[string]models.Tag)
	plans := make([]models.ReleasePlan, 0, len(tags))
	for _, tag := range tags {
		plan := models.ReleasePlan{Tag: tag}
		if prev, ok := last[tag.Prefix]; ok {
			p := prev
			plan.Previous = &p
		}
		plans = append(plans, plan)
		last[tag.Prefix] = tag
	}
	return plans
}

// ReleaseDiffer computes capped change sets for release plans.
type ReleaseDiffer struct {
	git      *GitService
	repo     *git.Repository
	maxFiles int
}

func NewReleaseDiffer(gitService *GitService, repo *git.Repository, maxFiles int) *ReleaseDiffer {
	return &ReleaseDiffer{git: gitService, repo: repo, maxFiles: maxFiles}
}

// Diff never fails: when git cannot produce a diff the change set is empty
// and a warning is emitted.
func (d *ReleaseDiffer) Diff(ctx context.Context, plan models.ReleasePlan) models.ChangeSet {
	cs := models.ChangeSet{
		FromTag:      plan.Previous,
		ToTag:        plan.Tag,
		ChangedFiles: []models.ChangedFile{},
	}

	base := ""
	if plan.Previous != nil {
		base = plan.Previous.Hash
		cs.BaseRef = plan.Previous.Name
	} else {
		cs.BaseRef = plan.Tag.Name + "^"
	}

	changes, err := d.git.DiffFiles(ctx, d.repo, base, plan.Tag.Hash)
	if err != nil {
		events.Emit(ctx, events.StageDiff, events.NewWarn(fmt.Sprintf("diff %s..%s failed: %v", cs.BaseRef, plan.Tag.Name, err)).
			With("tag", plan.Tag.Name))
		return cs
	}

	cs.TotalFiles = len(changes)
	for i, change := range changes {
		cs.Additions += change.Additions
		cs.Deletions += change.Deletions
		if i < d.maxFiles {
			cs.ChangedFiles = append(cs.ChangedFiles, models.ChangedFile{Path: change.Path, Stat: change.Stat()})
		}
	}

	events.Emit(ctx, events.StageDiff, events.NewDebug(fmt.Sprintf("diffed %s..%s", cs.BaseRef, plan.Tag.Name)).
		With("tag", plan.Tag.Name).
		With("files", fmt.Sprint(cs.TotalFiles)))
	return cs
}
