package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tagnotes/internal/events"
	"tagnotes/internal/models"

	"github.com/go-git/go-git/v5"
)

// CollectorOptions configures which tags enter the pipeline.
type CollectorOptions struct {
	Prefixes     []string
	LookbackDays int
	Location     *time.Location
	Now          func() time.Time
}

// TagCollector lists monitored tags created within the lookback window.
type TagCollector struct {
	git  *GitService
	repo *git.Repository
	opts CollectorOptions
}

func NewTagCollector(gitService *GitService, repo *git.Repository, opts CollectorOptions) *TagCollector {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TagCollector{git: gitService, repo: repo, opts: opts}
}

// Collect returns qualifying tags sorted by creation time ascending. Any
// failure to read a monitored tag aborts with ErrRepositoryAccess.
func (c *TagCollector) Collect(ctx context.Context) ([]models.Tag, error) {
	if len(c.opts.Prefixes) == 0 {
		return nil, ErrNoPrefixes
	}

	refs, err := c.git.TagRefs(c.repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryAccess, err)
	}

	today := c.opts.Now().In(c.opts.Location)
	seen := make(map[string]struct{}, len(refs))
	var tags []models.Tag
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := ref.Name().Short()
		prefix, ok := MatchPrefix(name, c.opts.Prefixes)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		info, err := c.git.ResolveTag(c.repo, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRepositoryAccess, err)
		}
		created := info.CreatedAt.In(c.opts.Location)
		if !WithinLookback(created, today, c.opts.LookbackDays) {
			continue
		}
		tags = append(tags, models.Tag{
			Name:      name,
			Prefix:    prefix,
			Hash:      info.CommitHash.String(),
			CreatedAt: info.CreatedAt,
			Date:      created.Format(models.DateLayout),
		})
	}

	SortTags(tags)
	events.Emit(ctx, events.StageCollect, events.NewInfo(fmt.Sprintf("collected %d tag(s)", len(tags))).
		With("prefixes", strings.Join(c.opts.Prefixes, ",")).
		With("lookbackDays", fmt.Sprint(c.opts.LookbackDays)))
	return tags, nil
}

// MatchPrefix returns the configured prefix that name starts with. When
// several match, the longest wins.
func MatchPrefix(name string, prefixes []string) (string, bool) {
	best := ""
	for _, p := range prefixes {
		if p == "" || !strings.HasPrefix(name, p) {
			continue
		}
		if len(p) > len(best) {
			best = p
		}
	}
	return best, best != ""
}

// WithinLookback reports whether created falls no more than lookbackDays
// whole calendar days before today. Both times must share a location.
func WithinLookback(created, today time.Time, lookbackDays int) bool {
	return calendarDaysBetween(created, today) <= lookbackDays
}

// calendarDaysBetween counts calendar days from a to b using civil dates, so
// DST transitions do not shift the result.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}

// SortTags orders by creation time, ties keep name order.
func SortTags(tags []models.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		if !tags[i].CreatedAt.Equal(tags[j].CreatedAt) {
			return tags[i].CreatedAt.Before(tags[j].CreatedAt)
		}
		return tags[i].Name < tags[j].Name
	})
}
