package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tagnotes/internal/events"
	"tagnotes/internal/models"
)

// PipelineOptions is the resolved configuration for one run.
type PipelineOptions struct {
	RepoPath         string
	OutputDir        string
	Prefixes         []string
	LookbackDays     int
	MaxFilesPerTag   int
	MaxBulletsPerDay int
	Location         *time.Location
	// Concurrency bounds in-flight summaries.
	Concurrency int
	DryRun      bool
	Now         func() time.Time
}

// RunResult is everything a run produced, in processing order.
type RunResult struct {
	RunKey    string
	Tags      []models.Tag
	Summaries []models.Summary
	Records   []models.DayRecord
	Written   []WriteResult
}

// PipelineService drives collect, diff, summarize, aggregate and write.
type PipelineService struct {
	git        *GitService
	summarizer Summarizer
	history    HistoryService
	opts       PipelineOptions
	newRunKey  func() string
}

// NewPipelineService wires a run. history may be nil when no ledger is
// configured.
func NewPipelineService(gitService *GitService, summarizer Summarizer, history HistoryService, opts PipelineOptions) *PipelineService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &PipelineService{
		git:        gitService,
		summarizer: summarizer,
		history:    history,
		opts:       opts,
		newRunKey:  uuid.NewString,
	}
}

// Run executes the pipeline once. Repository access failures abort before
// anything is written. Per-day write failures do not stop other days; they
// are reported together wrapped in ErrContentWrite.
func (p *PipelineService) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunKey: p.newRunKey()}
	ctx = events.WithRun(ctx, result.RunKey)

	repo, err := p.git.Open(p.opts.RepoPath)
	if err != nil {
		events.Emit(ctx, events.StageCollect, events.NewError(err.Error()))
		return result, fmt.Errorf("%w: %v", ErrRepositoryAccess, err)
	}

	run := p.startLedger(ctx)

	tags, err := NewTagCollector(p.git, repo, CollectorOptions{
		Prefixes:     p.opts.Prefixes,
		LookbackDays: p.opts.LookbackDays,
		Location:     p.opts.Location,
		Now:          p.opts.Now,
	}).Collect(ctx)
	if err != nil {
		events.Emit(ctx, events.StageCollect, events.NewError(err.Error()))
		p.finishLedger(ctx, run, 0, err)
		return result, err
	}
	result.Tags = tags

	plans := PlanReleases(tags)
	differ := NewReleaseDiffer(p.git, repo, p.opts.MaxFilesPerTag)
	changeSets := make([]models.ChangeSet, len(plans))
	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			p.finishLedger(ctx, run, 0, err)
			return result, err
		}
		changeSets[i] = differ.Diff(ctx, plan)
	}

	summaries, err := p.summarize(ctx, plans, changeSets)
	if err != nil {
		p.finishLedger(ctx, run, 0, err)
		return result, err
	}
	result.Summaries = summaries

	result.Records = AggregateDays(summaries, p.opts.MaxBulletsPerDay)

	var writeErr error
	if p.opts.DryRun {
		events.Emit(ctx, events.StageWrite, events.NewInfo(fmt.Sprintf("dry run, %d day record(s) not written", len(result.Records))))
	} else {
		written, err := NewDayWriter(p.opts.OutputDir).Write(ctx, result.Records)
		result.Written = written
		if err != nil {
			writeErr = fmt.Errorf("%w: %w", ErrContentWrite, err)
		}
	}

	p.recordLedger(ctx, run, summaries)
	p.finishLedger(ctx, run, countWritten(result.Written), writeErr)

	done := events.NewSuccess(fmt.Sprintf("processed %d tag(s) into %d day(s)", len(tags), len(result.Records)))
	if writeErr != nil {
		done = events.NewError(writeErr.Error())
	}
	events.Emit(ctx, events.StageDone, done.
		With("tags", fmt.Sprint(len(tags))).
		With("days", fmt.Sprint(len(result.Records))))
	return result, writeErr
}

// summarize fans out across plans with bounded concurrency. Results are
// stored by index so output order never depends on completion order.
func (p *PipelineService) summarize(ctx context.Context, plans []models.ReleasePlan, changeSets []models.ChangeSet) ([]models.Summary, error) {
	summaries := make([]models.Summary, len(plans))
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i := range plans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tag := plans[i].Tag
			cs := changeSets[i]
			bullets, source := p.summarizer.Summarize(ctx, tag.Name, cs)
			summaries[i] = models.Summary{
				Tag:     tag,
				BaseRef: cs.BaseRef,
				Files:   cs.TotalFiles,
				Bullets: bullets,
				Source:  source,
			}
			events.Emit(ctx, events.StageSummarize, events.NewDebug(fmt.Sprintf("summarized %s", tag.Name)).
				With("tag", tag.Name).
				With("source", string(source)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (p *PipelineService) startLedger(ctx context.Context) *models.Run {
	if p.history == nil {
		return nil
	}
	run, err := p.history.Start(ctx, events.RunFromContext(ctx), p.opts.RepoPath, p.opts.OutputDir)
	if err != nil {
		events.Emit(ctx, events.StageLedger, events.NewWarn(fmt.Sprintf("ledger unavailable: %v", err)))
		return nil
	}
	return run
}

func (p *PipelineService) recordLedger(ctx context.Context, run *models.Run, summaries []models.Summary) {
	if run == nil {
		return
	}
	if err := p.history.Record(ctx, run, summaries); err != nil {
		events.Emit(ctx, events.StageLedger, events.NewWarn(fmt.Sprintf("ledger record failed: %v", err)))
	}
}

func (p *PipelineService) finishLedger(ctx context.Context, run *models.Run, daysWritten int, runErr error) {
	if run == nil {
		return
	}
	// A cancelled run context still gets its ledger row closed.
	if err := p.history.Finish(context.WithoutCancel(ctx), run, daysWritten, runErr); err != nil {
		events.Emit(ctx, events.StageLedger, events.NewWarn(fmt.Sprintf("ledger finish failed: %v", err)))
	}
}

func countWritten(results []WriteResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
