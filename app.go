package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tagnotes/internal/config"
	"tagnotes/internal/database"
	"tagnotes/internal/services"
)

// App holds the resolved configuration and the services a command needs.
type App struct {
	cfg    config.Config
	log    *logrus.Logger
	out    io.Writer
	db     *gorm.DB
	dbSvc  *services.DbServices
	git    *services.GitService
	openKR func() (*services.KeyringService, error)
}

// NewApp creates a new App for one command invocation
func NewApp(cfg config.Config, log *logrus.Logger, out io.Writer) *App {
	return &App{
		cfg:    cfg,
		log:    log,
		out:    out,
		git:    services.NewGitService(),
		openKR: services.NewKeyringService,
	}
}

// startup opens the ledger when one is configured. A ledger that cannot be
// opened is logged and skipped; it never blocks content generation.
func (a *App) startup() {
	path := database.ResolvePath(a.cfg.Ledger.Path)
	if path == "" {
		return
	}
	db, err := database.Init(database.Config{
		Path:     path,
		LogLevel: logger.Warn,
		Log:      a.log,
	})
	if err != nil {
		a.log.WithError(err).Warn("ledger disabled")
		return
	}
	a.db = db
	a.dbSvc = services.NewDbServices(db)
}

// shutdown releases resources opened by startup.
func (a *App) shutdown() {
	if a.db == nil {
		return
	}
	if err := database.Close(a.db); err != nil {
		a.log.WithError(err).Error("failed to close ledger")
	}
	a.db = nil
}

func (a *App) history() services.HistoryService {
	if a.dbSvc == nil {
		return nil
	}
	return a.dbSvc.Runs
}

// RunPipeline generates day records for the configured repository.
func (a *App) RunPipeline(ctx context.Context, dryRun bool) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	var creds services.CredentialStore
	if a.cfg.Synthesis.UseKeyring && a.cfg.Synthesis.APIKey == "" {
		kr, err := a.openKR()
		if err != nil {
			a.log.WithError(err).Warn("keyring unavailable")
		} else {
			creds = kr
		}
	}
	catalog, err := services.NewModelCatalog()
	if err != nil {
		return err
	}
	summarizer, err := services.NewSummarizer(ctx, a.cfg, creds, catalog)
	if err != nil {
		return err
	}

	pipeline := services.NewPipelineService(a.git, summarizer, a.history(), services.PipelineOptions{
		RepoPath:         a.cfg.RepoPath,
		OutputDir:        a.cfg.OutputDir,
		Prefixes:         a.cfg.Prefixes,
		LookbackDays:     a.cfg.LookbackDays,
		MaxFilesPerTag:   a.cfg.MaxFilesPerTag,
		MaxBulletsPerDay: a.cfg.MaxBulletsPerDay,
		Location:         loc,
		Concurrency:      a.cfg.Synthesis.Concurrency,
		DryRun:           dryRun,
	})

	result, err := pipeline.Run(ctx)
	if dryRun && result != nil {
		for _, rec := range result.Records {
			data, encErr := services.EncodeRecord(rec)
			if encErr != nil {
				return encErr
			}
			fmt.Fprintf(a.out, "# %s.json\n%s", rec.Slug, data)
		}
	}
	return err
}

// ListContent prints the records already in the output directory.
func (a *App) ListContent() error {
	infos, err := services.NewContentService(a.cfg.OutputDir).List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(a.out, "no day records in %s\n", a.cfg.OutputDir)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tHIGHLIGHTS\tPATH")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.Slug, info.Highlights, info.Path)
	}
	return w.Flush()
}

// ShowHistory prints recent runs, or the tags of one run when runKey is set.
func (a *App) ShowHistory(limit int, runKey string) error {
	hist := a.history()
	if hist == nil {
		return fmt.Errorf("%w: ledger.path is not configured", config.ErrInvalidConfig)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	if runKey != "" {
		run, err := hist.Get(runKey)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runKey)
		}
		fmt.Fprintf(w, "run %s (%s)\n", run.RunKey, run.Status)
		fmt.Fprintln(w, "DATE\tTAG\tBASE\tFILES\tSOURCE\tBULLETS")
		for _, tag := range run.Tags {
			bullets := services.DecodeBullets(tag)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", tag.Date, tag.TagName, tag.BaseRef, tag.Files, tag.Source, strings.Join(bullets, "; "))
		}
		return w.Flush()
	}

	runs, err := hist.Recent(limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tTAGS\tDAYS\tERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.RunKey, run.StartedAt.Format(time.RFC3339), run.Status, run.TagsProcessed, run.DaysWritten, run.Error)
	}
	return w.Flush()
}

// SetKey stores an API key for provider. An empty key is read from in.
func (a *App) SetKey(provider, key string, in io.Reader) error {
	if key == "" {
		data, err := io.ReadAll(io.LimitReader(in, 64<<10))
		if err != nil {
			return err
		}
		key = strings.TrimSpace(string(data))
	}
	if key == "" {
		return fmt.Errorf("%w: no API key given", config.ErrInvalidConfig)
	}
	kr, err := a.openKR()
	if err != nil {
		return err
	}
	if err := kr.StoreApiKey(provider, []byte(key)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "stored API key for %s\n", provider)
	return nil
}

func (a *App) DeleteKey(provider string) error {
	kr, err := a.openKR()
	if err != nil {
		return err
	}
	if err := kr.DeleteApiKey(provider); err != nil {
		if errors.Is(err, services.ErrCredentialNotFound) {
			fmt.Fprintf(a.out, "no API key stored for %s\n", provider)
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "deleted API key for %s\n", provider)
	return nil
}

func (a *App) ListKeys() error {
	kr, err := a.openKR()
	if err != nil {
		return err
	}
	providers, err := kr.ListProviders()
	if err != nil {
		return err
	}
	for _, p := range providers {
		fmt.Fprintln(a.out, p)
	}
	return nil
}

// ListModels prints the embedded model catalog, one row per model.
func (a *App) ListModels() error {
	catalog, err := services.NewModelCatalog()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tNAME\tDEFAULT")
	for _, provider := range catalog.Providers() {
		for _, m := range catalog.Models(provider) {
			def := ""
			if m.Default {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ProviderID, m.APIName, m.DisplayName, def)
		}
	}
	return w.Flush()
}

func stdinIfPiped() io.Reader {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return strings.NewReader("")
	}
	return os.Stdin
}
