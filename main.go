package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"tagnotes/internal/config"
	"tagnotes/internal/events"
	"tagnotes/internal/services"
	"tagnotes/internal/utils"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage: tagnotes [command] [flags]

commands:
  run                     generate day records (default)
  list                    list day records in the output directory
  history [-run KEY]      show recent runs from the ledger
  key set PROVIDER [KEY]  store a provider API key (KEY read from stdin if omitted)
  key delete PROVIDER     remove a stored API key
  key list                list providers with a stored key
  models                  list the built-in provider models
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configPath string
	repo       string
	out        string
	lookback   int
	dryRun     bool
	logLevel   string
	logJSON    bool
	limit      int
	runKey     string
}

func newFlagSet(name string, stderr io.Writer, f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}
	fs.StringVar(&f.configPath, "config", config.DefaultPath, "path to the YAML config file")
	fs.StringVar(&f.repo, "repo", "", "repository path (overrides repo_path)")
	fs.StringVar(&f.out, "out", "", "content directory (overrides output_dir)")
	fs.IntVar(&f.lookback, "lookback", -1, "lookback window in days (overrides lookback_days)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print day records instead of writing them")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.logJSON, "log-json", false, "emit logs as JSON")
	fs.IntVar(&f.limit, "limit", 20, "history: number of runs to show")
	fs.StringVar(&f.runKey, "run", "", "history: show the tags of one run")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	command := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var f cliFlags
	fs := newFlagSet(command, stderr, &f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	rest := fs.Args()

	bootLog := events.NewLogger(stderr, "info", f.logJSON)
	if cwd, err := os.Getwd(); err == nil {
		if err := utils.LoadEnv(cwd); err != nil {
			bootLog.WithError(err).Warn("failed to load .env")
		}
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		bootLog.WithError(err).Error("failed to load config")
		return exitUsage
	}
	cfg.ApplyEnv(lookup)
	applyFlags(&cfg, fs, f)
	if err := cfg.Validate(); err != nil {
		bootLog.WithError(err).Error("configuration rejected")
		return exitUsage
	}

	log := events.NewLogger(stderr, cfg.LogLevel, f.logJSON)
	events.EnableLogEmitter(log)

	app := NewApp(cfg, log, stdout)
	app.startup()
	defer app.shutdown()

	switch command {
	case "run":
		err = app.RunPipeline(ctx, f.dryRun)
	case "list":
		err = app.ListContent()
	case "history":
		err = app.ShowHistory(f.limit, f.runKey)
	case "key":
		err = runKeyCommand(app, rest)
	case "models":
		err = app.ListModels()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return exitUsage
	}
	return exitCode(log, err)
}

func runKeyCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: key needs a subcommand", config.ErrInvalidConfig)
	}
	switch args[0] {
	case "list":
		return app.ListKeys()
	case "set", "delete":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return fmt.Errorf("%w: key %s needs a provider", config.ErrInvalidConfig, args[0])
		}
		provider := strings.ToLower(strings.TrimSpace(args[1]))
		if args[0] == "delete" {
			return app.DeleteKey(provider)
		}
		key := ""
		if len(args) > 2 {
			key = strings.TrimSpace(args[2])
		}
		return app.SetKey(provider, key, stdinIfPiped())
	default:
		return fmt.Errorf("%w: unknown key subcommand %q", config.ErrInvalidConfig, args[0])
	}
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f cliFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "repo":
			cfg.RepoPath = f.repo
		case "out":
			cfg.OutputDir = f.out
		case "lookback":
			cfg.LookbackDays = f.lookback
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})
}

func exitCode(log *logrus.Logger, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, services.ErrNoPrefixes):
		log.WithError(err).Error("usage error")
		return exitUsage
	case errors.Is(err, context.Canceled):
		log.Warn("interrupted")
		return exitFailure
	default:
		log.WithError(err).Error("run failed")
		return exitFailure
	}
}
