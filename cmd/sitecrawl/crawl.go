package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/fetcher"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/spf13/cobra"
)

// runCrawlCmd executes a crawl for the seed given on the command line.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildConfig creates a Config from defaults, the config file and flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist; the default locations are optional.
	configPath := config.FindConfigFile(configFlag)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case configFlag != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
	}

	noImage, err := cmd.Flags().GetBool("noimage")
	if err != nil {
		return nil, err
	}
	if noImage {
		cfg.IncludeImages = false
	}

	if cmd.Flags().Changed("continue-on-error") {
		if cfg.ContinueOnError, err = cmd.Flags().GetBool("continue-on-error"); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("history") {
		if cfg.History, err = cmd.Flags().GetBool("history"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) > 0 {
		cfg.Seed = args[0]
	}

	return cfg, nil
}

// runCrawl crawls cfg.Seed, optionally recording the run, and prints the
// final summary.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	scope, err := crawler.ResolveScope(cfg.Seed)
	if err != nil {
		return err
	}

	f, err := fetcher.New(cfg.FetcherOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	logger.Debug("fetcher ready",
		"userAgent", cfg.UserAgent,
		"timeout", cfg.Timeout,
		"proxy", cfg.Proxy,
		"cookie", cfg.Cookie,
	)

	run := &model.Run{
		Seed:      cfg.Seed,
		Scope:     scope,
		StartedAt: time.Now(),
	}

	opts := []crawler.SpiderOption{
		crawler.WithImages(cfg.IncludeImages),
		crawler.WithContinueOnError(cfg.ContinueOnError),
		crawler.WithProgress(report.NewProgressWriter(out, cfg.Verbose).Report),
		crawler.WithLogger(logger),
	}

	var recorder *historyRecorder
	if cfg.History {
		recorder, err = startHistory(ctx, cfg.DBDir, run, logger)
		if err != nil {
			return err
		}
		defer recorder.close()
		opts = append(opts, crawler.WithPageHook(recorder.recordPage))
	}

	st, crawlErr := crawler.NewSpider(f, opts...).Crawl(ctx, cfg.Seed)

	run.FinishedAt = time.Now()
	if st != nil {
		run.Completed = st.Completed
		run.Discovered = st.Discovered
	}
	switch {
	case crawlErr == nil:
		run.Status = model.RunStatusDone
	case errors.Is(crawlErr, context.Canceled):
		run.Status = model.RunStatusCanceled
		run.Error = crawlErr.Error()
	default:
		run.Status = model.RunStatusFailed
		run.Error = crawlErr.Error()
	}

	if recorder != nil {
		recorder.finish(context.WithoutCancel(ctx), run)
	}

	if _, err := report.NewSimpleWriter(out).WriteRun(run, nil); err != nil {
		logger.Warn("failed to write summary", "error", err)
	}

	return crawlErr
}

// historyRecorder stores one crawl run and its pages.
type historyRecorder struct {
	db     *database.CrawlDB
	runID  int64
	logger *slog.Logger
}

// startHistory opens the history database in dbDir and records the start
// of run.
func startHistory(ctx context.Context, dbDir string, run *model.Run, logger *slog.Logger) (*historyRecorder, error) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	runID, err := db.StartRun(ctx, run)
	if err != nil {
		_ = db.Close() //nolint:errcheck // already returning an error
		return nil, fmt.Errorf("failed to record crawl start: %w", err)
	}

	logger.Debug("recording crawl history", "db", db.Path(), "run", runID)
	return &historyRecorder{db: db, runID: runID, logger: logger}, nil
}

// recordPage is the page hook storing every fetched page.
func (r *historyRecorder) recordPage(ctx context.Context, page *model.Page) error {
	return r.db.InsertPage(ctx, r.runID, page)
}

// finish records the final counters and status of run.
// History is best effort: failures are logged, never returned.
func (r *historyRecorder) finish(ctx context.Context, run *model.Run) {
	if err := r.db.FinishRun(ctx, run); err != nil {
		r.logger.Warn("failed to record crawl result", "run", r.runID, "error", err)
	}
}

func (r *historyRecorder) close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close history database", "error", err)
	}
}
