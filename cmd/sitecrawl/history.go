package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// errRunNotFound is returned when the requested run ID is not recorded.
var errRunNotFound = errors.New("crawl run not found")

// NewHistoryCmd creates the history command.
// It reads the database written by crawls run with history enabled.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded crawls",
		Long: `History lists crawls recorded in the history database, newest first.
Given a run ID it shows that crawl together with every page it fetched.

Crawls are only recorded when 'history: true' is set in the configuration
file or --history is passed.

Examples:
  # List recorded crawls
  sitecrawl history

  # Show one crawl and its pages
  sitecrawl history 3

  # Render a crawl as Markdown
  sitecrawl history --markdown 3 > crawl.md

  # Export a crawl as JSON
  sitecrawl history --json 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of crawls to list")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Validate arguments before opening the database.
	var runID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid run ID %q: must be a positive integer", args[0])
		}
		runID = id
	}

	writer, err := historyWriter(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	dbDir, err := historyDBDir(cmd)
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	if runID == 0 {
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		_, err = writer.WriteRuns(runs)
		return err
	}

	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %d", errRunNotFound, runID)
	}

	pages, err := db.GetRunPages(ctx, runID)
	if err != nil {
		return err
	}

	_, err = writer.WriteRun(run, pages)
	return err
}

// historyWriter selects the report writer from the output format flags.
func historyWriter(cmd *cobra.Command) (report.Writer, error) {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput && markdownOutput:
		return nil, config.ErrConflictingReportFormats
	case jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint()), nil
	case markdownOutput:
		return report.NewMarkdownWriter(out), nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd))), nil
	}
}

// historyDBDir returns the database directory: the --db-dir flag, then the
// dbDir key of the configuration file, then the XDG data directory.
func historyDBDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dir != "" {
		return dir, nil
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(""); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(file)
	}
	return cfg.DBDir, nil
}
