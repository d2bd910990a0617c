package main

import (
	"fmt"
	"os"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitecrawl. Invoked with a seed URL
// it runs a crawl; the subcommands manage configuration and history.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawl <seed-url>",
		Short: "Single-host web crawler",
		Long: `sitecrawl visits every page of one web site, starting from a seed URL.

The scope of the crawl is the scheme and host of the seed. Links that start
with the scope or with a single '/' are followed, as are <img src> references
unless --noimage is given. Query strings and fragments are ignored. Progress is
printed before every fetch and a summary when the crawl finishes.

Examples:
  # Crawl a site
  sitecrawl https://example.com/

  # Crawl without following images
  sitecrawl --noimage https://example.com/

  # Use a specific configuration file
  sitecrawl -c myconfig.yaml https://example.com/

Configuration file (.sitecrawl) example:
  timeout: 10s
  proxy: "127.0.0.1:9050"
  cookie: "session_id=abc123"
  headers:
    Authorization: "Bearer token"
  history: true`,
		Args:          seedArgs,
		RunE:          runCrawlCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.Flags().BoolP("noimage", "n", false,
		"Do not follow <img src> references")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawl in current or home directory)")
	cmd.Flags().Bool("continue-on-error", false,
		"Skip locations that fail to fetch instead of aborting")
	cmd.Flags().Bool("history", false,
		"Record the crawl in the history database")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// seedArgs requires exactly one positional argument, the seed URL.
func seedArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return fmt.Errorf("%w\nUsage: %s", config.ErrMissingSeed, cmd.UseLine())
	case 1:
		return nil
	default:
		return fmt.Errorf("accepts exactly one seed URL, received %d\nUsage: %s", len(args), cmd.UseLine())
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

