package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/sitecrawl.yaml
var configTemplate embed.FS

// templatePath is the embedded configuration template.
const templatePath = "templates/sitecrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sitecrawl configuration file",
		Long: `Initialize creates a new .sitecrawl configuration file in the current directory.

The generated file includes:
- Default request timeout and body size limit
- Commented examples for proxy, cookie and header settings
- Documentation for all available options

Examples:
  # Create .sitecrawl in current directory
  sitecrawl init

  # Create config file at a specific path
  sitecrawl init -o myconfig.yaml

  # Force overwrite existing file
  sitecrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Request timeout and User-Agent")
	fmt.Fprintln(out, "  - Proxy, cookies and extra headers")
	fmt.Fprintln(out, "  - Crawl history recording")

	return nil
}
