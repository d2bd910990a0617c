package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text.
type SimpleWriter struct {
	baseWriter

	// verbose adds headers and hashes to page listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs the run summary followed by its pages, if any.
func (w *SimpleWriter) WriteRun(run *model.Run, pages []*model.Page) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "CRAWL SUMMARY")
	w.writeSummary(&sb, run)
	if len(pages) > 0 {
		w.writeContentTypes(&sb, pages)
		w.writePages(&sb, pages)
	}
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteRuns outputs one line per run.
func (w *SimpleWriter) WriteRuns(runs []*model.Run) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No crawls recorded.\n")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-6s %-20s %-10s %10s %10s  %s\n", "ID", "STARTED", "STATUS", "COMPLETED", "DISCOVERED", "SEED"))
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%-6d %-20s %-10s %10s %10s  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Status,
			w.number(run.Completed),
			w.number(run.Discovered),
			run.Seed,
		))
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", (ruleWidth-len(title))/2))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, run *model.Run) {
	if run.ID != 0 {
		sb.WriteString(fmt.Sprintf("Run:                 #%d\n", run.ID))
	}
	sb.WriteString(fmt.Sprintf("Seed:                %s\n", run.Seed))
	sb.WriteString(fmt.Sprintf("Scope:               %s\n", run.Scope))
	if !run.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Started:             %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("Status:              %s\n", statusText(run)))
	sb.WriteString(fmt.Sprintf("Completed:           %s\n", w.number(run.Completed)))
	sb.WriteString(fmt.Sprintf("Discovered:          %s\n", w.number(run.Discovered)))
	sb.WriteString(fmt.Sprintf("Total links scraped: %s\n", w.number(run.Total())))
	sb.WriteString(fmt.Sprintf("Elapsed duration:    %s\n", run.Elapsed().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Links per second:    %s\n", w.rate(run.Rate())))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeContentTypes(sb *strings.Builder, pages []*model.Page) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nCONTENT TYPES\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	counts := contentTypeCounts(pages)
	for _, mediaType := range sortedKeys(counts) {
		sb.WriteString(fmt.Sprintf("  %-30s %s\n", mediaType, w.number(counts[mediaType])))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, pages []*model.Page) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nPAGES\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	for _, p := range pages {
		if p.Failed() {
			sb.WriteString(fmt.Sprintf("  [x] %s\n      %s\n", p.URL, p.Error))
			continue
		}

		sb.WriteString(fmt.Sprintf("  [+] %d %s (%s)\n", p.StatusCode, p.URL, p.MediaType()))
		if w.verbose {
			if p.Hash != "" {
				sb.WriteString(fmt.Sprintf("      sha3-256: %s\n", p.Hash))
			}
			sb.WriteString(fmt.Sprintf("      fetched in %s\n", p.Duration.Round(time.Millisecond)))
		}
	}
	sb.WriteString("\n")
}
