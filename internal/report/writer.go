package report

import (
	"io"
	"maps"
	"math"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Writer renders recorded crawls.
type Writer interface {
	// WriteRun outputs one run with the pages fetched during it.
	// pages may be nil when only the summary is known.
	WriteRun(run *model.Run, pages []*model.Page) (int, error)

	// WriteRuns outputs a listing of runs.
	WriteRuns(runs []*model.Run) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output  io.Writer
	printer *message.Printer
}

// newBaseWriter creates a baseWriter with the given output destination.
// Numbers are formatted with English digit grouping.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// number formats n with digit grouping, e.g. 12,345.
func (b baseWriter) number(n int) string {
	return b.printer.Sprintf("%d", n)
}

// rate formats a links-per-second value rounded to an integer.
func (b baseWriter) rate(r float64) string {
	return b.number(int(math.Round(r)))
}

// contentTypeCounts counts pages per media type. Failed fetches are counted
// under "error" and pages without a Content-Type under "unknown".
func contentTypeCounts(pages []*model.Page) map[string]int {
	counts := make(map[string]int)
	for _, p := range pages {
		switch {
		case p.Failed():
			counts["error"]++
		case p.MediaType() == "":
			counts["unknown"]++
		default:
			counts[p.MediaType()]++
		}
	}
	return counts
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

// statusText returns a short label for a run status.
func statusText(run *model.Run) string {
	switch run.Status {
	case model.RunStatusDone:
		return "Complete"
	case model.RunStatusFailed:
		if run.Error != "" {
			return "Failed - " + run.Error
		}
		return "Failed"
	case model.RunStatusCanceled:
		return "Canceled"
	case model.RunStatusRunning:
		return "Running (or interrupted)"
	default:
		return string(run.Status)
	}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
