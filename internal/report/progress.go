package report

import (
	"io"
	"time"

	"github.com/nao1215/sitecrawl/internal/crawler"
)

// ProgressWriter prints one block per crawl step:
//
//	Link #3
//	Elapsed duration: 1.204s
//	Total links scraped: 57
//	Links per second: 47
type ProgressWriter struct {
	baseWriter
	showCurrent bool
}

// NewProgressWriter creates a ProgressWriter writing to output. When
// showCurrent is true the URL about to be fetched is printed as well.
func NewProgressWriter(output io.Writer, showCurrent bool) *ProgressWriter {
	return &ProgressWriter{
		baseWriter:  newBaseWriter(output),
		showCurrent: showCurrent,
	}
}

// Report writes the progress block for p. Write errors are ignored: progress
// output is informational.
func (w *ProgressWriter) Report(p crawler.Progress) {
	w.printer.Fprintf(w.output, "Link #%d\n", p.Step)
	if w.showCurrent {
		w.printer.Fprintf(w.output, "Crawling: %s\n", p.Current)
	}
	w.printer.Fprintf(w.output, "Elapsed duration: %s\n", p.Elapsed.Round(time.Millisecond))
	w.printer.Fprintf(w.output, "Total links scraped: %d\n", p.Total())
	w.printer.Fprintf(w.output, "Links per second: %s\n", w.rate(p.Rate()))
}
