package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitecrawl/internal/model"
)

// MarkdownWriter outputs GitHub Flavored Markdown built with nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteRun outputs the run as a Markdown report.
func (w *MarkdownWriter) WriteRun(run *model.Run, pages []*model.Page) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeAlert(md, run, pages)
	if len(pages) > 0 {
		w.writeContentTypes(md, pages)
		w.writePages(md, pages)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteRuns outputs the run history as a Markdown table.
func (w *MarkdownWriter) WriteRuns(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No crawls recorded.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			"`" + run.Seed + "`",
			string(run.Status),
			w.number(run.Completed),
			w.number(run.Discovered),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Seed", "Status", "Completed", "Discovered"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + run.Seed + "`"},
		{"Scope", "`" + run.Scope + "`"},
	}
	if !run.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows,
		[]string{"Status", statusText(run)},
		[]string{"Completed", w.number(run.Completed)},
		[]string{"Discovered", w.number(run.Discovered)},
		[]string{"Total links scraped", w.number(run.Total())},
		[]string{"Elapsed", run.Elapsed().Round(time.Millisecond).String()},
		[]string{"Links per second", w.rate(run.Rate())},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run, pages []*model.Page) {
	failed := 0
	for _, p := range pages {
		if p.Failed() {
			failed++
		}
	}

	switch {
	case run.Status == model.RunStatusFailed:
		md.Cautionf("The crawl stopped on an error: %s", run.Error)
	case failed > 0:
		md.Warningf("%d location(s) could not be fetched and were skipped.", failed)
	case run.Status == model.RunStatusCanceled:
		md.Importantf("The crawl was canceled after %d completed fetch(es).", run.Completed)
	default:
		md.Tip("Every discovered location inside the scope was visited.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeContentTypes(md *markdown.Markdown, pages []*model.Page) {
	md.H2("Content Types")
	md.PlainText("")

	counts := contentTypeCounts(pages)
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetched Content Types"),
		piechart.WithShowData(true),
	)
	for _, mediaType := range sortedKeys(counts) {
		chart.LabelAndIntValue(mediaType, uint64(counts[mediaType])) //nolint:gosec // counts are positive
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, pages []*model.Page) {
	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(pages))
	for i, p := range pages {
		status := strconv.Itoa(p.StatusCode)
		note := "-"
		switch {
		case p.Failed():
			status = "-"
			note = truncateString(p.Error, 60)
		}

		contentType := p.MediaType()
		if contentType == "" {
			contentType = "-"
		}

		rows[i] = []string{
			truncateString(p.URL, 80),
			status,
			contentType,
			shortHash(p.Hash),
			note,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Content Type", "SHA3-256", "Note"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawl](https://github.com/nao1215/sitecrawl)*")
}

// shortHash returns the first 12 hex digits of a hash, or "-".
func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		return "`" + hash[:12] + "`"
	}
	return "`" + hash + "`"
}
