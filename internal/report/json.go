package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitecrawl/internal/model"
)

// JSONWriter outputs runs as JSON for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// RunReport is the JSON document written for a single run.
type RunReport struct {
	Run          *model.Run     `json:"run"`
	ContentTypes map[string]int `json:"content_types,omitempty"`
	Pages        []*model.Page  `json:"pages,omitempty"`
}

// WriteRun outputs the run and its pages.
func (w *JSONWriter) WriteRun(run *model.Run, pages []*model.Page) (int, error) {
	doc := RunReport{Run: run, Pages: pages}
	if len(pages) > 0 {
		doc.ContentTypes = contentTypeCounts(pages)
	}
	return w.writeJSON(doc)
}

// WriteRuns outputs the runs as a JSON array. No runs yields [].
func (w *JSONWriter) WriteRuns(runs []*model.Run) (int, error) {
	if runs == nil {
		runs = []*model.Run{}
	}
	return w.writeJSON(runs)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
