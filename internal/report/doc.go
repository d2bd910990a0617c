// Package report renders crawl progress, summaries and the run history.
//
// This package contains:
//   - ProgressWriter: the per-step progress lines printed while crawling
//   - SimpleWriter: human-readable text for terminal display
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a mermaid chart
//   - JSONWriter: structured JSON for tool integration
//
// SimpleWriter, MarkdownWriter and JSONWriter implement Writer, so the
// history command can pick one by flag.
package report
