package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/fetcher"
	"github.com/nao1215/sitecrawl/internal/log"
)

// newTestSite serves a small site keyed by path. Unknown paths return 404.
func newTestSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".sitecrawl")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runRoot executes the root command and returns stdout, stderr and the error.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// summaryValue extracts one "Label: value" line from the final summary.
func summaryValue(t *testing.T, out, label string) string {
	t.Helper()

	m := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + `:\s+(.+)$`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("summary line %q not found in:\n%s", label, out)
	}
	return m[1]
}

func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	site := map[string]string{
		"/":  `<a href="/a">a</a> <a href="/a?x=1#top">again</a> <a href="https://other.example/">out</a> <img src="/pic.png">`,
		"/a": `<a href="/">home</a>`,
	}

	t.Run("crawls the site and prints a summary", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, site)
		cfgPath := writeConfig(t, "timeout: 5s\n")

		out, _, err := runRoot(t, "-c", cfgPath, srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(out, "CRAWL SUMMARY") {
			t.Errorf("expected final summary, got:\n%s", out)
		}
		if got := summaryValue(t, out, "Scope"); got != srv.URL {
			t.Errorf("Scope = %q, want %q", got, srv.URL)
		}
		if got := summaryValue(t, out, "Status"); got != "Complete" {
			t.Errorf("Status = %q, want Complete", got)
		}
		// "/" finds /a and /pic.png; /a finds nothing new. The crawl is done
		// once two cycles have completed.
		if got := summaryValue(t, out, "Completed"); got != "2" {
			t.Errorf("Completed = %q, want 2", got)
		}
		if got := summaryValue(t, out, "Discovered"); got != "2" {
			t.Errorf("Discovered = %q, want 2", got)
		}
	})

	t.Run("noimage skips image references", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, site)
		cfgPath := writeConfig(t, "timeout: 5s\n")

		out, _, err := runRoot(t, "-c", cfgPath, "--noimage", srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := summaryValue(t, out, "Discovered"); got != "1" {
			t.Errorf("Discovered = %q, want 1", got)
		}
		if got := summaryValue(t, out, "Completed"); got != "1" {
			t.Errorf("Completed = %q, want 1", got)
		}
	})

	t.Run("noimage from config file", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, site)
		cfgPath := writeConfig(t, "noImage: true\n")

		out, _, err := runRoot(t, "-c", cfgPath, srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := summaryValue(t, out, "Discovered"); got != "1" {
			t.Errorf("Discovered = %q, want 1", got)
		}
	})

	t.Run("fetch failure aborts the crawl", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, map[string]string{
			"/":  `<a href="/missing">gone</a> <a href="/z">z</a>`,
			"/z": `z`,
		})
		cfgPath := writeConfig(t, "timeout: 5s\n")

		out, _, err := runRoot(t, "-c", cfgPath, srv.URL+"/")

		var fetchErr *crawler.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fetchErr.URL != srv.URL+"/missing" {
			t.Errorf("FetchError.URL = %q, want %q", fetchErr.URL, srv.URL+"/missing")
		}
		var statusErr *fetcher.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 StatusError, got %v", err)
		}
		if got := summaryValue(t, out, "Status"); !strings.HasPrefix(got, "Failed") {
			t.Errorf("Status = %q, want Failed", got)
		}
	})

	t.Run("body over the size limit fails the crawl", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, map[string]string{
			"/": strings.Repeat(" ", 256) + `<a href="/late">late</a>`,
		})
		cfgPath := writeConfig(t, "maxBodySize: 64\n")

		out, _, err := runRoot(t, "-c", cfgPath, srv.URL+"/")

		var fetchErr *crawler.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if !errors.Is(err, fetcher.ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
		if got := summaryValue(t, out, "Discovered"); got != "0" {
			t.Errorf("Discovered = %q, want 0", got)
		}
	})

	t.Run("continue-on-error skips failed locations", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, map[string]string{
			"/":  `<a href="/missing">gone</a> <a href="/z">z</a>`,
			"/z": `z`,
		})
		cfgPath := writeConfig(t, "timeout: 5s\n")

		out, _, err := runRoot(t, "-c", cfgPath, "--continue-on-error", srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := summaryValue(t, out, "Completed"); got != "2" {
			t.Errorf("Completed = %q, want 2", got)
		}
	})

	t.Run("verbose logs hide credentials", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, site)
		cfgPath := writeConfig(t, "cookie: \"session=s3cr3t-value\"\n")

		out, errOut, err := runRoot(t, "-c", cfgPath, "-v", srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(errOut, "fetcher ready") {
			t.Errorf("expected debug log, got:\n%s", errOut)
		}
		if strings.Contains(errOut, "s3cr3t-value") {
			t.Errorf("cookie leaked into logs:\n%s", errOut)
		}
		if !strings.Contains(errOut, log.MaskValue) {
			t.Errorf("expected masked cookie, got:\n%s", errOut)
		}
		if !strings.Contains(out, "Crawling: "+srv.URL+"/") {
			t.Errorf("expected current URL in verbose progress, got:\n%s", out)
		}
	})

	t.Run("runs with defaults when no config file exists", func(t *testing.T) {
		t.Parallel()
		srv := newTestSite(t, site)

		out, _, err := runRoot(t, srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := summaryValue(t, out, "Discovered"); got != "2" {
			t.Errorf("Discovered = %q, want 2", got)
		}
		if _, err := os.Stat(filepath.Join(config.XDGDataDir(), database.FileName)); !os.IsNotExist(err) {
			t.Errorf("expected no history database without history enabled, stat err = %v", err)
		}
	})

	t.Run("invalid seed", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeConfig(t, "timeout: 5s\n")

		_, _, err := runRoot(t, "-c", cfgPath, "not-a-url")
		if !errors.Is(err, crawler.ErrInvalidSeedURL) {
			t.Errorf("expected ErrInvalidSeedURL, got %v", err)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "https://example.com/")
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected config not found error, got %v", err)
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeConfig(t, "proxy: \"ftp://127.0.0.1:21\"\n")

		_, _, err := runRoot(t, "-c", cfgPath, "https://example.com/")
		if err == nil || !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}
