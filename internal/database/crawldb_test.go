package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close() //nolint:errcheck
	})
	return db
}

// startTestRun stores a running crawl of seed.
func startTestRun(t *testing.T, db *CrawlDB, seed string) *model.Run {
	t.Helper()

	run := &model.Run{
		Seed:      seed,
		Scope:     "https://example.com",
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if _, err := db.StartRun(context.Background(), run); err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	return run
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, FileName)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("expected path %q, got %q", dbPath, db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns ErrDatabaseNotFound", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		run := startTestRun(t, db1, "https://example.com/")
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetRun(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got == nil {
			t.Error("expected run to persist")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestRunLifecycle tests starting, finishing and reading runs.
func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start run assigns id and running status", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := startTestRun(t, db, "https://example.com/")

		if run.ID == 0 {
			t.Fatal("expected non-zero run id")
		}

		got, err := db.GetRun(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.RunStatusRunning {
			t.Errorf("expected status running, got %q", got.Status)
		}
		if !got.FinishedAt.IsZero() {
			t.Errorf("expected zero FinishedAt, got %v", got.FinishedAt)
		}
		if !got.StartedAt.Equal(run.StartedAt) {
			t.Errorf("expected StartedAt %v, got %v", run.StartedAt, got.StartedAt)
		}
	})

	t.Run("finish run stores counters and status", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := startTestRun(t, db, "https://example.com/")

		run.FinishedAt = run.StartedAt.Add(90 * time.Second)
		run.Completed = 12
		run.Discovered = 12
		run.Status = model.RunStatusFailed
		run.Error = "fetch https://example.com/x: unexpected status 500"
		if err := db.FinishRun(context.Background(), run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := db.GetRun(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Completed != 12 || got.Discovered != 12 {
			t.Errorf("unexpected counters %d/%d", got.Completed, got.Discovered)
		}
		if got.Status != model.RunStatusFailed || got.Error != run.Error {
			t.Errorf("unexpected status %q error %q", got.Status, got.Error)
		}
		if got.Elapsed() != 90*time.Second {
			t.Errorf("expected elapsed 90s, got %v", got.Elapsed())
		}
	})

	t.Run("finish unknown run returns error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		err := db.FinishRun(context.Background(), &model.Run{ID: 42, Status: model.RunStatusDone})
		if err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("get unknown run returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetRun(context.Background(), 999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil run, got %+v", got)
		}
	})

	t.Run("list runs newest first with limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		first := startTestRun(t, db, "https://example.com/a/")
		second := startTestRun(t, db, "https://example.com/b/")
		third := startTestRun(t, db, "https://example.com/c/")

		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].ID != third.ID || runs[2].ID != first.ID {
			t.Errorf("expected newest first, got ids %d,%d,%d", runs[0].ID, runs[1].ID, runs[2].ID)
		}

		limited, err := db.ListRuns(context.Background(), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(limited) != 2 || limited[1].ID != second.ID {
			t.Errorf("unexpected limited result %+v", limited)
		}
	})
}

// TestPages tests page recording.
func TestPages(t *testing.T) {
	t.Parallel()

	t.Run("pages are returned in fetch order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := startTestRun(t, db, "https://example.com/")
		ctx := context.Background()

		pages := []*model.Page{
			{
				URL:         "https://example.com",
				StatusCode:  200,
				ContentType: "text/html; charset=utf-8",
				Headers:     map[string][]string{"Server": {"nginx"}},
				Hash:        "abc",
				FetchedAt:   time.Now(),
				Duration:    250 * time.Millisecond,
			},
			{
				URL:         "https://example.com/logo.png",
				StatusCode:  200,
				ContentType: "image/png",
				FetchedAt:   time.Now(),
			},
			{
				URL:       "https://example.com/missing",
				FetchedAt: time.Now(),
				Error:     "unexpected status 404 Not Found",
			},
		}
		for _, p := range pages {
			if err := db.InsertPage(ctx, run.ID, p); err != nil {
				t.Fatalf("failed to insert page: %v", err)
			}
		}

		got, err := db.GetRunPages(ctx, run.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(got))
		}
		if got[0].URL != "https://example.com" || got[0].Headers["Server"][0] != "nginx" {
			t.Errorf("unexpected first page %+v", got[0])
		}
		if got[0].Duration != 250*time.Millisecond {
			t.Errorf("expected duration 250ms, got %v", got[0].Duration)
		}
		if !got[1].IsImage() {
			t.Errorf("unexpected second page %+v", got[1])
		}
		if !got[2].Failed() {
			t.Errorf("expected third page to be failed, got %+v", got[2])
		}
	})

	t.Run("same URL in one run is updated", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run := startTestRun(t, db, "https://example.com/")
		ctx := context.Background()

		page := &model.Page{URL: "https://example.com/a", StatusCode: 500, FetchedAt: time.Now()}
		if err := db.InsertPage(ctx, run.ID, page); err != nil {
			t.Fatalf("failed to insert page: %v", err)
		}
		page.StatusCode = 200
		if err := db.InsertPage(ctx, run.ID, page); err != nil {
			t.Fatalf("failed to update page: %v", err)
		}

		got, err := db.GetRunPages(ctx, run.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].StatusCode != 200 {
			t.Errorf("expected one updated page, got %+v", got)
		}
	})

	t.Run("pages of other runs are not returned", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		runA := startTestRun(t, db, "https://example.com/")
		runB := startTestRun(t, db, "https://example.com/")

		if err := db.InsertPage(ctx, runA.ID, &model.Page{URL: "https://example.com/", FetchedAt: time.Now()}); err != nil {
			t.Fatalf("failed to insert page: %v", err)
		}

		got, err := db.GetRunPages(ctx, runB.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no pages for run B, got %d", len(got))
		}
	})
}

// TestPagePath tests path extraction for stored pages.
func TestPagePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com", "/"},
		{"https://example.com/", "/"},
		{"https://example.com/a/b", "/a/b"},
		{"https://example.com/a%20b", "/a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := pagePath(tt.url); got != tt.want {
				t.Errorf("pagePath(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// TestParseTimestamp tests timestamp parsing with various formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantZero bool
	}{
		{"RFC3339 nano", "2025-03-01T12:00:00.123456789Z", false},
		{"RFC3339", "2025-03-01T12:00:00+09:00", false},
		{"SQLite datetime", "2025-03-01 12:00:00", false},
		{"ISO without zone", "2025-03-01T12:00:00", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.wantZero {
				t.Errorf("parseTimestamp(%q) = %v, wantZero %v", tt.input, got, tt.wantZero)
			}
		})
	}
}
