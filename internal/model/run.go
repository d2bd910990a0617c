package model

import "time"

// RunStatus is the final state of a recorded crawl.
type RunStatus string

const (
	// RunStatusRunning marks a crawl that has started but not yet finished.
	// A run left in this state was interrupted without cleanup.
	RunStatusRunning RunStatus = "running"

	// RunStatusDone marks a crawl whose frontier was exhausted.
	RunStatusDone RunStatus = "done"

	// RunStatusFailed marks a crawl aborted by an error.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCanceled marks a crawl stopped by the user.
	RunStatusCanceled RunStatus = "canceled"
)

// Run summarizes one crawl from spawn to termination.
type Run struct {
	// ID is the database identifier. Zero for runs that were never stored.
	ID int64 `json:"id"`

	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Scope is the origin prefix derived from Seed.
	Scope string `json:"scope"`

	// StartedAt is when the crawl was spawned.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the driver stopped. Zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Completed is the number of fetch cycles completed.
	Completed int `json:"completed"`

	// Discovered is the number of distinct novel URLs discovered.
	Discovered int `json:"discovered"`

	// Status is the final state of the crawl.
	Status RunStatus `json:"status"`

	// Error holds the message of the error that stopped the crawl, if any.
	Error string `json:"error,omitempty"`
}

// Total returns the number of links processed, discovered plus completed.
func (r *Run) Total() int {
	return r.Discovered + r.Completed
}

// Elapsed returns the wall-clock duration of the run.
// For unfinished runs it is measured up to now.
func (r *Run) Elapsed() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Rate returns the throughput in links per second.
// It returns 0 when no time has elapsed.
func (r *Run) Rate() float64 {
	return LinksPerSecond(r.Total(), r.Elapsed())
}

// LinksPerSecond divides total by the elapsed seconds, returning 0 for a
// non-positive duration.
func LinksPerSecond(total int, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(total) / secs
}
