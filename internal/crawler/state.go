package crawler

import (
	"maps"
	"slices"
)

// State is the mutable crawl state. It is created once per crawl by NewState,
// mutated by one Step at a time, and discarded when the driver stops.
//
// Invariants:
//   - Scope is set at spawn time and never changes
//   - every queued URL starts with Scope
//   - Completed grows by one per finished fetch cycle
//   - Discovered grows by one per URL accepted as novel
type State struct {
	// Scope is the origin prefix every in-scope URL starts with.
	Scope string

	// Current is the URL being visited, or about to be visited.
	Current string

	// Completed is the number of fetch cycles completed.
	Completed int

	// Discovered is the number of distinct novel URLs discovered so far.
	Discovered int

	// harvested holds canonical identifiers (paths) of fetched URLs.
	harvested map[string]struct{}

	// queued holds absolute URLs waiting for a visit.
	queued map[string]struct{}
}

// NewState spawns the crawl state for seed. The seed becomes the first
// location to visit and its scope is fixed for the lifetime of the crawl.
func NewState(seed string) (*State, error) {
	scope, err := ResolveScope(seed)
	if err != nil {
		return nil, err
	}

	return &State{
		Scope:     scope,
		Current:   seed,
		harvested: make(map[string]struct{}),
		queued:    make(map[string]struct{}),
	}, nil
}

// IsNovel reports whether a normalized URL is new to the frontier.
//
// The path-only identifier of the URL is looked up in the harvested set while
// the full URL string is looked up in the queued set. Two spellings of the
// same path can therefore both sit in the queue; only harvesting collapses
// them.
func (s *State) IsNovel(normalized string) bool {
	if _, ok := s.harvested[CanonicalID(normalized)]; ok {
		return false
	}
	if _, ok := s.queued[normalized]; ok {
		return false
	}
	return true
}

// RecordDiscovery queues normalized and counts it as discovered when it is
// non-empty and novel. It reports whether the URL was accepted.
func (s *State) RecordDiscovery(normalized string) bool {
	if normalized == "" || !s.IsNovel(normalized) {
		return false
	}
	s.queued[normalized] = struct{}{}
	s.Discovered++
	return true
}

// MarkHarvested records the canonical identifier of rawURL as fetched.
func (s *State) MarkHarvested(rawURL string) {
	s.harvested[CanonicalID(rawURL)] = struct{}{}
}

// Next removes and returns the lexicographically smallest queued URL.
// The second result is false when the queue is empty.
//
// Each call scans the whole queue: O(n) per call, O(n²) over a crawl of n
// locations.
func (s *State) Next() (string, bool) {
	if len(s.queued) == 0 {
		return "", false
	}

	var next string
	first := true
	for u := range s.queued {
		if first || u < next {
			next = u
			first = false
		}
	}
	delete(s.queued, next)
	return next, true
}

// Done reports whether the driver must stop: at least one cycle completed and
// completions have caught up with discoveries.
func (s *State) Done() bool {
	return s.Completed > 0 && s.Completed >= s.Discovered
}

// IsHarvested reports whether the canonical identifier of rawURL has been
// harvested.
func (s *State) IsHarvested(rawURL string) bool {
	_, ok := s.harvested[CanonicalID(rawURL)]
	return ok
}

// IsQueued reports whether the exact URL string is waiting in the queue.
func (s *State) IsQueued(rawURL string) bool {
	_, ok := s.queued[rawURL]
	return ok
}

// Harvested returns the harvested identifiers in sorted order.
func (s *State) Harvested() []string {
	return slices.Sorted(maps.Keys(s.harvested))
}

// Queued returns the queued URLs in sorted order.
func (s *State) Queued() []string {
	return slices.Sorted(maps.Keys(s.queued))
}

// QueueLen returns the number of queued URLs.
func (s *State) QueueLen() int {
	return len(s.queued)
}
