package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Spider drives a crawl: it spawns the State for a seed and runs Step until
// the frontier is exhausted.
//
// The driver has two states. It is Running until, checked before every step,
// at least one cycle has completed and completions have caught up with
// discoveries; then it is Done.
type Spider struct {
	// fetcher retrieves page bodies.
	fetcher Fetcher

	// extractor pulls references out of page bodies.
	extractor Extractor

	// includeImages enables following <img src> references.
	includeImages bool

	// continueOnError turns fetch failures into skipped locations
	// instead of aborting the crawl.
	continueOnError bool

	// progress is called before every step.
	progress ProgressFunc

	// pageHook is called after every fetch.
	pageHook PageHook

	// logger receives debug and warning output.
	logger *slog.Logger

	// clock returns the current time. Replaced in tests.
	clock func() time.Time
}

// Progress is the snapshot handed to a ProgressFunc before each step.
type Progress struct {
	// Step is the zero-based index of the step about to run.
	Step int

	// Elapsed is the wall-clock time since the crawl started.
	Elapsed time.Duration

	// Completed is the number of completed fetch cycles.
	Completed int

	// Discovered is the number of discovered URLs.
	Discovered int

	// Current is the location the next step will fetch.
	Current string
}

// Total returns the number of links processed so far.
func (p Progress) Total() int {
	return p.Discovered + p.Completed
}

// Rate returns links processed per second.
func (p Progress) Rate() float64 {
	return model.LinksPerSecond(p.Total(), p.Elapsed)
}

// ProgressFunc receives progress snapshots.
type ProgressFunc func(Progress)

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithImages enables or disables following image references.
func WithImages(include bool) SpiderOption {
	return func(s *Spider) {
		s.includeImages = include
	}
}

// WithExtractor replaces the default HTMLExtractor.
func WithExtractor(e Extractor) SpiderOption {
	return func(s *Spider) {
		s.extractor = e
	}
}

// WithContinueOnError makes fetch failures non-fatal. A failed location still
// counts as a completed cycle and its path is harvested, so the crawl keeps
// converging.
func WithContinueOnError(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.continueOnError = enabled
	}
}

// WithProgress sets the callback invoked before every step.
func WithProgress(fn ProgressFunc) SpiderOption {
	return func(s *Spider) {
		s.progress = fn
	}
}

// WithPageHook sets the callback invoked after every fetch.
func WithPageHook(hook PageHook) SpiderOption {
	return func(s *Spider) {
		s.pageHook = hook
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches through fetcher.
// Images are followed unless WithImages(false) is given.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:       fetcher,
		extractor:     NewHTMLExtractor(),
		includeImages: true,
		clock:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	return s
}

// Crawl spawns the state for seed and steps until Done.
//
// The returned State is non-nil whenever the seed was valid, including when
// a fetch error or context cancellation stopped the crawl, so callers can
// report the counters reached.
func (s *Spider) Crawl(ctx context.Context, seed string) (*State, error) {
	st, err := NewState(seed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("crawl started", "url", seed, "scope", st.Scope, "images", s.includeImages)

	start := s.clock()
	for i := 0; !st.Done(); i++ {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}

		elapsed := s.clock().Sub(start)
		if s.progress != nil && elapsed > 0 {
			s.progress(Progress{
				Step:       i,
				Elapsed:    elapsed,
				Completed:  st.Completed,
				Discovered: st.Discovered,
				Current:    st.Current,
			})
		}

		if err := step(ctx, st, s.fetcher, s.extractor, s.stepConfig()); err != nil {
			s.logger.Error("crawl aborted", "url", st.Current, "error", err)
			return st, err
		}
	}

	s.logger.Info("crawl finished",
		"completed", st.Completed,
		"discovered", st.Discovered,
		"elapsed", s.clock().Sub(start),
	)
	return st, nil
}

func (s *Spider) stepConfig() stepConfig {
	return stepConfig{
		includeImages:   s.includeImages,
		continueOnError: s.continueOnError,
		pageHook:        s.pageHook,
		logger:          s.logger,
	}
}
