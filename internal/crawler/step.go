package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Fetcher retrieves the body of a location.
// Implementations must send an identifying User-Agent header and return the
// complete body decoded as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*model.Page, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*model.Page, error) {
	return f(ctx, url)
}

// PageHook observes every fetch cycle. For failed fetches the page carries
// only URL, FetchedAt and Error.
type PageHook func(ctx context.Context, page *model.Page) error

// stepConfig carries the knobs of a single step.
type stepConfig struct {
	includeImages   bool
	continueOnError bool
	pageHook        PageHook
	logger          *slog.Logger
}

// Step runs one crawl cycle on st:
//  1. fetch st.Current (a failure aborts with *FetchError)
//  2. count the cycle as completed and harvest st.Current
//  3. normalize every <a href> and queue the novel ones
//  4. do the same for <img src> when includeImages is true
//  5. move the smallest queued URL into st.Current
//
// When the queue is empty after step 4, st.Current is left unchanged.
func Step(ctx context.Context, st *State, fetcher Fetcher, extractor Extractor, includeImages bool) error {
	return step(ctx, st, fetcher, extractor, stepConfig{
		includeImages: includeImages,
		logger:        slog.New(slog.DiscardHandler),
	})
}

func step(ctx context.Context, st *State, fetcher Fetcher, extractor Extractor, cfg stepConfig) error {
	current := st.Current
	cfg.logger.Debug("fetching", "url", current)

	page, err := fetcher.Fetch(ctx, current)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		fetchErr := &FetchError{URL: current, Err: err}
		notify(ctx, cfg, &model.Page{URL: current, FetchedAt: time.Now(), Error: err.Error()})

		if !cfg.continueOnError {
			return fetchErr
		}

		cfg.logger.Warn("skipping location after fetch failure", "url", current, "error", err)
		st.Completed++
		st.MarkHarvested(current)
		advance(st)
		return nil
	}

	st.Completed++
	st.MarkHarvested(current)
	notify(ctx, cfg, page)

	enqueue(st, extractor, page.Body, ElementLink, cfg.logger)
	if cfg.includeImages {
		enqueue(st, extractor, page.Body, ElementImage, cfg.logger)
	}

	advance(st)
	return nil
}

// enqueue feeds every reference of kind found in body into the frontier.
func enqueue(st *State, extractor Extractor, body string, kind ElementKind, logger *slog.Logger) {
	for _, raw := range extractor.Extract(body, kind) {
		normalized := NormalizeLink(raw, st.Scope)
		if normalized == "" {
			logger.Debug("rejected reference", "kind", kind, "ref", raw)
			continue
		}
		if st.RecordDiscovery(normalized) {
			logger.Debug("queued", "kind", kind, "url", normalized)
		}
	}
}

// advance selects the next location to visit, if any.
func advance(st *State) {
	if next, ok := st.Next(); ok {
		st.Current = next
	}
}

// notify hands page to the hook. Hook failures never affect the crawl.
func notify(ctx context.Context, cfg stepConfig, page *model.Page) {
	if cfg.pageHook == nil {
		return
	}
	if err := cfg.pageHook(ctx, page); err != nil {
		cfg.logger.Warn("page hook failed", "url", page.URL, "error", err)
	}
}
