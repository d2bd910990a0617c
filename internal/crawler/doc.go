// Package crawler implements the crawl-state machine of sitecrawl.
//
// # Architecture
//
// A crawl is bounded by a scope, the origin prefix derived from the seed URL.
// The State type owns the frontier: the set of harvested paths, the set of
// queued URLs, and the completed/discovered counters. The Spider drives the
// crawl by repeatedly running a Step until the frontier is exhausted.
//
// # Components
//
//   - ResolveScope: derives the scope from the seed URL
//   - NormalizeLink: turns a raw href/src value into an in-scope absolute URL or ""
//   - State: frontier bookkeeping (novelty, discovery, harvesting, next location)
//   - Step: one fetch/extract/enqueue/select cycle
//   - Spider: the driver loop with its termination predicate and progress hook
//   - HTMLExtractor: pulls href/src attribute values out of an HTML body
//
// # Link policy
//
// Only two reference forms are followed: absolute URLs that start with the
// scope, and root-relative paths ("/about"). Query strings and fragments are
// dropped before comparison. Document-relative ("../x", "x.html"),
// scheme-relative ("//host/x"), and foreign-scheme references are rejected.
//
// # Concurrency
//
// A crawl has a single thread of control. One State is owned by one Spider at
// a time and is never shared, so none of the types in this package lock.
//
// # Usage
//
//	spider := crawler.NewSpider(httpFetcher, crawler.WithImages(true))
//	state, err := spider.Crawl(ctx, "https://example.com/")
package crawler
