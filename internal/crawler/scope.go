package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveScope derives the crawl scope from the seed URL.
//
// The scope is the seed with its path suffix removed, which leaves the
// scheme, the authority, and nothing else for well-formed seeds:
//
//	https://example.com/a/b  ->  https://example.com
//
// When the escaped path is not a suffix of the seed (for example because the
// seed carries a query string) the seed is returned unchanged.
func ResolveScope(seed string) (string, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidSeedURL, seed, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeedURL, seed)
	}

	scope, found := strings.CutSuffix(seed, u.EscapedPath())
	if !found || scope == "" {
		return seed, nil
	}
	return scope, nil
}
