package crawler

import (
	"net/url"
	"strings"
)

// NormalizeLink turns a raw reference extracted from a page into a canonical
// absolute URL inside scope. An empty result means the reference is rejected.
//
// The rules are applied in order:
//  1. everything from the first '#' or '?' is dropped
//  2. a reference that already starts with scope is returned as is
//  3. a root-relative path ("/about") is appended to scope
//  4. anything else is rejected
//
// Scheme-relative references ("//cdn.example.com/x") start with '/' but name
// a host of their own, so they are rejected as well.
func NormalizeLink(raw, scope string) string {
	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		raw = raw[:i]
	}

	if scope != "" && strings.HasPrefix(raw, scope) {
		return raw
	}

	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return scope + raw
	}

	return ""
}

// CanonicalID returns the identifier used for harvested-set membership: the
// escaped path of rawURL with scheme and host discarded. An empty path is
// reported as "/", so "https://example.com" and "https://example.com/" share
// an identifier.
//
// URLs that net/url rejects, such as "https://example.com/100%", still get an
// identifier: the text between the authority and the first '?' or '#'.
func CanonicalID(rawURL string) string {
	var path string
	if u, err := url.Parse(rawURL); err == nil {
		path = u.EscapedPath()
	} else {
		path = lexicalPath(rawURL)
	}

	if path == "" {
		return "/"
	}
	return path
}

// lexicalPath extracts the path of an absolute or root-relative URL without
// decoding it.
func lexicalPath(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	if _, rest, ok := strings.Cut(rawURL, "://"); ok {
		i := strings.IndexByte(rest, '/')
		if i < 0 {
			return ""
		}
		return rest[i:]
	}
	return rawURL
}
