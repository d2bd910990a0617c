package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ElementKind selects which references an Extractor returns.
type ElementKind int

const (
	// ElementLink selects <a href> values.
	ElementLink ElementKind = iota

	// ElementImage selects <img src> values.
	ElementImage
)

// Tag returns the HTML element name for the kind.
func (k ElementKind) Tag() string {
	if k == ElementImage {
		return "img"
	}
	return "a"
}

// Attr returns the attribute holding the reference for the kind.
func (k ElementKind) Attr() string {
	if k == ElementImage {
		return "src"
	}
	return "href"
}

// String returns a human-readable name for the kind.
func (k ElementKind) String() string {
	switch k {
	case ElementLink:
		return "link"
	case ElementImage:
		return "image"
	default:
		return "unknown"
	}
}

// Extractor pulls raw reference strings out of a document body.
// Values are returned in document order and are not deduplicated.
type Extractor interface {
	Extract(body string, kind ElementKind) []string
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(body string, kind ElementKind) []string

// Extract calls f(body, kind).
func (f ExtractorFunc) Extract(body string, kind ElementKind) []string {
	return f(body, kind)
}

// HTMLExtractor extracts references from HTML using goquery.
// The zero value is ready to use.
type HTMLExtractor struct{}

// NewHTMLExtractor returns an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the attribute value of every matching element that carries
// the attribute, including empty values. A body that cannot be parsed yields
// no references.
func (e *HTMLExtractor) Extract(body string, kind ElementKind) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	attr := kind.Attr()
	refs := make([]string, 0)
	doc.Find(kind.Tag()).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			refs = append(refs, v)
		}
	})
	return refs
}
