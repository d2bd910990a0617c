package model

import (
	"encoding/hex"
	"mime"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Page represents one fetched location.
// Body holds the response decoded to UTF-8 text; the crawler extracts
// references from it and never keeps it after the step that fetched it.
type Page struct {
	// URL is the absolute URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the raw Content-Type header value.
	ContentType string `json:"content_type,omitempty"`

	// Headers contains the response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the decoded text body.
	Body string `json:"-"`

	// Hash is the hex encoded SHA3-256 of Body.
	Hash string `json:"hash,omitempty"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at"`

	// Duration is the time between sending the request and reading the body.
	Duration time.Duration `json:"duration"`

	// Error describes why the fetch failed. Empty for successful fetches.
	Error string `json:"error,omitempty"`
}

// ComputeHash calculates and sets the SHA3-256 hash of the page body.
func (p *Page) ComputeHash() {
	if p.Body == "" {
		p.Hash = ""
		return
	}

	sum := sha3.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(sum[:])
}

// MediaType returns the lower-cased media type of ContentType without
// parameters, or an empty string when the header is missing or malformed.
func (p *Page) MediaType() string {
	if p.ContentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		// Fall back to the part before ';' for sloppy servers.
		mediaType, _, _ = strings.Cut(p.ContentType, ";")
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mediaType
}

// IsHTML reports whether the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	switch p.MediaType() {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

// IsImage reports whether the page content type indicates an image.
func (p *Page) IsImage() bool {
	return strings.HasPrefix(p.MediaType(), "image/")
}

// Failed reports whether the page records a failed fetch.
func (p *Page) Failed() bool {
	return p.Error != ""
}
