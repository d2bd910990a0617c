package crawler

import (
	"errors"
	"fmt"
)

// ErrInvalidSeedURL is returned when the seed is not an absolute URL with a
// scheme and a host. The crawl never starts in this case.
var ErrInvalidSeedURL = errors.New("invalid seed URL: must be an absolute URL with scheme and host")

// FetchError reports that the location being visited could not be fetched.
// Err holds the transport cause (DNS, connection, status, decoding).
type FetchError struct {
	// URL is the location that failed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
