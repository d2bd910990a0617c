package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProxyAddress is returned when the proxy value is neither
	// "host:port" nor a socks5, http or https URL.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://, http://, https:// URL")

	// ErrEmptyResponse is returned when the server response has no body.
	ErrEmptyResponse = errors.New("empty response body")

	// ErrBodyTooLarge is returned when a decoded body exceeds the configured
	// size limit. Partial bodies are never returned.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the status line text, e.g. "404 Not Found".
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}
