package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is().
var (
	// ErrMissingSeed is returned when no seed URL is given on the command line.
	ErrMissingSeed = errors.New("missing argument: a seed URL is required")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to read bodies without a limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxy is returned when the proxy value cannot be parsed.
	ErrInvalidProxy = errors.New("invalid proxy")
)

// ErrConflictingReportFormats is returned when more than one output format
// flag is given.
var ErrConflictingReportFormats = errors.New("--json and --markdown are mutually exclusive")
