package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/sitecrawl/internal/fetcher"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecrawl"

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultTimeout bounds each request, body included.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultMaxBodySize caps the body size per page. 0 means no limit.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize
)

// Config holds all options of a crawl.
// It is populated from defaults, the optional config file and CLI flags, in
// that order, and passed down explicitly rather than kept in global state.
type Config struct {
	// Seed is the URL the crawl starts from. It also defines the scope.
	Seed string

	// IncludeImages enables following <img src> references.
	// The --noimage flag turns it off.
	IncludeImages bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum body size per page. A longer body fails the
	// fetch. 0 disables the limit.
	MaxBodySize int64

	// Proxy is an optional proxy: "host:port" (SOCKS5) or a socks5, http or
	// https URL.
	Proxy string

	// Cookie is a raw cookie string attached to every request.
	Cookie string

	// Headers are extra request headers.
	Headers map[string]string

	// ContinueOnError makes fetch failures non-fatal.
	ContinueOnError bool

	// History records every crawl in the SQLite database under DBDir.
	History bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/sitecrawl on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		IncludeImages: true,
		UserAgent:     DefaultUserAgent,
		Timeout:       DefaultTimeout,
		MaxBodySize:   DefaultMaxBodySize,
		DBDir:         XDGDataDir(),
	}
}

// ApplyFile overlays the values set in f on c. Zero values in f keep the
// current setting.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.MaxBodySize != nil {
		c.MaxBodySize = *f.MaxBodySize
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Cookie != "" {
		c.Cookie = f.Cookie
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
	if f.NoImage {
		c.IncludeImages = false
	}
	if f.ContinueOnError {
		c.ContinueOnError = true
	}
	if f.History {
		c.History = true
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
}

// FetcherOptions translates the HTTP related settings into fetcher options.
func (c *Config) FetcherOptions() []fetcher.Option {
	opts := []fetcher.Option{
		fetcher.WithUserAgent(c.UserAgent),
		fetcher.WithTimeout(c.Timeout),
		fetcher.WithMaxBodySize(c.MaxBodySize),
	}
	if c.Proxy != "" {
		opts = append(opts, fetcher.WithProxy(c.Proxy))
	}
	if c.Cookie != "" {
		opts = append(opts, fetcher.WithCookie(c.Cookie))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, fetcher.WithHeaders(c.Headers))
	}
	return opts
}

// XDGDataDir returns the XDG data directory for sitecrawl.
// On Linux: ~/.local/share/sitecrawl
// On macOS: ~/Library/Application Support/sitecrawl
// On Windows: %LOCALAPPDATA%\sitecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrMissingSeed
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Proxy != "" {
		if _, err := fetcher.ParseProxy(c.Proxy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
	}

	return nil
}
