package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name looked up in the
	// current and home directories.
	DefaultConfigFile = ".sitecrawl"

	// xdgConfigFile is the file name inside XDGConfigDir.
	xdgConfigFile = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .sitecrawl configuration file.
type File struct {
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Timeout is the per-request timeout, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxBodySize fails fetches of longer bodies. 0 disables the limit.
	MaxBodySize *int64 `yaml:"maxBodySize,omitempty"`

	// Proxy is "host:port" (SOCKS5) or a socks5, http or https URL.
	Proxy string `yaml:"proxy,omitempty"`

	// Cookie is sent with every request. Format: "name=value; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// NoImage disables following image references.
	NoImage bool `yaml:"noImage,omitempty"`

	// ContinueOnError skips locations that fail to fetch.
	ContinueOnError bool `yaml:"continueOnError,omitempty"`

	// History records crawls in the SQLite history database.
	History bool `yaml:"history,omitempty"`

	// DBDir overrides the history database directory.
	DBDir string `yaml:"dbDir,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sitecrawl in the current directory
// 3. Look for .sitecrawl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}
