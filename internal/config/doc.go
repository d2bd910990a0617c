// Package config provides the configuration for sitecrawl.
// It defines defaults, validation and the optional YAML configuration file.
package config
