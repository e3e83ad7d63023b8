// Package config provides configuration management for nginx-rtmp-exporter.
package config

import "time"

// Config holds all configuration options for the exporter.
type Config struct {
	// Upstream
	ScrapeURL    string        `json:"scrape_url"`
	FetchTimeout time.Duration `json:"fetch_timeout"`

	// Exposition
	ListenAddr    string        `json:"listen_address"`
	TelemetryPath string        `json:"telemetry_path"`
	LatencyWindow time.Duration `json:"latency_window"`

	// Metadata
	MetadataPath   string `json:"metadata"`
	MetadataFormat string `json:"format"` // json, toml, yaml, auto

	// Observability
	Verbose   bool   `json:"verbose"`
	LogFormat string `json:"log_format"` // json, text
	LogLevel  string `json:"log_level"`  // debug, info, warn, error

	// Diagnostic modes
	SkipPreflight bool `json:"skip_preflight"`

	// Dashboard
	WatchInterval  time.Duration `json:"watch_interval"`
	BackoffInitial time.Duration `json:"backoff_initial"`
	BackoffMax     time.Duration `json:"backoff_max"`

	// EnvFile is loaded before flags are resolved.
	EnvFile string `json:"env_file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Upstream
		FetchTimeout: 5 * time.Second,

		// Exposition
		ListenAddr:    "127.0.0.1:9114",
		TelemetryPath: "/metrics",
		LatencyWindow: 5 * time.Minute,

		// Metadata
		MetadataFormat: "json",

		// Observability
		Verbose:   false,
		LogFormat: "text",
		LogLevel:  "info",

		// Dashboard
		WatchInterval:  2 * time.Second,
		BackoffInitial: 500 * time.Millisecond,
		BackoffMax:     30 * time.Second,

		EnvFile: ".env",
	}
}
