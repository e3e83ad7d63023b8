package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/meta"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or every problem joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	// Scrape URL is required
	if cfg.ScrapeURL == "" {
		errs = append(errs, ValidationError{
			Field:   "scrape_url",
			Message: "nginx-rtmp stat URL is required",
		})
	} else if err := validateURL(cfg.ScrapeURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "scrape_url",
			Message: err.Error(),
		})
	}

	if err := validateListenAddr(cfg.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Field:   "listen_address",
			Message: err.Error(),
		})
	}

	if !strings.HasPrefix(cfg.TelemetryPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "telemetry_path",
			Message: fmt.Sprintf("must start with '/' (got %q)", cfg.TelemetryPath),
		})
	}

	// Metadata format must be known
	if _, err := meta.ParseFormat(cfg.MetadataFormat); err != nil {
		errs = append(errs, ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("must be 'json', 'toml', 'yaml' or 'auto' (got %q)", cfg.MetadataFormat),
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be 'debug', 'info', 'warn' or 'error' (got %q)", cfg.LogLevel),
		})
	}

	// Durations must be positive
	durations := []struct {
		field string
		value time.Duration
	}{
		{"fetch_timeout", cfg.FetchTimeout},
		{"latency_window", cfg.LatencyWindow},
		{"watch_interval", cfg.WatchInterval},
		{"backoff_initial", cfg.BackoffInitial},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: "must be positive",
			})
		}
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		errs = append(errs, ValidationError{
			Field:   "backoff_max",
			Message: "must be >= backoff_initial",
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateURL checks if the URL is valid and uses http or https.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https (got %q)", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must have a host")
	}

	return nil
}

// validateListenAddr checks for a host:port pair. An empty host binds all
// interfaces.
func validateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("must be host:port: %w", err)
	}
	if port == "" {
		return errors.New("port must not be empty")
	}
	return nil
}
