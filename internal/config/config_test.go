package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.ScrapeURL = "http://127.0.0.1:8080/stat"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify critical defaults
	if cfg.ListenAddr != "127.0.0.1:9114" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, "127.0.0.1:9114")
	}
	if cfg.TelemetryPath != "/metrics" {
		t.Errorf("TelemetryPath = %q, want /metrics", cfg.TelemetryPath)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.MetadataFormat != "json" {
		t.Errorf("MetadataFormat = %q, want json", cfg.MetadataFormat)
	}
	if cfg.ScrapeURL != "" {
		t.Errorf("ScrapeURL = %q, want empty", cfg.ScrapeURL)
	}
}

// =============================================================================
// Validate
// =============================================================================

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Valid config should not error: %v", err)
	}
}

func TestValidate_MissingScrapeURL(t *testing.T) {
	err := Validate(DefaultConfig())
	if err == nil {
		t.Fatal("Expected error for missing scrape URL")
	}
	if !strings.Contains(err.Error(), "scrape_url") {
		t.Errorf("Error should mention scrape_url: %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ftp scheme", func(c *Config) { c.ScrapeURL = "ftp://host/stat" }, "scrape_url"},
		{"no host", func(c *Config) { c.ScrapeURL = "http:///stat" }, "scrape_url"},
		{"bad url", func(c *Config) { c.ScrapeURL = "http://[::1" }, "scrape_url"},
		{"listen without port", func(c *Config) { c.ListenAddr = "127.0.0.1" }, "listen_address"},
		{"listen empty port", func(c *Config) { c.ListenAddr = "127.0.0.1:" }, "listen_address"},
		{"relative telemetry path", func(c *Config) { c.TelemetryPath = "metrics" }, "telemetry_path"},
		{"unknown format", func(c *Config) { c.MetadataFormat = "xml" }, "format"},
		{"unknown log format", func(c *Config) { c.LogFormat = "logfmt" }, "log_format"},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, "fetch_timeout"},
		{"negative window", func(c *Config) { c.LatencyWindow = -time.Second }, "latency_window"},
		{"zero watch interval", func(c *Config) { c.WatchInterval = 0 }, "watch_interval"},
		{"backoff max below initial", func(c *Config) { c.BackoffMax = time.Millisecond }, "backoff_max"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestValidate_AcceptsAllInterfaces(t *testing.T) {
	cfg := validConfig()
	cfg.ListenAddr = ":9114"
	if err := Validate(cfg); err != nil {
		t.Errorf("':9114' should be valid: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchTimeout = 0
	cfg.LogFormat = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected multiple errors")
	}

	errStr := err.Error()
	for _, field := range []string{"scrape_url", "fetch_timeout", "log_format"} {
		if !strings.Contains(errStr, field) {
			t.Errorf("Error should mention %s", field)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test_field",
		Message: "test message",
	}

	errStr := err.Error()
	if errStr != "test_field: test message" {
		t.Errorf("Error string = %q, want %q", errStr, "test_field: test message")
	}
}

// =============================================================================
// Flags and environment
// =============================================================================

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, cfg)
	return fs
}

func TestResolve_Precedence(t *testing.T) {
	t.Setenv("NGINX_RTMP_EXPORTER_SCRAPE_URL", "http://env:8080/stat")
	t.Setenv("NGINX_RTMP_EXPORTER_FETCH_TIMEOUT", "9s")
	t.Setenv("NGINX_RTMP_EXPORTER_LISTEN_ADDRESS", "0.0.0.0:1")

	cfg := DefaultConfig()
	cfg.EnvFile = ""
	fs := newFlagSet(cfg)
	if err := fs.Parse([]string{"--listen-address", "127.0.0.1:9999", "-v"}); err != nil {
		t.Fatal(err)
	}

	if err := Resolve(fs, cfg); err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	if cfg.ScrapeURL != "http://env:8080/stat" {
		t.Errorf("ScrapeURL = %q, want env value", cfg.ScrapeURL)
	}
	if cfg.FetchTimeout != 9*time.Second {
		t.Errorf("FetchTimeout = %v, want 9s from env", cfg.FetchTimeout)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q, flag should win over env", cfg.ListenAddr)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be set by -v")
	}
	if cfg.TelemetryPath != "/metrics" {
		t.Errorf("TelemetryPath = %q, want default", cfg.TelemetryPath)
	}
}

func TestResolve_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exporter.env")
	content := "NGINX_RTMP_EXPORTER_METADATA=/etc/meta.toml\nNGINX_RTMP_EXPORTER_FORMAT=toml\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets process variables; clear them when the test ends.
	t.Setenv("NGINX_RTMP_EXPORTER_METADATA", "")
	os.Unsetenv("NGINX_RTMP_EXPORTER_METADATA")
	t.Setenv("NGINX_RTMP_EXPORTER_FORMAT", "")
	os.Unsetenv("NGINX_RTMP_EXPORTER_FORMAT")

	cfg := DefaultConfig()
	fs := newFlagSet(cfg)
	if err := fs.Parse([]string{"--env-file", path}); err != nil {
		t.Fatal(err)
	}

	if err := Resolve(fs, cfg); err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if cfg.MetadataPath != "/etc/meta.toml" || cfg.MetadataFormat != "toml" {
		t.Errorf("metadata = %q/%q, want values from env file", cfg.MetadataPath, cfg.MetadataFormat)
	}
}

func TestResolve_MissingEnvFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("default path ignored", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnvFile = missing
		fs := newFlagSet(cfg)
		if err := Resolve(fs, cfg); err != nil {
			t.Errorf("Resolve() unexpected error: %v", err)
		}
	})

	t.Run("explicit path fails", func(t *testing.T) {
		cfg := DefaultConfig()
		fs := newFlagSet(cfg)
		if err := fs.Parse([]string{"--env-file", missing}); err != nil {
			t.Fatal(err)
		}
		if err := Resolve(fs, cfg); err == nil {
			t.Error("Resolve() with explicit missing env file should fail")
		}
	})
}

func TestUsage_Categories(t *testing.T) {
	cfg := DefaultConfig()
	fs := newFlagSet(cfg)
	fs.Bool("summary", false, "Print a summary")

	out := Usage(fs)
	for _, want := range []string{"Upstream:", "--scrape-url", "Dashboard:", "Other:", "--summary"} {
		if !strings.Contains(out, want) {
			t.Errorf("Usage() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Upstream:") > strings.Index(out, "Metadata:") {
		t.Error("categories out of order")
	}
}
