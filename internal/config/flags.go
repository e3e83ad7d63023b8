package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override,
// e.g. NGINX_RTMP_EXPORTER_SCRAPE_URL.
const EnvPrefix = "NGINX_RTMP_EXPORTER"

// Flag names.
const (
	FlagScrapeURL      = "scrape-url"
	FlagFetchTimeout   = "fetch-timeout"
	FlagListenAddr     = "listen-address"
	FlagTelemetryPath  = "telemetry-path"
	FlagLatencyWindow  = "latency-window"
	FlagMetadata       = "metadata"
	FlagFormat         = "format"
	FlagVerbose        = "verbose"
	FlagLogFormat      = "log-format"
	FlagLogLevel       = "log-level"
	FlagSkipPreflight  = "skip-preflight"
	FlagWatchInterval  = "watch-interval"
	FlagBackoffInitial = "backoff-initial"
	FlagBackoffMax     = "backoff-max"
	FlagEnvFile        = "env-file"
)

// flagCategories groups flags for the usage message.
var flagCategories = []struct {
	title string
	names []string
}{
	{"Upstream", []string{FlagScrapeURL, FlagFetchTimeout}},
	{"Exposition", []string{FlagListenAddr, FlagTelemetryPath, FlagLatencyWindow}},
	{"Metadata", []string{FlagMetadata, FlagFormat}},
	{"Observability", []string{FlagVerbose, FlagLogFormat, FlagLogLevel}},
	{"Safety & Diagnostics", []string{FlagSkipPreflight, FlagEnvFile}},
	{"Dashboard", []string{FlagWatchInterval, FlagBackoffInitial, FlagBackoffMax}},
}

// BindFlags registers every configuration flag on flags with cfg's values as
// defaults.
func BindFlags(flags *pflag.FlagSet, cfg *Config) {
	// Upstream
	flags.StringVar(&cfg.ScrapeURL, FlagScrapeURL, cfg.ScrapeURL, "nginx-rtmp stat page URL (e.g. http://127.0.0.1:8080/stat)")
	flags.DurationVar(&cfg.FetchTimeout, FlagFetchTimeout, cfg.FetchTimeout, "Timeout for one stat page fetch")

	// Exposition
	flags.StringVar(&cfg.ListenAddr, FlagListenAddr, cfg.ListenAddr, "Address to expose metrics on")
	flags.StringVar(&cfg.TelemetryPath, FlagTelemetryPath, cfg.TelemetryPath, "Path under which metrics are exposed")
	flags.DurationVar(&cfg.LatencyWindow, FlagLatencyWindow, cfg.LatencyWindow, "Rolling window for fetch latency percentiles")

	// Metadata
	flags.StringVar(&cfg.MetadataPath, FlagMetadata, cfg.MetadataPath, "Path to the stream metadata file")
	flags.StringVar(&cfg.MetadataFormat, FlagFormat, cfg.MetadataFormat, `Metadata file format: "json", "toml", "yaml" or "auto"`)

	// Observability
	flags.BoolVarP(&cfg.Verbose, FlagVerbose, "v", cfg.Verbose, "Verbose logging (same as --log-level=debug)")
	flags.StringVar(&cfg.LogFormat, FlagLogFormat, cfg.LogFormat, `Log format: "json" or "text"`)
	flags.StringVar(&cfg.LogLevel, FlagLogLevel, cfg.LogLevel, `Log level: "debug", "info", "warn" or "error"`)

	// Safety & Diagnostics
	flags.BoolVar(&cfg.SkipPreflight, FlagSkipPreflight, cfg.SkipPreflight, "Skip preflight checks")
	flags.StringVar(&cfg.EnvFile, FlagEnvFile, cfg.EnvFile, "Environment file loaded before flags are resolved")

	// Dashboard
	flags.DurationVar(&cfg.WatchInterval, FlagWatchInterval, cfg.WatchInterval, "Poll interval of the watch dashboard")
	flags.DurationVar(&cfg.BackoffInitial, FlagBackoffInitial, cfg.BackoffInitial, "Initial dashboard retry delay after a failed poll")
	flags.DurationVar(&cfg.BackoffMax, FlagBackoffMax, cfg.BackoffMax, "Maximum dashboard retry delay")
}

// Resolve overlays environment variables on cfg. Flags set on the command
// line win over the environment, which wins over defaults. The env file is
// loaded first; a missing file is ignored unless it was named explicitly.
func Resolve(flags *pflag.FlagSet, cfg *Config) error {
	if err := loadEnvFile(cfg.EnvFile, flags.Changed(FlagEnvFile)); err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	cfg.ScrapeURL = v.GetString(FlagScrapeURL)
	cfg.FetchTimeout = v.GetDuration(FlagFetchTimeout)
	cfg.ListenAddr = v.GetString(FlagListenAddr)
	cfg.TelemetryPath = v.GetString(FlagTelemetryPath)
	cfg.LatencyWindow = v.GetDuration(FlagLatencyWindow)
	cfg.MetadataPath = v.GetString(FlagMetadata)
	cfg.MetadataFormat = v.GetString(FlagFormat)
	cfg.Verbose = v.GetBool(FlagVerbose)
	cfg.LogFormat = v.GetString(FlagLogFormat)
	cfg.LogLevel = v.GetString(FlagLogLevel)
	cfg.SkipPreflight = v.GetBool(FlagSkipPreflight)
	cfg.WatchInterval = v.GetDuration(FlagWatchInterval)
	cfg.BackoffInitial = v.GetDuration(FlagBackoffInitial)
	cfg.BackoffMax = v.GetDuration(FlagBackoffMax)

	return nil
}

// loadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// Usage renders flags grouped by category. Flags outside every category are
// listed last.
func Usage(flags *pflag.FlagSet) string {
	var b strings.Builder
	seen := make(map[string]bool)

	for _, cat := range flagCategories {
		section := pflag.NewFlagSet(cat.title, pflag.ContinueOnError)
		for _, name := range cat.names {
			if f := flags.Lookup(name); f != nil {
				section.AddFlag(f)
				seen[name] = true
			}
		}
		if section.HasFlags() {
			fmt.Fprintf(&b, "\n%s:\n%s", cat.title, section.FlagUsages())
		}
	}

	other := pflag.NewFlagSet("other", pflag.ContinueOnError)
	flags.VisitAll(func(f *pflag.Flag) {
		if !seen[f.Name] {
			other.AddFlag(f)
		}
	})
	if other.HasFlags() {
		fmt.Fprintf(&b, "\nOther:\n%s", other.FlagUsages())
	}

	return b.String()
}
