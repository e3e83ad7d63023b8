// Package main provides the nginx-rtmp-exporter CLI entry point.
//
// nginx-rtmp-exporter polls the nginx-rtmp-module statistics page on every
// Prometheus scrape and exposes the server, application and stream figures as
// metrics, labelled with per-stream metadata from an optional dictionary file.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/config"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/logging"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/meta"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/nginx-rtmp-exporter
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newRootCmd builds the command tree. Configuration flags are persistent so
// every subcommand resolves the same settings.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.DefaultConfig()

	root := &cobra.Command{
		Use:   "nginx-rtmp-exporter",
		Short: "Prometheus exporter for the nginx-rtmp-module statistics page",
		Long: `nginx-rtmp-exporter serves Prometheus metrics translated from the
nginx-rtmp-module XML statistics page. Every scrape fetches the page once.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := setup(cmd, cfg, stderr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("nginx-rtmp-exporter {{.Version}}\n")

	config.BindFlags(root.PersistentFlags(), cfg)

	root.SetUsageFunc(func(c *cobra.Command) error {
		out := c.OutOrStderr()
		fmt.Fprintf(out, "Usage:\n  %s\n", c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintln(out, "\nCommands:")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(out, "  %-10s %s\n", sub.Name(), sub.Short)
				}
			}
		}
		fmt.Fprint(out, config.Usage(c.Flags()))
		return nil
	})

	root.AddCommand(
		newProbeCmd(cfg, stdout, stderr),
		newWatchCmd(cfg, stderr),
		newVersionCmd(stdout),
	)

	return root
}

// setup resolves and validates the configuration and builds the logger.
func setup(cmd *cobra.Command, cfg *config.Config, logOut io.Writer) (*slog.Logger, error) {
	if err := config.Resolve(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}

	var logger *slog.Logger
	if f, ok := logOut.(*os.File); ok && f == os.Stderr {
		logger = logging.NewLogger(cfg.LogFormat, level, cfg.Verbose)
	} else {
		logger = logging.NewLoggerWithWriter(logOut, cfg.LogFormat, level)
	}
	logging.SetDefault(logger)

	rtmpstat.UserAgent = "nginx-rtmp-exporter/" + version

	return logger, nil
}

// loadDictionary reads the metadata file, or returns an empty dictionary
// when none is configured.
func loadDictionary(cfg *config.Config, logger *slog.Logger) (*meta.Dictionary, error) {
	if cfg.MetadataPath == "" {
		logger.Debug("metadata_not_configured")
		return meta.New()
	}

	format, err := meta.ParseFormat(cfg.MetadataFormat)
	if err != nil {
		return nil, err
	}

	dict, err := meta.Load(cfg.MetadataPath, format)
	if err != nil {
		return nil, err
	}

	logger.Info("metadata_loaded",
		"path", cfg.MetadataPath,
		"fields", dict.Fields(),
		"streams", dict.Streams(),
		"global_labels", len(dict.Global()),
	)
	return dict, nil
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "nginx-rtmp-exporter %s\n", version)
		},
	}
}
