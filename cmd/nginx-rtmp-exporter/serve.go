package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/config"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/exporter"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/metrics"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/preflight"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/timeseries"
)

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 10 * time.Second

// pipeline is the wired translation stack shared by serve and probe.
type pipeline struct {
	registry *prometheus.Registry
	fetcher  *rtmpstat.Fetcher
	exporter *exporter.Exporter
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	dict, err := loadDictionary(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	surface, err := metrics.NewSurface(reg, dict, version)
	if err != nil {
		return nil, err
	}

	fetcher := rtmpstat.NewFetcher(cfg.ScrapeURL, cfg.FetchTimeout, logger)

	exp := exporter.New(exporter.Config{
		Fetcher:    fetcher,
		Dictionary: dict,
		Sink:       surface,
		Gatherer:   reg,
		Latency:    timeseries.NewLatencyWindow(cfg.LatencyWindow),
		Timeout:    cfg.FetchTimeout,
		Logger:     logger,
	})

	return &pipeline{registry: reg, fetcher: fetcher, exporter: exp}, nil
}

// serve runs the exporter until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if !cfg.SkipPreflight {
		result := preflight.RunAll(ctx, preflight.Options{
			ListenAddr: cfg.ListenAddr,
			Fetcher:    p.fetcher,
		})
		preflight.PrintResults(stderr, result)
		if !result.Passed {
			return errors.New("preflight checks failed (use --skip-preflight to bypass)")
		}
	}

	logger.Info("starting",
		"version", version,
		"scrape_url", cfg.ScrapeURL,
		"listen_address", cfg.ListenAddr,
		"telemetry_path", cfg.TelemetryPath,
	)

	srv := metrics.NewServer(metrics.ServerConfig{
		Addr:          cfg.ListenAddr,
		TelemetryPath: cfg.TelemetryPath,
		Version:       version,
	}, p.exporter, logger)

	if err := srv.Start(); err != nil {
		return err
	}

	printBanner(stdout, cfg, srv.Addr())

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

// printBanner prints the startup banner.
func printBanner(w io.Writer, cfg *config.Config, addr string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                      nginx-rtmp-exporter                          ║")
	fmt.Fprintln(w, "║        nginx-rtmp-module statistics as Prometheus metrics         ║")
	fmt.Fprintln(w, "╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Upstream:    %s\n", cfg.ScrapeURL)
	fmt.Fprintf(w, "  Metrics:     http://%s%s\n", addr, cfg.TelemetryPath)
	if cfg.MetadataPath != "" {
		fmt.Fprintf(w, "  Metadata:    %s\n", cfg.MetadataPath)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Press Ctrl+C to stop.")
	fmt.Fprintln(w)
}
