// Package exporter implements the translation engine: one reset, fetch and
// populate cycle per Prometheus scrape.
//
// The engine is the registry's gatherer. Gather holds a single lock across
// the whole cycle and the registry gather, so concurrent scrapes are
// serialized and never observe a half-populated metric set.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/meta"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/metrics"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/timeseries"
)

// Fetcher retrieves one status snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*rtmpstat.Snapshot, error)
}

// Sink is the write-only metric surface the engine populates.
type Sink interface {
	Reset()
	SetBuildInfo(version, compiler, rtmpVersion string)
	SetApplicationCount(n int)
	SetServerTraffic(bytesIn, bytesOut, bandwidthIn, bandwidthOut uint64)
	SetActiveStreams(application string, n int)
	SetStreamTraffic(labels []string, t metrics.StreamTraffic) error
	SetPublisherAVSync(labels []string, v int64) error
	SetTotalClients(labels []string, n int) error
	ObserveScrape(d time.Duration, err error)
	SetFetchLatency(p50, p99 time.Duration)
}

// Config configures an Exporter.
type Config struct {
	Fetcher    Fetcher
	Dictionary *meta.Dictionary
	Sink       Sink

	// Gatherer is the registry the sink writes to.
	Gatherer prometheus.Gatherer

	// Latency receives the duration of every successful fetch. Optional.
	Latency *timeseries.LatencyWindow

	// Timeout bounds one cycle started by Gather.
	Timeout time.Duration

	Logger *slog.Logger
}

// Exporter translates status snapshots into metrics.
type Exporter struct {
	mu       sync.Mutex
	fetcher  Fetcher
	dict     *meta.Dictionary
	sink     Sink
	gatherer prometheus.Gatherer
	latency  *timeseries.LatencyWindow
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an Exporter.
func New(cfg Config) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = rtmpstat.DefaultTimeout
	}

	return &Exporter{
		fetcher:  cfg.Fetcher,
		dict:     cfg.Dictionary,
		sink:     cfg.Sink,
		gatherer: cfg.Gatherer,
		latency:  cfg.Latency,
		timeout:  timeout,
		logger:   logger,
	}
}

// Translate runs one cycle. On fetch failure the sink is left reset and the
// error is returned.
func (e *Exporter) Translate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.translate(ctx)
	return err
}

// Gather implements prometheus.Gatherer. A failed fetch is logged and
// counted; the reset metric set is still served.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	start := time.Now()
	snap, err := e.translate(ctx)
	e.sink.ObserveScrape(time.Since(start), err)
	if err != nil {
		e.logger.Warn("scrape_failed", "error", err)
	} else {
		e.logger.Debug("scrape_completed",
			"applications", len(snap.Applications),
			"duration", time.Since(start),
		)
	}

	return e.gatherer.Gather()
}

// translate must be called with mu held.
func (e *Exporter) translate(ctx context.Context) (*rtmpstat.Snapshot, error) {
	e.sink.Reset()

	fetchStart := time.Now()
	snap, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rtmp stat: %w", err)
	}
	if e.latency != nil {
		e.latency.Add(time.Since(fetchStart))
		e.sink.SetFetchLatency(e.latency.Quantile(0.5), e.latency.Quantile(0.99))
	}

	e.sink.SetBuildInfo(snap.NginxVersion, snap.Compiler, snap.RTMPVersion)
	e.sink.SetApplicationCount(len(snap.Applications))
	e.sink.SetServerTraffic(snap.BytesIn, snap.BytesOut, snap.BandwidthIn, snap.BandwidthOut)

	for _, app := range snap.Applications {
		e.sink.SetActiveStreams(app.Name, app.ActiveStreams())

		for _, stream := range app.Streams {
			if err := e.populateStream(app.Name, stream); err != nil {
				return snap, err
			}
		}
	}

	return snap, nil
}

func (e *Exporter) populateStream(application string, stream rtmpstat.Stream) error {
	labels := e.dict.Labels(application, stream.Name)

	err := e.sink.SetStreamTraffic(labels, metrics.StreamTraffic{
		BytesIn:        stream.BytesIn,
		BytesOut:       stream.BytesOut,
		BandwidthIn:    stream.BandwidthIn,
		BandwidthOut:   stream.BandwidthOut,
		BandwidthVideo: stream.BandwidthVideo,
		BandwidthAudio: stream.BandwidthAudio,
	})
	if err != nil {
		return fmt.Errorf("stream %s/%s: %w", application, stream.Name, err)
	}

	if stream.BandwidthAudio != 0 {
		if pub, ok := stream.Publisher(); ok {
			if err := e.sink.SetPublisherAVSync(labels, pub.AVSync); err != nil {
				return fmt.Errorf("stream %s/%s: %w", application, stream.Name, err)
			}
		}
	}

	// The publisher is one of the clients; the rest are viewers.
	if len(stream.Clients) == 0 {
		e.logger.Debug("stream_without_clients",
			"application", application,
			"stream", stream.Name,
		)
		return nil
	}
	if err := e.sink.SetTotalClients(labels, len(stream.Clients)-1); err != nil {
		return fmt.Errorf("stream %s/%s: %w", application, stream.Name, err)
	}
	return nil
}
