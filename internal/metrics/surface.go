// Package metrics provides the Prometheus metric surface of the exporter and
// the HTTP server that exposes it.
//
// Metrics are organized into three groups:
//   - Server metrics: build info, application count, root traffic totals
//   - Stream metrics: one series per live stream, labelled by application,
//     stream and every metadata field
//   - Exporter metrics: static metadata diagnostics, build info, scrape health
//
// Every instrument is registered on an explicit registry, never the global one.
package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/meta"
)

// StreamTraffic carries the per-stream traffic counters of one snapshot.
type StreamTraffic struct {
	BytesIn        uint64
	BytesOut       uint64
	BandwidthIn    uint64
	BandwidthOut   uint64
	BandwidthVideo uint64
	BandwidthAudio uint64
}

// Surface owns every instrument the exporter writes.
type Surface struct {
	arity int

	// --- Server ---
	nginxBuildInfo   *prometheus.GaugeVec
	applicationCount prometheus.Gauge
	activeStreams    *prometheus.GaugeVec
	bytesIn          prometheus.Gauge
	bytesOut         prometheus.Gauge
	bandwidthIn      prometheus.Gauge
	bandwidthOut     prometheus.Gauge

	// --- Streams ---
	streamBytesIn        *prometheus.GaugeVec
	streamBytesOut       *prometheus.GaugeVec
	streamBandwidthIn    *prometheus.GaugeVec
	streamBandwidthOut   *prometheus.GaugeVec
	streamBandwidthVideo *prometheus.GaugeVec
	streamBandwidthAudio *prometheus.GaugeVec
	streamAVSync         *prometheus.GaugeVec
	streamTotalClients   *prometheus.GaugeVec

	// --- Exporter ---
	metadataFields *prometheus.GaugeVec
	metadataValues *prometheus.GaugeVec
	exporterInfo   *prometheus.GaugeVec
	scrapeFailures prometheus.Counter
	scrapeDuration prometheus.Histogram
	fetchLatency   *prometheus.GaugeVec

	resettable []*prometheus.GaugeVec
}

// NewSurface creates every instrument from the dictionary's schema and
// registers it on reg. The metadata diagnostics and exporter build info are
// populated once here and never reset.
func NewSurface(reg prometheus.Registerer, dict *meta.Dictionary, version string) (*Surface, error) {
	global := prometheus.Labels(dict.Global())
	streamLabels := dict.LabelNames()

	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: global,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: global,
		})
	}

	s := &Surface{
		arity: dict.Arity(),

		nginxBuildInfo: gaugeVec("nginx_build_info",
			"A metric with either '0' or '1', labelled with NGINX's build info when available.",
			"version", "compiler", "rtmp_version"),
		applicationCount: gauge("nginx_rtmp_application_count",
			"A metric tracking the number of NGINX RTMP applications."),
		activeStreams: gaugeVec("nginx_rtmp_active_streams",
			"A metric tracking the number of active RTMP streams, labelled by application.",
			meta.LabelApplication),
		bytesIn: gauge("nginx_rtmp_incoming_bytes_total",
			"A metric tracking the total number of incoming bytes processed."),
		bytesOut: gauge("nginx_rtmp_outgoing_bytes_total",
			"A metric tracking the total number of outgoing bytes processed."),
		bandwidthIn: gauge("nginx_rtmp_incoming_bandwidth",
			"A metric tracking the incoming bandwidth to the server."),
		bandwidthOut: gauge("nginx_rtmp_outgoing_bandwidth",
			"A metric tracking the outgoing bandwidth from the server."),

		streamBytesIn: gaugeVec("nginx_rtmp_stream_incoming_bytes_total",
			"A metric tracking the total received bytes from a stream, labelled by stream and application.",
			streamLabels...),
		streamBytesOut: gaugeVec("nginx_rtmp_stream_outgoing_bytes_total",
			"A metric tracking the total sent bytes by a given stream, labelled by stream and application.",
			streamLabels...),
		streamBandwidthIn: gaugeVec("nginx_rtmp_stream_incoming_bandwidth",
			"A metric tracking the incoming bandwidth of a given stream, labelled by stream and application.",
			streamLabels...),
		streamBandwidthOut: gaugeVec("nginx_rtmp_stream_outgoing_bandwidth",
			"A metric tracking the outgoing bandwidth of a given stream, labelled by stream and application.",
			streamLabels...),
		streamBandwidthVideo: gaugeVec("nginx_rtmp_stream_bandwidth_video",
			"A metric tracking the video bandwidth of a given stream, labelled by stream and application.",
			streamLabels...),
		streamBandwidthAudio: gaugeVec("nginx_rtmp_stream_bandwidth_audio",
			"A metric tracking the audio bandwidth of a given stream, labelled by stream and application.",
			streamLabels...),
		streamAVSync: gaugeVec("nginx_rtmp_stream_publisher_avsync",
			"A metric tracking the A-V sync value of a given stream, labelled by stream and application.",
			streamLabels...),
		streamTotalClients: gaugeVec("nginx_rtmp_stream_total_clients",
			"A metric tracking the number of clients connected to a given stream, labelled by stream and application.",
			streamLabels...),

		metadataFields: gaugeVec("nginx_rtmp_exporter_metadata_fields",
			"A metric with constant value '1', labelled with available metadata fields.",
			"field"),
		metadataValues: gaugeVec("nginx_rtmp_exporter_metadata_values",
			"A metric with constant value '1', labelled with available metadata values.",
			"stream", "field", "value"),
		exporterInfo: gaugeVec("nginx_rtmp_exporter_build_info",
			"A metric with constant value '1', labelled with nginx-rtmp-exporter's build information.",
			"version", "go_version"),
		scrapeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "nginx_rtmp_exporter_scrape_failures_total",
			Help:        "Total number of failed fetches of the nginx-rtmp status page.",
			ConstLabels: global,
		}),
		scrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "nginx_rtmp_exporter_scrape_duration_seconds",
			Help:        "Duration of a full translation cycle, including the status page fetch.",
			ConstLabels: global,
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1,
				0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
			},
		}),
		fetchLatency: gaugeVec("nginx_rtmp_exporter_fetch_latency_seconds",
			"Status page fetch latency percentiles over the rolling window.",
			"quantile"),
	}

	streamVecs := []*prometheus.GaugeVec{
		s.streamBytesIn,
		s.streamBytesOut,
		s.streamBandwidthIn,
		s.streamBandwidthOut,
		s.streamBandwidthVideo,
		s.streamBandwidthAudio,
		s.streamAVSync,
		s.streamTotalClients,
	}
	s.resettable = append([]*prometheus.GaugeVec{s.nginxBuildInfo, s.activeStreams}, streamVecs...)

	collectors := []prometheus.Collector{
		s.nginxBuildInfo,
		s.applicationCount,
		s.activeStreams,
		s.bytesIn,
		s.bytesOut,
		s.bandwidthIn,
		s.bandwidthOut,
		s.metadataFields,
		s.metadataValues,
		s.exporterInfo,
		s.scrapeFailures,
		s.scrapeDuration,
		s.fetchLatency,
	}
	for _, v := range streamVecs {
		collectors = append(collectors, v)
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	for _, f := range dict.Fields() {
		s.metadataFields.WithLabelValues(f).Set(1)
	}
	for _, e := range dict.Entries() {
		s.metadataValues.WithLabelValues(e.Stream, e.Field, e.Value).Set(1)
	}
	s.exporterInfo.WithLabelValues(version, runtime.Version()).Set(1)

	return s, nil
}

// Reset clears every label-vectored series that is rebuilt each cycle.
// Unlabelled server gauges keep their last value.
func (s *Surface) Reset() {
	for _, v := range s.resettable {
		v.Reset()
	}
}

// SetBuildInfo marks the current nginx version combination.
func (s *Surface) SetBuildInfo(version, compiler, rtmpVersion string) {
	s.nginxBuildInfo.WithLabelValues(version, compiler, rtmpVersion).Set(1)
}

// SetApplicationCount sets the number of RTMP applications.
func (s *Surface) SetApplicationCount(n int) {
	s.applicationCount.Set(float64(n))
}

// SetServerTraffic sets the root traffic totals and bandwidth.
func (s *Surface) SetServerTraffic(bytesIn, bytesOut, bandwidthIn, bandwidthOut uint64) {
	s.bytesIn.Set(float64(bytesIn))
	s.bytesOut.Set(float64(bytesOut))
	s.bandwidthIn.Set(float64(bandwidthIn))
	s.bandwidthOut.Set(float64(bandwidthOut))
}

// SetActiveStreams sets the active stream count of an application.
func (s *Surface) SetActiveStreams(application string, n int) {
	s.activeStreams.WithLabelValues(application).Set(float64(n))
}

// SetStreamTraffic sets the six traffic series of one stream.
func (s *Surface) SetStreamTraffic(labels []string, t StreamTraffic) error {
	if err := s.checkArity(labels); err != nil {
		return err
	}

	values := []struct {
		vec *prometheus.GaugeVec
		v   uint64
	}{
		{s.streamBytesIn, t.BytesIn},
		{s.streamBytesOut, t.BytesOut},
		{s.streamBandwidthIn, t.BandwidthIn},
		{s.streamBandwidthOut, t.BandwidthOut},
		{s.streamBandwidthVideo, t.BandwidthVideo},
		{s.streamBandwidthAudio, t.BandwidthAudio},
	}
	for _, x := range values {
		g, err := x.vec.GetMetricWithLabelValues(labels...)
		if err != nil {
			return err
		}
		g.Set(float64(x.v))
	}
	return nil
}

// SetPublisherAVSync sets the publisher's A-V sync value of one stream.
func (s *Surface) SetPublisherAVSync(labels []string, v int64) error {
	return s.setStream(s.streamAVSync, labels, float64(v))
}

// SetTotalClients sets the viewer count of one stream.
func (s *Surface) SetTotalClients(labels []string, n int) error {
	return s.setStream(s.streamTotalClients, labels, float64(n))
}

// ObserveScrape records one translation cycle.
func (s *Surface) ObserveScrape(d time.Duration, err error) {
	s.scrapeDuration.Observe(d.Seconds())
	if err != nil {
		s.scrapeFailures.Inc()
	}
}

// SetFetchLatency publishes the rolling fetch latency percentiles.
func (s *Surface) SetFetchLatency(p50, p99 time.Duration) {
	s.fetchLatency.WithLabelValues("0.5").Set(p50.Seconds())
	s.fetchLatency.WithLabelValues("0.99").Set(p99.Seconds())
}

func (s *Surface) setStream(vec *prometheus.GaugeVec, labels []string, v float64) error {
	if err := s.checkArity(labels); err != nil {
		return err
	}
	g, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return err
	}
	g.Set(v)
	return nil
}

func (s *Surface) checkArity(labels []string) error {
	if len(labels) != s.arity {
		return fmt.Errorf("label vector has %d values, want %d", len(labels), s.arity)
	}
	return nil
}
