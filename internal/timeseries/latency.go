// Package timeseries provides time-windowed metric tracking for the exporter.
//
// LatencyWindow keeps status page fetch latencies over a rolling window and
// answers percentile queries from a T-Digest. Samples older than the window
// are pruned on insert; the digest is rebuilt only when samples expire.
//
// Thread-safe: all methods acquire the window's mutex.
package timeseries

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

const (
	// DefaultWindow is the rolling window used when none is configured.
	DefaultWindow = 5 * time.Minute

	compression = 100
)

// Clock interface for testing with deterministic time.
type Clock interface {
	Now() time.Time
}

// realClock uses time.Now() for production.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sample is one observed latency.
type sample struct {
	timestamp time.Time
	seconds   float64
}

// LatencyWindow tracks latencies over a rolling window.
//
// Usage:
//
//	w := NewLatencyWindow(5 * time.Minute)
//	w.Add(120 * time.Millisecond) // once per fetch
//	p99 := w.Quantile(0.99)
type LatencyWindow struct {
	mu      sync.Mutex
	window  time.Duration
	samples []sample
	digest  *tdigest.TDigest
	clock   Clock
}

// NewLatencyWindow creates a window with the real clock. A non-positive
// window falls back to DefaultWindow.
func NewLatencyWindow(window time.Duration) *LatencyWindow {
	return NewLatencyWindowWithClock(window, realClock{})
}

// NewLatencyWindowWithClock creates a window with a custom clock for testing.
func NewLatencyWindowWithClock(window time.Duration, clock Clock) *LatencyWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	return &LatencyWindow{
		window: window,
		digest: tdigest.NewWithCompression(compression),
		clock:  clock,
	}
}

// Add records one latency observation.
func (w *LatencyWindow) Add(d time.Duration) {
	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.digest.Add(d.Seconds(), 1)
	w.samples = append(w.samples, sample{timestamp: now, seconds: d.Seconds()})
	w.prune(now)
}

// Quantile returns the q-th latency quantile over the window, or zero when
// the window holds no samples.
func (w *LatencyWindow) Quantile(q float64) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.clock.Now())
	if len(w.samples) == 0 {
		return 0
	}
	return time.Duration(w.digest.Quantile(q) * float64(time.Second))
}

// Len returns the number of samples inside the window.
func (w *LatencyWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.clock.Now())
	return len(w.samples)
}

// Window returns the configured window duration.
func (w *LatencyWindow) Window() time.Duration {
	return w.window
}

// prune removes samples older than the window and rebuilds the digest when
// any expired. Must be called with mu held.
func (w *LatencyWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)

	valid := w.samples[:0]
	expired := 0
	for _, s := range w.samples {
		if s.timestamp.After(cutoff) {
			valid = append(valid, s)
		} else {
			expired++
		}
	}
	w.samples = valid

	if expired > 0 {
		w.digest = tdigest.NewWithCompression(compression)
		for _, s := range w.samples {
			w.digest.Add(s.seconds, 1)
		}
	}
}
