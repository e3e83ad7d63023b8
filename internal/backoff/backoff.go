// Package backoff computes retry delays for pollers of the status page.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Config holds the configuration for exponential backoff.
type Config struct {
	Initial    time.Duration // Initial delay (default: 500ms)
	Max        time.Duration // Maximum delay (default: 30s)
	Multiplier float64       // Growth per attempt (default: 2.0)
	JitterPct  float64       // Jitter as a fraction of the delay (default: 0.4 = ±20%)
}

// DefaultConfig returns the dashboard retry defaults.
func DefaultConfig() Config {
	return Config{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2.0,
		JitterPct:  0.4,
	}
}

// Backoff calculates exponential delays with jitter. It is not safe for
// concurrent use.
type Backoff struct {
	config   Config
	attempts int
	rng      *rand.Rand
}

// New creates a Backoff. The same seed always yields the same jitter
// sequence; pass time.Now().UnixNano() outside of tests.
func New(seed int64, cfg Config) *Backoff {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	return &Backoff{
		config: cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next delay and increments the attempt counter.
func (b *Backoff) Next() time.Duration {
	delay := b.Calculate()
	b.attempts++
	return delay
}

// Calculate returns the current delay without incrementing attempts.
func (b *Backoff) Calculate() time.Duration {
	// initial * multiplier^attempts, capped at Max
	delay := float64(b.config.Initial) * math.Pow(b.config.Multiplier, float64(b.attempts))
	if delay > float64(b.config.Max) {
		delay = float64(b.config.Max)
	}

	// ±(JitterPct/2) of the delay
	if b.config.JitterPct > 0 {
		jitterRange := delay * b.config.JitterPct
		delay += jitterRange*b.rng.Float64() - jitterRange/2
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Reset resets the attempt counter after a successful poll.
func (b *Backoff) Reset() {
	b.attempts = 0
}

// Attempts returns the number of consecutive failures seen.
func (b *Backoff) Attempts() int {
	return b.attempts
}
