package timeseries

import (
	"sync"
	"testing"
	"time"
)

// mockClock provides deterministic time for testing.
type mockClock struct {
	mu   sync.Mutex
	time time.Time
}

func newMockClock(t time.Time) *mockClock {
	return &mockClock{time: t}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = c.time.Add(d)
}

func TestLatencyWindow_Empty(t *testing.T) {
	w := NewLatencyWindow(time.Minute)

	if got := w.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if got := w.Quantile(0.5); got != 0 {
		t.Errorf("Quantile(0.5) = %v, want 0", got)
	}
}

func TestLatencyWindow_DefaultWindow(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
		want   time.Duration
	}{
		{"zero", 0, DefaultWindow},
		{"negative", -time.Second, DefaultWindow},
		{"explicit", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewLatencyWindow(tt.window).Window(); got != tt.want {
				t.Errorf("Window() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatencyWindow_Percentiles(t *testing.T) {
	clock := newMockClock(time.Unix(1700000000, 0))
	w := NewLatencyWindowWithClock(time.Minute, clock)

	// 1ms .. 100ms
	for i := 1; i <= 100; i++ {
		w.Add(time.Duration(i) * time.Millisecond)
		clock.Advance(100 * time.Millisecond)
	}

	if got := w.Len(); got != 100 {
		t.Fatalf("Len() = %d, want 100", got)
	}

	tests := []struct {
		q        float64
		min, max time.Duration
	}{
		{0.5, 45 * time.Millisecond, 56 * time.Millisecond},
		{0.99, 95 * time.Millisecond, 101 * time.Millisecond},
	}
	for _, tt := range tests {
		got := w.Quantile(tt.q)
		if got < tt.min || got > tt.max {
			t.Errorf("Quantile(%v) = %v, want within [%v, %v]", tt.q, got, tt.min, tt.max)
		}
	}
}

func TestLatencyWindow_Expiration(t *testing.T) {
	clock := newMockClock(time.Unix(1700000000, 0))
	w := NewLatencyWindowWithClock(10*time.Second, clock)

	for range 10 {
		w.Add(time.Second)
	}
	clock.Advance(11 * time.Second)
	for range 5 {
		w.Add(10 * time.Millisecond)
	}

	if got := w.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5 after expiry", got)
	}
	if got := w.Quantile(0.99); got > 20*time.Millisecond {
		t.Errorf("Quantile(0.99) = %v, expired samples still counted", got)
	}

	clock.Advance(11 * time.Second)
	if got := w.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 once window passes", got)
	}
	if got := w.Quantile(0.5); got != 0 {
		t.Errorf("Quantile(0.5) = %v, want 0 on empty window", got)
	}
}

func TestLatencyWindow_ConcurrentAccess(t *testing.T) {
	w := NewLatencyWindow(time.Minute)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 100 {
				w.Add(time.Duration(i*100+j) * time.Microsecond)
				_ = w.Quantile(0.5)
			}
		}(i)
	}
	wg.Wait()

	if got := w.Len(); got != 800 {
		t.Errorf("Len() = %d, want 800", got)
	}
}
