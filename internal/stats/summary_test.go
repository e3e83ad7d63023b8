package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
)

// =============================================================================
// Table-Driven Tests: Formatting Functions
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "00:00:00"},
		{"one second", time.Second, "00:00:01"},
		{"one minute", time.Minute, "00:01:00"},
		{"one hour", time.Hour, "01:00:00"},
		{"mixed", 2*time.Hour + 30*time.Minute + 45*time.Second, "02:30:45"},
		{"24 hours", 24 * time.Hour, "24:00:00"},
		{"sub-second", 500 * time.Millisecond, "00:00:00"},
		{"59 seconds", 59 * time.Second, "00:00:59"},
		{"59 minutes", 59 * time.Minute, "00:59:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.duration); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0"},
		{"small", 123, "123"},
		{"999", 999, "999"},
		{"1K", 1000, "1.0K"},
		{"1.5K", 1500, "1.5K"},
		{"10K", 10000, "10.0K"},
		{"999K", 999000, "999.0K"},
		{"1M", 1000000, "1.0M"},
		{"1.5M", 1500000, "1.5M"},
		{"10M", 10000000, "10.0M"},
		{"negative", -100, "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.n); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"small", 123, "123 B"},
		{"999 bytes", 999, "999 B"},
		{"1 KB", 1000, "1.00 KB"},
		{"1.5 KB", 1500, "1.50 KB"},
		{"10 KB", 10000, "10.00 KB"},
		{"1 MB", 1000000, "1.00 MB"},
		{"1.5 MB", 1500000, "1.50 MB"},
		{"1 GB", 1000000000, "1.00 GB"},
		{"1.5 GB", 1500000000, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.n); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "0 ms"},
		{"1 ms", time.Millisecond, "1 ms"},
		{"100 ms", 100 * time.Millisecond, "100 ms"},
		{"1 second", time.Second, "1000 ms"},
		{"sub-ms", 500 * time.Microsecond, "500 µs"},
		{"1 us", time.Microsecond, "1 µs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMs(tt.duration); got != tt.want {
				t.Errorf("FormatMs(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatBitrate(t *testing.T) {
	tests := []struct {
		name string
		bps  uint64
		want string
	}{
		{"zero", 0, "0 b/s"},
		{"small", 999, "999 b/s"},
		{"kilobit", 128000, "128.0 kb/s"},
		{"megabit", 1979680, "1.98 Mb/s"},
		{"gigabit", 2500000000, "2.50 Gb/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBitrate(tt.bps); got != tt.want {
				t.Errorf("FormatBitrate(%d) = %q, want %q", tt.bps, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Tests: Summarize
// =============================================================================

func strPtr(s string) *string { return &s }

func viewer(addr string) rtmpstat.Client {
	return rtmpstat.Client{Address: strPtr(addr), FlashVersion: strPtr("LNX 9,0,124,2")}
}

func relay(addr string) rtmpstat.Client {
	return rtmpstat.Client{Address: strPtr(addr), FlashVersion: strPtr(rtmpstat.RelayFlashVersion)}
}

func publisher(addr string, avsync int64) rtmpstat.Client {
	c := viewer(addr)
	c.Publishing = &struct{}{}
	c.Active = &struct{}{}
	c.AVSync = avsync
	return c
}

func testSnapshot() *rtmpstat.Snapshot {
	return &rtmpstat.Snapshot{
		NginxVersion: "1.25.3",
		RTMPVersion:  "1.1.4",
		Uptime:       3725,
		Accepted:     1500,
		BytesIn:      3_000_000,
		BytesOut:     9_000_000,
		BandwidthIn:  2_000_000,
		BandwidthOut: 6_000_000,
		Applications: []rtmpstat.Application{
			{
				Name: "live",
				Streams: []rtmpstat.Stream{
					{
						Name:           "quiet",
						BandwidthIn:    500_000,
						BandwidthOut:   100_000,
						BandwidthVideo: 500_000,
						Clients:        []rtmpstat.Client{publisher("203.0.113.9", 0)},
						Meta:           &rtmpstat.StreamMeta{Video: rtmpstat.VideoMeta{Codec: "H264"}},
					},
					{
						Name:           "main",
						Time:           90_000,
						BandwidthIn:    1_500_000,
						BandwidthOut:   5_000_000,
						BandwidthVideo: 1_372_000,
						BandwidthAudio: 128_000,
						Clients: []rtmpstat.Client{
							publisher("203.0.113.7", -12),
							viewer("198.51.100.23"),
							viewer("198.51.100.24"),
							relay("127.0.0.1"),
						},
						Meta: &rtmpstat.StreamMeta{
							Video: rtmpstat.VideoMeta{Width: 1920, Height: 1080, FrameRate: 30, Codec: "H264"},
							Audio: &rtmpstat.AudioMeta{Codec: "AAC"},
						},
					},
				},
			},
			{
				Name: "archive",
				Streams: []rtmpstat.Stream{
					{Name: "pending"},
				},
			},
		},
	}
}

func TestSummarize_Nil(t *testing.T) {
	sum := Summarize(nil)
	if sum == nil {
		t.Fatal("Summarize(nil) returned nil")
	}
	if len(sum.Applications) != 0 || sum.TotalStreams != 0 {
		t.Errorf("Summarize(nil) = %+v, want empty", sum)
	}
}

func TestSummarize_Totals(t *testing.T) {
	sum := Summarize(testSnapshot())

	if sum.Uptime != 3725*time.Second {
		t.Errorf("Uptime = %v, want %v", sum.Uptime, 3725*time.Second)
	}
	if sum.TotalStreams != 3 {
		t.Errorf("TotalStreams = %d, want 3", sum.TotalStreams)
	}
	if sum.ActiveStreams != 2 {
		t.Errorf("ActiveStreams = %d, want 2", sum.ActiveStreams)
	}
	if sum.Viewers != 2 {
		t.Errorf("Viewers = %d, want 2", sum.Viewers)
	}
	if sum.Relays != 1 {
		t.Errorf("Relays = %d, want 1", sum.Relays)
	}

	if len(sum.Applications) != 2 {
		t.Fatalf("len(Applications) = %d, want 2", len(sum.Applications))
	}
	if sum.Applications[0].Name != "live" || sum.Applications[1].Name != "archive" {
		t.Errorf("application order = %q, %q; want live, archive",
			sum.Applications[0].Name, sum.Applications[1].Name)
	}

	live := sum.Applications[0]
	if live.BandwidthIn != 2_000_000 {
		t.Errorf("live BandwidthIn = %d, want 2000000", live.BandwidthIn)
	}
	if live.BandwidthOut != 5_100_000 {
		t.Errorf("live BandwidthOut = %d, want 5100000", live.BandwidthOut)
	}
	if live.ActiveStreams != 2 {
		t.Errorf("live ActiveStreams = %d, want 2", live.ActiveStreams)
	}
	if sum.Applications[1].ActiveStreams != 0 {
		t.Errorf("archive ActiveStreams = %d, want 0", sum.Applications[1].ActiveStreams)
	}
}

func TestSummarize_StreamOrder(t *testing.T) {
	live := Summarize(testSnapshot()).Applications[0]

	if live.Streams[0].Name != "main" {
		t.Errorf("first stream = %q, want the busiest stream %q", live.Streams[0].Name, "main")
	}
}

func TestSummarize_StreamDetail(t *testing.T) {
	top := Summarize(testSnapshot()).Applications[0].Streams[0]

	if !top.Publishing {
		t.Error("Publishing = false, want true")
	}
	if top.Viewers != 2 {
		t.Errorf("Viewers = %d, want 2", top.Viewers)
	}
	if top.Relays != 1 {
		t.Errorf("Relays = %d, want 1", top.Relays)
	}
	if top.Uptime != 90*time.Second {
		t.Errorf("Uptime = %v, want 1m30s", top.Uptime)
	}
	if top.Resolution != "1920x1080" {
		t.Errorf("Resolution = %q, want 1920x1080", top.Resolution)
	}
	if top.AudioCodec != "AAC" {
		t.Errorf("AudioCodec = %q, want AAC", top.AudioCodec)
	}
	if top.AVSync == nil || *top.AVSync != -12 {
		t.Errorf("AVSync = %v, want -12", top.AVSync)
	}
}

func TestSummarize_AVSyncRequiresAudio(t *testing.T) {
	quiet := Summarize(testSnapshot()).Applications[0].Streams[1]

	if quiet.Name != "quiet" {
		t.Fatalf("stream = %q, want quiet", quiet.Name)
	}
	if quiet.AVSync != nil {
		t.Errorf("AVSync = %d, want nil for a stream without audio", *quiet.AVSync)
	}
	if quiet.Resolution != "" {
		t.Errorf("Resolution = %q, want empty without dimensions", quiet.Resolution)
	}
}

// =============================================================================
// Tests: FormatSummary
// =============================================================================

func TestFormatSummary(t *testing.T) {
	cfg := SummaryConfig{
		ScrapeURL:     "http://127.0.0.1:8080/stat",
		FetchDuration: 12 * time.Millisecond,
	}

	result := FormatSummary(Summarize(testSnapshot()), cfg)

	wants := []string{
		"nginx-rtmp Status Summary",
		"http://127.0.0.1:8080/stat",
		"12 ms",
		"1.25.3 / 1.1.4",
		"01:02:05",
		"1.5K",
		"Applications",
		"live",
		"archive",
		"Total: 3 streams, 2 active, 2 viewers, 1 relays",
	}
	for _, want := range wants {
		if !strings.Contains(result, want) {
			t.Errorf("summary missing %q", want)
		}
	}

	if strings.Contains(result, "live/main") {
		t.Error("stream table rendered without ShowStreams")
	}
}

func TestFormatSummary_Streams(t *testing.T) {
	result := FormatSummary(Summarize(testSnapshot()), SummaryConfig{ShowStreams: true})

	wants := []string{
		"live/main",
		"1920x1080",
		"-12 ms",
		"archive/pending",
		"5.00 Mb/s",
	}
	for _, want := range wants {
		if !strings.Contains(result, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestFormatSummary_NoApplications(t *testing.T) {
	result := FormatSummary(Summarize(&rtmpstat.Snapshot{}), SummaryConfig{ShowStreams: true})

	if !strings.Contains(result, "(no applications reported)") {
		t.Error("missing empty applications message")
	}
	if !strings.Contains(result, "nginx / nginx-rtmp:     - / -") {
		t.Error("missing placeholder versions")
	}
}
