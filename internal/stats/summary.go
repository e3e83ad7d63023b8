package stats

import (
	"fmt"
	"strings"
	"time"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// ScrapeURL is the status page the snapshot came from
	ScrapeURL string

	// FetchDuration is how long the fetch took
	FetchDuration time.Duration

	// ShowStreams enables the per-stream table
	ShowStreams bool
}

// FormatSummary formats a snapshot summary for display.
func FormatSummary(sum *Summary, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                         nginx-rtmp Status Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	// Server info
	fmt.Fprintf(&b, "Source:                 %s\n", cfg.ScrapeURL)
	fmt.Fprintf(&b, "Fetch Time:             %s\n", FormatMs(cfg.FetchDuration))
	fmt.Fprintf(&b, "nginx / nginx-rtmp:     %s / %s\n", orDash(sum.NginxVersion), orDash(sum.RTMPVersion))
	fmt.Fprintf(&b, "Uptime:                 %s\n", FormatDuration(sum.Uptime))
	fmt.Fprintf(&b, "Accepted Connections:   %s\n\n", FormatNumber(int64(sum.Accepted)))

	fmt.Fprintf(&b, "  Incoming:             %s  (%s)\n", FormatBytes(int64(sum.BytesIn)), FormatBitrate(sum.BandwidthIn))
	fmt.Fprintf(&b, "  Outgoing:             %s  (%s)\n\n", FormatBytes(int64(sum.BytesOut)), FormatBitrate(sum.BandwidthOut))

	// Applications
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
	b.WriteString("                                 Applications\n")
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

	if len(sum.Applications) == 0 {
		b.WriteString("  (no applications reported)\n\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %-20s %8s %8s %8s %14s %14s\n", "Application", "Streams", "Active", "Viewers", "In", "Out")
	b.WriteString("  " + strings.Repeat("─", 77) + "\n")
	for _, app := range sum.Applications {
		fmt.Fprintf(&b, "  %-20s %8d %8d %8d %14s %14s\n",
			truncate(app.Name, 20),
			len(app.Streams),
			app.ActiveStreams,
			app.Viewers,
			FormatBitrate(app.BandwidthIn),
			FormatBitrate(app.BandwidthOut),
		)
	}
	fmt.Fprintf(&b, "\n  Total: %d streams, %d active, %d viewers, %d relays\n\n",
		sum.TotalStreams, sum.ActiveStreams, sum.Viewers, sum.Relays)

	if !cfg.ShowStreams || sum.TotalStreams == 0 {
		return b.String()
	}

	// Streams
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
	b.WriteString("                                   Streams\n")
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

	fmt.Fprintf(&b, "  %-28s %-6s %7s %11s %10s %12s %8s\n", "Stream", "Active", "Viewers", "Video", "Codec", "Out", "A-V")
	b.WriteString("  " + strings.Repeat("─", 77) + "\n")
	for _, app := range sum.Applications {
		for _, s := range app.Streams {
			fmt.Fprintf(&b, "  %-28s %-6s %7d %11s %10s %12s %8s\n",
				truncate(app.Name+"/"+s.Name, 28),
				yesNo(s.Active),
				s.Viewers,
				orDash(s.Resolution),
				orDash(s.VideoCodec),
				FormatBitrate(s.BandwidthOut),
				formatAVSync(s.AVSync),
			)
		}
	}
	b.WriteString("\n")

	return b.String()
}

func formatAVSync(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d ms", *v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatBytes formats bytes with KB/MB/GB suffixes.
func FormatBytes(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	}
	return fmt.Sprintf("%d B", n)
}

// FormatBitrate formats an nginx-rtmp bandwidth value (bits per second).
func FormatBitrate(bps uint64) string {
	if bps >= 1_000_000_000 {
		return fmt.Sprintf("%.2f Gb/s", float64(bps)/1_000_000_000)
	}
	if bps >= 1_000_000 {
		return fmt.Sprintf("%.2f Mb/s", float64(bps)/1_000_000)
	}
	if bps >= 1_000 {
		return fmt.Sprintf("%.1f kb/s", float64(bps)/1_000)
	}
	return fmt.Sprintf("%d b/s", bps)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
