package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/stats"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the server and application dashboard.
func (m Model) renderSummaryView() string {
	var sections []string

	sections = append(sections, m.renderHeader())

	if m.lastErr != nil {
		sections = append(sections, m.renderError())
	}

	if m.summary != nil {
		sections = append(sections, m.renderServer())
		sections = append(sections, m.renderApplications())
	} else if m.lastErr == nil {
		sections = append(sections, boxStyle.Width(m.width-2).Render(
			statusInfo.Render("Waiting for the first status page...")))
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetailedView renders the per-stream table.
func (m Model) renderDetailedView() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	if m.lastErr != nil {
		sections = append(sections, m.renderError())
	}
	sections = append(sections, m.renderStreamTable())
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	status := GetUpstreamLabel(GetUpstreamStatus(m.Failures(), m.summary != nil))

	active, total, viewers := 0, 0, 0
	if m.summary != nil {
		active = m.summary.ActiveStreams
		total = m.summary.TotalStreams
		viewers = m.summary.Viewers
	}

	header := fmt.Sprintf(
		" nginx-rtmp-exporter │ %s │ Streams: %d/%d │ Viewers: %d │ Watching: %s ",
		status,
		active,
		total,
		viewers,
		stats.FormatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Error Section
// =============================================================================

func (m Model) renderError() string {
	msg := m.lastErr.Error()
	if limit := m.width - 8; limit > 10 && len(msg) > limit {
		msg = msg[:limit-3] + "..."
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Upstream Error"),
		statusError.Render(msg),
		mutedStyle.Render(fmt.Sprintf("Failures: %d │ Retrying in %s",
			m.Failures(), m.nextDelay.Round(100*time.Millisecond))),
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Server Section
// =============================================================================

func (m Model) renderServer() string {
	s := m.summary

	var ratio float64
	if s.TotalStreams > 0 {
		ratio = float64(s.ActiveStreams) / float64(s.TotalStreams)
	}
	barWidth := m.width - 40
	if barWidth < 20 {
		barWidth = 20
	}

	rows := []string{
		RenderKeyValue("nginx / nginx-rtmp", orDash(s.NginxVersion)+" / "+orDash(s.RTMPVersion)),
		RenderKeyValue("Uptime", stats.FormatDuration(s.Uptime)),
		RenderKeyValue("Accepted", stats.FormatNumber(int64(s.Accepted))),
		RenderKeyValue("Incoming", stats.FormatBytes(int64(s.BytesIn))+"  "+stats.FormatBitrate(s.BandwidthIn)),
		RenderKeyValue("Outgoing", stats.FormatBytes(int64(s.BytesOut))+"  "+stats.FormatBitrate(s.BandwidthOut)),
		RenderKeyValue("Fetch Time", stats.FormatMs(m.lastFetch)),
		"",
		mutedStyle.Render("Active streams"),
		RenderProgressBar(ratio, barWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Server")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Applications Section
// =============================================================================

func (m Model) renderApplications() string {
	s := m.summary

	lines := []string{
		sectionHeaderStyle.Render("Applications"),
		tableHeaderStyle.Render(fmt.Sprintf("%-20s %8s %8s %8s %8s %12s %12s",
			"Application", "Streams", "Active", "Viewers", "Relays", "In", "Out")),
	}

	if len(s.Applications) == 0 {
		lines = append(lines, dimStyle.Render("(no applications reported)"))
	}

	for i, app := range s.Applications {
		row := fmt.Sprintf("%-20s %8d %8d %8d %8d %12s %12s",
			truncate(app.Name, 20),
			len(app.Streams),
			app.ActiveStreams,
			app.Viewers,
			app.Relays,
			stats.FormatBitrate(app.BandwidthIn),
			stats.FormatBitrate(app.BandwidthOut),
		)
		lines = append(lines, rowStyle(i).Render(row))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// =============================================================================
// Stream Table
// =============================================================================

func (m Model) renderStreamTable() string {
	lines := []string{
		sectionHeaderStyle.Render("Streams"),
		tableHeaderStyle.Render(fmt.Sprintf("%-28s %-6s %7s %10s %6s %-8s %12s %10s",
			"Stream", "Active", "Viewers", "Video", "FPS", "Codec", "Out", "A-V")),
	}

	// Leave room for header, footer and box borders
	maxRows := m.height - 10
	if maxRows < 5 {
		maxRows = 5
	}

	rows := 0
	for _, app := range m.summary.Applications {
		for _, st := range app.Streams {
			if rows >= maxRows {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("... and %d more", m.summary.TotalStreams-rows)))
				return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
			}

			fps := "-"
			if st.FrameRate > 0 {
				fps = fmt.Sprintf("%.0f", st.FrameRate)
			}
			row := fmt.Sprintf("%-28s %-6s %7d %10s %6s %-8s %12s ",
				truncate(app.Name+"/"+st.Name, 28),
				activeMark(st.Active),
				st.Viewers,
				orDash(st.Resolution),
				fps,
				orDash(st.VideoCodec),
				stats.FormatBitrate(st.BandwidthOut),
			)
			lines = append(lines, rowStyle(rows).Render(row)+GetAVSyncLabel(st.AVSync))
			rows++
		}
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	shortcuts := []string{
		"q: quit",
		"d: toggle streams",
		"r: refresh",
	}

	source := m.scrapeURL
	if maxLen := m.width - 50; len(source) > maxLen && maxLen > 10 {
		source = source[:maxLen-3] + "..."
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))
	right := dimStyle.Render(source)

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}

// =============================================================================
// Helpers
// =============================================================================

func rowStyle(i int) lipgloss.Style {
	if i%2 == 0 {
		return tableRowEvenStyle
	}
	return tableRowOddStyle
}

func activeMark(active bool) string {
	if active {
		return "●"
	}
	return "○"
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
	return s[:n-3] + "..."
}
