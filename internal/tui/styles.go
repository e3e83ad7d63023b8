// Package tui provides a live terminal dashboard for an nginx-rtmp server.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// It polls the status page and displays:
// - Server versions, uptime and traffic
// - Per-application stream and viewer counts
// - Per-stream bandwidth, codecs and publisher A-V sync
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	// Status colors
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// =============================================================================
// Status Indicator Styles
// =============================================================================

var (
	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusInfo = lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true)
)

// =============================================================================
// Layout Styles
// =============================================================================

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorBorder).
				MarginTop(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			MarginTop(1)
)

// =============================================================================
// Value Styles
// =============================================================================

var (
	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	valueGoodStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	valueBadStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	valueWarnStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(22)
)

// =============================================================================
// Progress Bar Styles
// =============================================================================

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(colorBorder)

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Bold(true)
)

// =============================================================================
// Table Styles
// =============================================================================

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	tableRowEvenStyle = lipgloss.NewStyle().
				Foreground(colorText)

	tableRowOddStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)
)

// =============================================================================
// Upstream Status Indicator
// =============================================================================

// UpstreamStatus represents the health of the status page poller.
type UpstreamStatus int

const (
	UpstreamConnecting UpstreamStatus = iota
	UpstreamOK
	UpstreamRetrying
	UpstreamDown
)

// DownAfter is the number of consecutive failures after which the upstream
// is shown as down.
const DownAfter = 3

// GetUpstreamStatus returns the status from the consecutive failure count
// and whether any snapshot was received yet.
func GetUpstreamStatus(failures int, hasData bool) UpstreamStatus {
	switch {
	case failures >= DownAfter:
		return UpstreamDown
	case failures > 0:
		return UpstreamRetrying
	case hasData:
		return UpstreamOK
	default:
		return UpstreamConnecting
	}
}

// GetUpstreamLabel returns a styled label for the upstream status.
func GetUpstreamLabel(status UpstreamStatus) string {
	switch status {
	case UpstreamDown:
		return statusError.Render("● Upstream (down)")
	case UpstreamRetrying:
		return statusWarning.Render("● Upstream (retrying)")
	case UpstreamOK:
		return statusOK.Render("● Upstream")
	default:
		return statusInfo.Render("● Connecting")
	}
}

// =============================================================================
// A-V Sync Indicator
// =============================================================================

// GetAVSyncStyle returns a style based on the publisher's A-V drift in
// milliseconds.
func GetAVSyncStyle(ms int64) lipgloss.Style {
	if ms < 0 {
		ms = -ms
	}
	switch {
	case ms <= 100:
		return valueGoodStyle
	case ms <= 500:
		return valueWarnStyle
	default:
		return valueBadStyle
	}
}

// GetAVSyncLabel returns a styled A-V sync value, or a dash when unknown.
func GetAVSyncLabel(v *int64) string {
	if v == nil {
		return dimStyle.Render("-")
	}
	return GetAVSyncStyle(*v).Render(fmt.Sprintf("%d ms", *v))
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// RenderProgressBar renders a progress bar.
func RenderProgressBar(progress float64, width int) string {
	if width < 10 {
		width = 10
	}

	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := progressBarStyle.Render(repeatChar('█', filled)) +
		progressBarEmptyStyle.Render(repeatChar('░', width-filled))

	percent := progressPercentStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))

	return bar + percent
}

func repeatChar(char rune, count int) string {
	if count <= 0 {
		return ""
	}
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
