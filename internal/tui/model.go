package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/backoff"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/stats"
)

// DefaultInterval is the poll interval when none is configured.
const DefaultInterval = 2 * time.Second

// =============================================================================
// Messages
// =============================================================================

// TickMsg triggers the next poll. Seq identifies the tick chain that
// scheduled it; ticks from a superseded chain are dropped.
type TickMsg struct {
	Seq  int
	Time time.Time
}

// SnapshotMsg carries the outcome of one poll.
type SnapshotMsg struct {
	Snapshot *rtmpstat.Snapshot
	Duration time.Duration
	Err      error
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// Fetcher retrieves one status snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*rtmpstat.Snapshot, error)
}

// Config holds TUI configuration.
type Config struct {
	ScrapeURL string
	Fetcher   Fetcher
	Interval  time.Duration
	Timeout   time.Duration
	Backoff   backoff.Config
	Seed      int64
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	scrapeURL string
	fetcher   Fetcher
	interval  time.Duration
	timeout   time.Duration

	// Retry state, shared by every copy of the model
	backoff *backoff.Backoff

	// Current state
	summary      *stats.Summary
	lastErr      error
	lastFetch    time.Duration
	nextDelay    time.Duration
	startTime    time.Time
	lastUpdate   time.Time
	inFlight     bool
	tickSeq      int
	detailedView bool

	// Display options
	width  int
	height int

	quitting bool
}

// New creates a new TUI model.
func New(cfg Config) Model {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = rtmpstat.DefaultTimeout
	}
	if cfg.Backoff == (backoff.Config{}) {
		cfg.Backoff = backoff.DefaultConfig()
	}

	return Model{
		scrapeURL: cfg.ScrapeURL,
		fetcher:   cfg.Fetcher,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		backoff:   backoff.New(cfg.Seed, cfg.Backoff),
		startTime: time.Now(),
		// Init starts the first fetch
		inFlight: cfg.Fetcher != nil,
		width:    80,
		height:   24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init starts the first poll immediately.
func (m Model) Init() tea.Cmd {
	return fetchCmd(m.fetcher, m.timeout)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "d":
			m.detailedView = !m.detailedView
			return m, nil
		case "r":
			return m.poll()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if msg.Seq != m.tickSeq {
			return m, nil
		}
		return m.poll()

	case SnapshotMsg:
		m.inFlight = false
		m.lastFetch = msg.Duration
		m.lastUpdate = time.Now()

		if msg.Err != nil {
			m.lastErr = msg.Err
			m.nextDelay = m.backoff.Next()
		} else {
			m.lastErr = nil
			m.summary = stats.Summarize(msg.Snapshot)
			m.backoff.Reset()
			m.nextDelay = m.interval
		}
		// Each completed poll starts a new chain and retires any pending tick
		m.tickSeq++
		return m, tickAfter(m.nextDelay, m.tickSeq)

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.detailedView && m.summary != nil && m.summary.TotalStreams > 0 {
		return m.renderDetailedView()
	}
	return m.renderSummaryView()
}

// poll starts a fetch unless one is already running.
func (m Model) poll() (tea.Model, tea.Cmd) {
	if m.inFlight || m.fetcher == nil {
		return m, nil
	}
	m.inFlight = true
	return m, fetchCmd(m.fetcher, m.timeout)
}

// =============================================================================
// Commands
// =============================================================================

// fetchCmd polls the status page once.
func fetchCmd(f Fetcher, timeout time.Duration) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		snap, err := f.Fetch(ctx)
		return SnapshotMsg{
			Snapshot: snap,
			Duration: time.Since(start),
			Err:      err,
		}
	}
}

// tickAfter schedules the next poll for chain seq.
func tickAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Seq: seq, Time: t}
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the dashboard started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Summary returns the last successful summary, or nil.
func (m Model) Summary() *stats.Summary {
	return m.summary
}

// LastError returns the error of the last poll, or nil if it succeeded.
func (m Model) LastError() error {
	return m.lastErr
}

// Failures returns the number of consecutive failed polls.
func (m Model) Failures() int {
	return m.backoff.Attempts()
}

// NextDelay returns the delay before the next scheduled poll.
func (m Model) NextDelay() time.Duration {
	return m.nextDelay
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}
