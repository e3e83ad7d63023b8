package main

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/backoff"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/config"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/logging"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/tui"
)

// newWatchCmd runs the live terminal dashboard.
func newWatchCmd(cfg *config.Config, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live terminal dashboard of the status page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(cmd, cfg, stderr); err != nil {
				return err
			}

			// Logs would corrupt the dashboard
			logger := logging.NewLoggerWithWriter(io.Discard, "json", "info")
			logging.SetDefault(logger)

			model := tui.New(tui.Config{
				ScrapeURL: cfg.ScrapeURL,
				Fetcher:   rtmpstat.NewFetcher(cfg.ScrapeURL, cfg.FetchTimeout, logger),
				Interval:  cfg.WatchInterval,
				Timeout:   cfg.FetchTimeout,
				Backoff: backoff.Config{
					Initial:    cfg.BackoffInitial,
					Max:        cfg.BackoffMax,
					Multiplier: backoff.DefaultConfig().Multiplier,
					JitterPct:  backoff.DefaultConfig().JitterPct,
				},
				Seed: time.Now().UnixNano(),
			})

			p := tea.NewProgram(model, tea.WithAltScreen())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				<-ctx.Done()
				tui.SendQuit(p)
			}()

			_, err := p.Run()
			return err
		},
	}
}
