package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/config"
	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/stats"
)

// newProbeCmd runs one translation cycle and prints the result.
func newProbeCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch the status page once and print the metrics",
		Long: `probe runs a single translation cycle against a private registry and
prints the Prometheus text exposition. With --summary it prints a
human-readable summary of the status page instead. Exits non-zero when the
status page cannot be fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := setup(cmd, cfg, stderr)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if summary {
				start := time.Now()
				snap, err := p.fetcher.Fetch(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(stdout, stats.FormatSummary(stats.Summarize(snap), stats.SummaryConfig{
					ScrapeURL:     p.fetcher.URL(),
					FetchDuration: time.Since(start),
					ShowStreams:   true,
				}))
				return nil
			}

			if err := p.exporter.Translate(ctx); err != nil {
				return err
			}

			families, err := p.registry.Gather()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(stdout, mf); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print a human-readable summary instead of metrics")

	return cmd
}
