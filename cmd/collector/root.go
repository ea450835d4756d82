package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/collector"
	"github.com/athena-os-2026/sanctions-radar/internal/config"
	"github.com/athena-os-2026/sanctions-radar/internal/eventstore"
	"github.com/athena-os-2026/sanctions-radar/internal/metrics"
	"github.com/athena-os-2026/sanctions-radar/internal/signals"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	queries string
	out     string
	window  time.Duration
	quiet   bool
}

func newRootCommand() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:           "collector",
		Short:         "Collect sanctions and illicit-finance signals into an event set",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, f)
		},
	}

	rootCmd.Flags().StringVar(&f.queries, "queries", "", "YAML query file (overrides QUERIES_FILE)")
	rootCmd.Flags().StringVarP(&f.out, "out", "o", "", "Event set output path (overrides EVENTS_FILE)")
	rootCmd.Flags().DurationVar(&f.window, "window", 0, "Rolling window length (overrides WINDOW)")
	rootCmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print the per-query summary table")

	return rootCmd
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	setupLogging(cfg.Debug)

	if f.queries != "" {
		cfg.QueriesFile = f.queries
	}
	if f.out != "" {
		cfg.EventsFile = f.out
	}
	if f.window > 0 {
		cfg.Window = f.window
	}

	if err := cfg.ValidateCollector(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	queries, err := cfg.QuerySet()
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.QueriesFile).Msg("Failed to load query set")
	}

	client := signals.NewClient(cfg.SignalAPIKey,
		signals.WithBaseURL(cfg.SignalAPIURL),
		signals.WithPolicy(cfg.SignalPolicy()),
	)
	rec := metrics.New()

	c := collector.New(client, queries,
		collector.WithWindowLength(cfg.Window),
		collector.WithMetrics(rec),
	)
	report, err := collectAndSave(ctx, c, cfg.EventsFile)
	if err != nil {
		return err
	}

	rec.StageDone("collect", report.Duration, time.Now())
	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("Failed to write metrics")
		}
	}

	if !f.quiet {
		fmt.Println(renderReport(report))
	}
	return nil
}

// collectAndSave replaces the event set at path only when the collection ran
// to completion. An interrupted run leaves the previous file untouched.
func collectAndSave(ctx context.Context, c *collector.Collector, path string) (*collector.Report, error) {
	events, report, err := c.Collect(ctx)
	if err != nil {
		log.Warn().Str("path", path).Msg("Keeping previous event set")
		return report, err
	}

	if err := eventstore.Save(path, events); err != nil {
		return report, err
	}
	log.Info().Str("path", path).Int("signals", len(events)).Msg("Event set saved")
	return report, nil
}
