package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/brief"
	"github.com/athena-os-2026/sanctions-radar/internal/config"
	"github.com/athena-os-2026/sanctions-radar/internal/eventstore"
	"github.com/athena-os-2026/sanctions-radar/internal/llm"
	"github.com/athena-os-2026/sanctions-radar/internal/metrics"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/athena-os-2026/sanctions-radar/internal/render"
	"github.com/athena-os-2026/sanctions-radar/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	in      string
	report  string
	record  string
	variant string
}

func newRootCommand() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:           "synthesizer",
		Short:         "Synthesize the weekly brief from the collected event set",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, f)
		},
	}

	rootCmd.Flags().StringVarP(&f.in, "in", "i", "", "Event set path (overrides EVENTS_FILE)")
	rootCmd.Flags().StringVar(&f.report, "report", "", "HTML report path (overrides REPORT_FILE)")
	rootCmd.Flags().StringVar(&f.record, "record", "", "JSON record path (overrides RECORD_FILE)")
	rootCmd.Flags().StringVar(&f.variant, "variant", "", "simple or extended (overrides BRIEF_VARIANT)")

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
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	setupLogging(cfg.Debug)

	if f.in != "" {
		cfg.EventsFile = f.in
	}
	if f.report != "" {
		cfg.ReportFile = f.report
	}
	if f.record != "" {
		cfg.RecordFile = f.record
	}
	if f.variant != "" {
		v := models.Variant(f.variant)
		if v != models.VariantSimple && v != models.VariantExtended {
			return fmt.Errorf("unknown variant %q", f.variant)
		}
		cfg.Variant = v
	}

	if err := cfg.ValidateSynthesizer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	events, err := eventstore.Load(cfg.EventsFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.EventsFile).Msg("Failed to read event set, continuing with no signals")
	}

	catalog := models.DefaultCatalog()
	rec := metrics.New()
	opts := []brief.Option{
		brief.WithCatalog(catalog),
		brief.WithVariant(cfg.Variant),
		brief.WithTopPerCategory(cfg.TopPerCategory),
		brief.WithWindowLength(cfg.Window),
		brief.WithMetrics(rec),
	}

	if cfg.LLMAPIKey != "" {
		client := llm.NewClient(llm.Config{
			APIKey:   cfg.LLMAPIKey,
			Endpoint: cfg.LLMEndpoint,
			Model:    cfg.LLMModel,
			Policy:   cfg.LLMPolicy(),
		})
		opts = append(opts, brief.WithGenerator(client))
		log.Info().Str("model", client.Model()).Msg("Text-generation client initialized")
	} else {
		log.Warn().Msg("Text-generation client not initialized (no API key)")
	}

	b := brief.New(opts...).Run(ctx, events)
	if err := ctx.Err(); err != nil {
		log.Warn().Msg("Synthesis interrupted, keeping previous report and record")
		return fmt.Errorf("synthesis interrupted: %w", err)
	}

	if err := render.WriteReport(cfg.ReportFile, b); err != nil {
		return err
	}
	record := b.Record()
	if err := render.WriteRecord(cfg.RecordFile, record); err != nil {
		return err
	}
	log.Info().
		Str("report", cfg.ReportFile).
		Str("record", cfg.RecordFile).
		Msg("Brief written")

	if cfg.MongoURI != "" {
		archive(ctx, cfg, catalog, &record)
	}

	rec.StageDone("synthesize", time.Since(started), time.Now())
	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("Failed to write metrics")
		}
	}
	return nil
}

// archive stores the record in MongoDB. Failures are logged only.
func archive(ctx context.Context, cfg *config.Config, catalog models.Catalog, record *models.BriefRecord) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := storage.NewStore(ctx, cfg.MongoURI, cfg.MongoDB, catalog)
	if err != nil {
		log.Warn().Err(err).Msg("Brief archive unavailable")
		return
	}
	defer store.Close(ctx)

	if err := store.SaveBrief(ctx, record); err != nil {
		log.Warn().Err(err).Str("brief_id", record.ID).Msg("Failed to archive brief")
		return
	}
	log.Info().Str("brief_id", record.ID).Msg("Brief archived")
}
