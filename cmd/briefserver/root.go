package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/api"
	"github.com/athena-os-2026/sanctions-radar/internal/config"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/athena-os-2026/sanctions-radar/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addr string

	rootCmd := &cobra.Command{
		Use:           "briefserver",
		Short:         "Serve the generated brief over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), addr)
		},
	}

	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	return rootCmd
}

func run(ctx context.Context, addr string) error {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	catalog := models.DefaultCatalog()

	var archive api.Archive
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		store, err := storage.NewStore(connectCtx, cfg.MongoURI, cfg.MongoDB, catalog)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Brief archive unavailable, /api/briefs disabled")
		} else {
			defer store.Close(context.Background())
			archive = store
		}
	}

	handlers := api.NewHandlers(api.Files{
		Events: cfg.EventsFile,
		Record: cfg.RecordFile,
		Report: cfg.ReportFile,
	}, catalog, archive)
	server := api.NewServer(handlers, cfg.HTTPAddr)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info().Msg("Shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("API server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Brief server stopped")
	return nil
}
