package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/devandress/Estacion-metereologica/pkg/ingest"
	"github.com/devandress/Estacion-metereologica/pkg/share"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Estacion server",
	Long:  `Start the HTTP API, the background record processor and the external source poller.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := appFromContext(cmd.Context())

	if a.cfg.Server.JWTSecret == "" || a.cfg.Server.JWTSecret == "change_me_in_production" {
		return errors.New("ESTACION_SERVER_JWT_SECRET is not set or has an invalid value")
	}

	// Run migrations
	if err := a.dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	processor := ingest.NewProcessor(a.dbManager, a.log, a.cfg.Ingest.QueueSize)
	processor.Start()

	fetchTimeout := time.Duration(a.cfg.Ingest.FetchTimeoutSeconds) * time.Second
	fetcher := ingest.NewFetcher(a.dbManager, processor, fetchTimeout, a.log)

	shareService := share.NewService(a.dbManager, a.log)

	// Background jobs: poll due external sources and purge old readings
	scheduler := gocron.NewScheduler(time.UTC)
	pollInterval := time.Duration(a.cfg.Ingest.PollIntervalSeconds) * time.Second
	if _, err := scheduler.Every(pollInterval).Do(func() {
		fetcher.SyncDueSources(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule source polling: %w", err)
	}
	if _, err := scheduler.Every(1).Day().At("03:00").Do(func() {
		purgeOldReadings(a)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}
	scheduler.StartAsync()

	// Setup Router
	routeManager := NewRouteManager(a, shareService, processor)
	routeManager.Setup()

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		a.log.Info().Msg("Shutdown signal received")

		scheduler.Stop()
		processor.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	a.log.Info().Str("addr", addr).Msg("Starting Estacion server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func purgeOldReadings(a *app) {
	if a.cfg.Retention.Days <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Retention.Days)
	deleted, err := a.dbManager.DeleteReadingsOlderThan(ctx, cutoff)
	if err != nil {
		a.log.Error().Err(err).Msg("Retention purge failed")
		return
	}
	if deleted > 0 {
		a.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Purged old readings")
	}
}
