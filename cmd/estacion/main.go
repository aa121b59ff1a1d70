package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/devandress/Estacion-metereologica/pkg/config"
	"github.com/devandress/Estacion-metereologica/pkg/database"
)

// app bundles the shared dependencies every command needs
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	dbManager *database.Manager
}

type appContextKey struct{}

func appFromContext(ctx context.Context) *app {
	return ctx.Value(appContextKey{}).(*app)
}

var rootCmd = &cobra.Command{
	Use:   "estacion",
	Short: "Estacion - Weather Station Data Platform",
	Long: `Estacion manages a fleet of weather stations: station registry,
reading ingestion from local hardware and external providers, tokenized
public sharing and aggregate statistics.`,
}

func main() {
	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel)

	dbManager, err := database.NewManager(cfg.Database, logger)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer dbManager.Close()

	a := &app{cfg: cfg, log: logger, dbManager: dbManager}
	ctx := context.WithValue(context.Background(), appContextKey{}, a)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
