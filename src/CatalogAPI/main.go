package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/lp3/cineteca/src/internal/adapters/httpapi"
	"github.com/lp3/cineteca/src/internal/adapters/memory"
	"github.com/lp3/cineteca/src/internal/adapters/sqlstore"
	"github.com/lp3/cineteca/src/internal/config"
	"github.com/lp3/cineteca/src/internal/ports"
	"github.com/lp3/cineteca/src/internal/server"
	"github.com/lp3/cineteca/src/internal/services"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadCatalogAPI()
	config.SetupLogging(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Info().Str("env", cfg.Env).Str("driver", cfg.DatabaseDriver).Msg("starting catalog api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	var repo ports.CatalogRepository
	if cfg.DatabaseDriver == "memory" {
		log.Warn().Msg("using in-memory catalog, data is lost on exit")
		repo = memory.NewCatalogRepo()
	} else {
		store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open catalog database")
		}
		defer store.Close()
		repo = store
	}

	catalog := services.NewCatalogService(repo)

	// 2. Optional seed data
	if cfg.SeedFile != "" {
		if _, err := services.NewCatalogSeeder(catalog).SeedIfEmpty(ctx, cfg.SeedFile); err != nil {
			log.Error().Err(err).Str("file", cfg.SeedFile).Msg("seeding failed")
		}
	}

	// 3. HTTP API
	mux := http.NewServeMux()
	httpapi.NewCatalogServer(catalog, cfg.Env).RegisterHandlers(mux)
	handler := server.Chain(mux, cfg.CORSAllowedOrigins)

	if err := server.StartHTTP(ctx, ":"+cfg.Port, handler); err != nil {
		log.Error().Err(err).Msg("http server error")
		os.Exit(1)
	}
	log.Info().Msg("catalog api stopped")
}
