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
	"github.com/lp3/cineteca/src/internal/config"
	"github.com/lp3/cineteca/src/internal/frontend"
	"github.com/lp3/cineteca/src/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadWebFrontend()
	config.SetupLogging(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	timeout, _ := cfg.Timeout()
	log.Info().Str("api_url", cfg.APIURL).Dur("timeout", timeout).Bool("strict_favorite_submit", cfg.StrictFavoriteSubmit).Msg("starting web frontend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := httpapi.NewCatalogClient(cfg.APIURL, timeout)
	views, err := frontend.NewViews(client, frontend.Options{StrictFavoriteSubmit: cfg.StrictFavoriteSubmit})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	mux := http.NewServeMux()
	views.RegisterHandlers(mux)

	// The catalog API stays reachable from the page's own origin
	proxy, err := frontend.NewAPIProxy(cfg.APIURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build api proxy")
	}
	mux.Handle("/api/", proxy)

	if err := server.StartHTTP(ctx, ":"+cfg.Port, server.Chain(mux, nil)); err != nil {
		log.Error().Err(err).Msg("http server error")
		os.Exit(1)
	}
	log.Info().Msg("web frontend stopped")
}
