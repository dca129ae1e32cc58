package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ShutdownTimeout bounds how long in-flight requests get once the context
// passed to StartHTTP is cancelled.
var ShutdownTimeout = 5 * time.Second

// StartHTTP serves h on addr and blocks until the server stops. Cancelling
// ctx shuts the server down gracefully; that path returns nil.
func StartHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("addr", addr).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Chain wraps h with the common middleware stack. The correlation id is
// assigned first so every later layer can log it.
func Chain(h http.Handler, allowedOrigins []string) http.Handler {
	return WithCorrelationID(WithLogging(WithCORS(allowedOrigins)(h)))
}
