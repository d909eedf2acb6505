package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/adapters/board"
	router "github.com/sketchwire/sketchwire/internal/adapters/http"
	"github.com/sketchwire/sketchwire/internal/app"
	"github.com/sketchwire/sketchwire/internal/auth"
	"github.com/sketchwire/sketchwire/internal/config"
	"github.com/sketchwire/sketchwire/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("secret is required to verify credentials")
	}

	events, err := store.OpenSQLite(cfg.DatabasePath, cfg.HistoryLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open event store")
	}
	defer events.Close()

	registry := app.NewRegistry()
	verifier := auth.NewJWTVerifier(cfg.Secret)
	ctl := board.NewController(verifier, registry, events, cfg.SendBuffer, cfg.ReadLimit, cfg.WriteTimeout)

	r := router.SetupRouter(ctx, cfg, ctl, events)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("sketchwire server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
