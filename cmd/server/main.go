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

	router "github.com/nickaroot/music-room/internal/adapters/http"
	"github.com/nickaroot/music-room/internal/adapters/ws"
	"github.com/nickaroot/music-room/internal/app"
	"github.com/nickaroot/music-room/internal/config"
	"github.com/nickaroot/music-room/internal/core"
	"github.com/nickaroot/music-room/internal/service"
	"github.com/nickaroot/music-room/internal/store"
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

	st := store.NewMemoryStore()
	locks := store.NewKeyedLocks()

	users := service.NewUserService(st)
	events := service.NewEventService(st, locks)
	playlists := service.NewPlaylistService(st, locks)
	players := service.NewPlayerService(st, locks)

	guards := app.NewGuards(st)
	registry := app.NewRegistry()
	rooms := core.NewRoomManager()

	dispatcher := app.NewDispatcher(registry, rooms, guards, users, events, playlists, players, st)
	dispatcher.RetryAttempts = cfg.RetryAttempts
	dispatcher.RetryBackoff = cfg.RetryBackoff

	ticker := service.NewTicker(players, cfg.TickPeriod, dispatcher.NotifySessionChanged)
	players.SetTickSource(ticker)
	go ticker.Run(ctx)

	wsCtl := ws.NewController(dispatcher, guards, st, cfg.SendBuffer)
	wsCtl.ReadLimit = cfg.ReadLimit
	wsCtl.Limiter = ws.NewActionRateLimiter(cfg.ActionLimit, time.Second)

	api := router.NewAPI(users, events, playlists, players, guards, st)
	r := router.SetupRouter(ctx, cfg, api, wsCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("music-room server started")
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
