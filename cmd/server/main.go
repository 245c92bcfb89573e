package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/config"
	"github.com/Slashgear/poker-planning/internal/engine"
	"github.com/Slashgear/poker-planning/internal/hub"
	"github.com/Slashgear/poker-planning/internal/store"
	router "github.com/Slashgear/poker-planning/internal/transport/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	st := buildStore(cfg)
	h := hub.New(st)
	eng := engine.New(st, h, cfg.RoomTTL)

	reaper := engine.NewReaper(st, h, cfg.ReapInterval, cfg.MemberInactivity, cfg.EmptyRoomGrace)
	go reaper.Run(ctx)

	r := router.SetupRouter(cfg, eng)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store).Msg("poker-planning server started")
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

func buildStore(cfg *config.Config) store.RoomStore {
	switch cfg.Store {
	case "memory":
		log.Warn().Msg("using in-memory store, rooms will not survive a restart")
		return store.NewMemory(cfg.RoomTTL)
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return store.NewRedis(rdb, cfg.RoomTTL)
	}
}
