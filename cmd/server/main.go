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

	router "github.com/Bishes-Maharjan/SocketRTC-sub000/internal/adapters/http"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/auth"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/config"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/store"
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
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var chatStore core.ChatStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
		}
		defer rdb.Close()
		chatStore = store.NewRedisStore(rdb, "chat")
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis chat store")
	} else {
		chatStore = store.NewMemoryStore()
		log.Warn().Msg("no redis_addr configured, using in-memory chat store")
	}

	orch := app.NewOrchestrator(chatStore)
	tokens := auth.NewTokenService(cfg.Secret)

	r := router.SetupRouter(ctx, cfg, orch, tokens)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("relay server started")
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
