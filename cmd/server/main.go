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

	router "github.com/krishnabarasiya03/video-conf/internal/adapters/http"
	signaladapter "github.com/krishnabarasiya03/video-conf/internal/adapters/signal"
	"github.com/krishnabarasiya03/video-conf/internal/app"
	"github.com/krishnabarasiya03/video-conf/internal/auth"
	"github.com/krishnabarasiya03/video-conf/internal/chat"
	"github.com/krishnabarasiya03/video-conf/internal/config"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/media/rtc"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var store chat.Store = chat.Noop{}
	if cfg.ChatLogPath != "" {
		logStore, err := chat.NewLog(cfg.ChatLogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ChatLogPath).Msg("failed to open chat log")
		}
		defer logStore.Close()
		store = logStore
	}

	var scheduler auth.Scheduler = auth.RolePolicy{}
	if cfg.AllowGuest {
		scheduler = auth.AllowAll{}
	}

	registry := session.NewRegistry()
	gateway := media.NewGateway(rtc.NewEngine(cfg.STUNServers))
	controller := app.NewController(registry, gateway, scheduler, store)
	sig := signaladapter.NewController(controller, auth.NewVerifier(cfg.Secret), signaladapter.Options{
		AllowGuest:   cfg.AllowGuest,
		ReadLimit:    cfg.ReadLimit,
		WriteTimeout: cfg.WriteTimeout,
		SendBuffer:   cfg.SendBuffer,
	})

	r := router.SetupRouter(ctx, cfg, sig, registry)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
