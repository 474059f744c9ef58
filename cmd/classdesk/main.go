package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/classdesk/classdesk/internal/config"
	"github.com/classdesk/classdesk/internal/events"
	"github.com/classdesk/classdesk/internal/invite"
	"github.com/classdesk/classdesk/internal/members"
	"github.com/classdesk/classdesk/internal/provision"
	"github.com/classdesk/classdesk/internal/server"
	"github.com/classdesk/classdesk/internal/session"
	"github.com/classdesk/classdesk/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("CLASSDESK_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("CLASSDESK_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Provisioning handler: turns identity events into profiles.
	provisioner := provision.NewHandler(
		store.Tenants(),
		store.Profiles(),
		store.Invitations(),
		cfg.Provisioning.RequireVerifiedEmail,
		cfg.Provisioning.TenantVisibilityWait,
	)

	// Identity event listener on Redis.
	listener, err := events.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, provisioner)
	if err != nil {
		return err
	}
	defer listener.Close()

	// Domain services.
	invites := invite.NewService(store.Invitations(), store.Profiles(), cfg.Invitations.TTL, cfg.Invitations.PurgeGrace)
	membersSvc := members.NewService(store.Profiles())
	resolver := session.NewResolver(store.Profiles())

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Expired-invitation purge on a cron schedule.
	if _, err := invites.StartPurge(ctx, cfg.Invitations.PurgeSchedule); err != nil {
		return err
	}

	// Consume identity events in the background.
	go func() {
		if runErr := listener.Run(ctx); runErr != nil {
			log.Error().Err(runErr).Msg("identity event listener stopped")
		}
	}()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, provisioner, invites, membersSvc, resolver)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
