package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/config"
	"github.com/artur/bobina/internal/database"
	"github.com/artur/bobina/internal/database/repository"
	"github.com/artur/bobina/internal/explorer"
	"github.com/artur/bobina/internal/handler"
	"github.com/artur/bobina/internal/logger"
	"github.com/artur/bobina/internal/persona"
	"github.com/artur/bobina/internal/trades"
	"github.com/artur/bobina/internal/upstream"
	"github.com/artur/bobina/internal/userstore"
	"github.com/artur/bobina/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init("bobina", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpOpts := upstream.Options{
		Timeout:         cfg.Upstream.Timeout,
		MaxRetries:      cfg.Upstream.MaxRetries,
		BreakerFailures: cfg.Upstream.BreakerFailures,
	}

	backend, closeStore, err := newBackend(cfg, httpOpts)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open user store")
	}
	defer closeStore()

	store := userstore.New(backend)
	summarizer := trades.NewSummarizer(explorer.NewClient(
		upstream.New("etherscan", httpOpts),
		cfg.Etherscan.URL,
		cfg.Etherscan.APIKey,
	))
	responder := persona.NewClient(upstream.New("openrouter", httpOpts), persona.Options{
		URL:     cfg.OpenRouter.URL,
		APIKey:  cfg.OpenRouter.APIKey,
		Model:   cfg.OpenRouter.Model,
		Referer: cfg.OpenRouter.Referer,
		Title:   cfg.OpenRouter.Title,
	})

	b, err := bot.New(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}
	b.SetPollTimeout(cfg.Telegram.PollTimeout)
	handler.Register(b, store, summarizer, responder)

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if cfg.Telegram.WebhookURL != "" {
			if err := b.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
				log.Fatal().Err(err).Msg("failed to register webhook")
			}
		}
		serve(ctx, webhook.NewServer(cfg.Server.Addr, webhook.NewRouter(b, cfg.Server.WebhookPath)))
	default:
		if err := b.DeleteWebhook(); err != nil {
			log.Warn().Err(err).Msg("failed to delete webhook, long polling may be rejected")
		}
		if cfg.Server.MetricsEnabled {
			go serve(ctx, webhook.NewServer(cfg.Server.Addr, webhook.NewRouter(nil, cfg.Server.WebhookPath)))
		}
		log.Info().Msg("Bobina is online and grumpy as ever...")
		b.Run(ctx)
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *webhook.Server) {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}
}

func newBackend(cfg *config.Config, httpOpts upstream.Options) (userstore.Backend, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := database.New(cfg.Store.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		repo := repository.NewUserRepository(db.DB)
		if total, err := repo.GetTotalUsers(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to count tracked chats")
		} else {
			log.Info().Int64("chats", total).Str("path", cfg.Store.DBPath).Msg("sqlite user store ready")
		}
		return repo, func() { db.Close() }, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repository.NewRedisUserRepository(client), func() { client.Close() }, nil

	default:
		repo := repository.NewSupabaseUserRepository(
			upstream.New("supabase", httpOpts),
			cfg.Supabase.URL,
			cfg.Supabase.AnonKey,
		)
		return repo, func() {}, nil
	}
}
