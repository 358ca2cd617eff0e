package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slackapi "github.com/slack-go/slack"

	"github.com/gosuda/randevu/internal/agent"
	"github.com/gosuda/randevu/internal/booking"
	"github.com/gosuda/randevu/internal/channel"
	slackchan "github.com/gosuda/randevu/internal/channel/slack"
	"github.com/gosuda/randevu/internal/config"
	"github.com/gosuda/randevu/internal/convo"
	"github.com/gosuda/randevu/internal/llm"
	"github.com/gosuda/randevu/internal/llm/anthropic"
	"github.com/gosuda/randevu/internal/llm/openai"
	"github.com/gosuda/randevu/internal/server"
	"github.com/gosuda/randevu/internal/store/postgres"
	"github.com/gosuda/randevu/internal/store/redis"
)

func main() {
	setupLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	cache, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer cache.Close()

	provider := buildProvider(cfg)

	svc := booking.NewService(store.Bookings(), store.Customers(), cache)

	registry := agent.NewRegistry()
	booking.RegisterTools(registry, svc, nil)

	sessions, sweeper := buildSessionStore(cfg, cache)
	router := agent.NewRouter(provider, registry, cfg.Agent.MaxRoutedTools)
	bot := agent.New(provider, router, registry, sessions, store.Usage(),
		agent.WithMaxIterations(cfg.Agent.MaxIterations))

	senders := map[string]channel.Sender{}
	if cfg.Slack.BotToken != "" {
		sender := slackchan.NewSender(slackapi.New(cfg.Slack.BotToken))
		senders[sender.Platform()] = sender
	}

	srv := server.New(cfg, store.Tenants(), bot, cache, senders)

	scheduler := cron.New()
	if sweeper != nil {
		spec := "@every " + cfg.Agent.SweepInterval.String()
		if _, err := scheduler.AddFunc(spec, func() { sweeper.Sweep() }); err != nil {
			log.Fatal().Err(err).Msg("failed to schedule session sweep")
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}

func setupLogger() {
	level, err := zerolog.ParseLevel(envOr("RANDEVU_LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if envOr("RANDEVU_LOG_FORMAT", "json") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func buildProvider(cfg *config.Config) llm.Provider {
	var inner llm.Provider
	switch cfg.LLM.Provider {
	case "anthropic":
		inner = anthropic.New(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.LLM.Model)
			o.Temperature = cfg.LLM.Temperature
			o.MaxTokens = int64(cfg.LLM.MaxTokens)
			o.APIKey = cfg.LLM.APIKey
		})
	default:
		client := openaisdk.NewClient(option.WithAPIKey(cfg.LLM.APIKey))
		inner = openai.NewFromClient(&client, func(o *openai.Options) {
			o.Model = cfg.LLM.Model
			o.Temperature = cfg.LLM.Temperature
			o.MaxCompletionTokens = int64(cfg.LLM.MaxTokens)
		})
	}
	return llm.NewRateLimited(inner, cfg.LLM.RateRPS, cfg.LLM.RateBurst)
}

func buildSessionStore(cfg *config.Config, cache *redis.Cache) (convo.Store, *convo.MemoryStore) {
	if cfg.Agent.SessionBackend == "redis" {
		return convo.NewRedisStore(cache.Client(), cfg.Agent.SessionIdleTTL, cfg.Agent.SessionMaxMessages), nil
	}
	mem := convo.NewMemoryStore(cfg.Agent.SessionIdleTTL, cfg.Agent.SessionMaxMessages)
	return mem, mem
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
