package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/api"
	"github.com/xaenox/mawari-agent/internal/assistant"
	"github.com/xaenox/mawari-agent/internal/bot"
	"github.com/xaenox/mawari-agent/internal/community"
	"github.com/xaenox/mawari-agent/internal/discord"
	"github.com/xaenox/mawari-agent/internal/fallback"
	"github.com/xaenox/mawari-agent/internal/logging"
	"github.com/xaenox/mawari-agent/internal/manifest"
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/netstats"
	"github.com/xaenox/mawari-agent/internal/provider"
	"github.com/xaenox/mawari-agent/internal/roma"
	"github.com/xaenox/mawari-agent/internal/storage"
	"github.com/xaenox/mawari-agent/internal/twitter"
	"github.com/xaenox/mawari-agent/internal/webhook"
	"github.com/xaenox/mawari-agent/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize logger
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("Invalid log settings, using production defaults", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize storage
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	orchestrator, romaPersona, status := newAssistant(cfg, m, logger)
	romaClient := roma.NewClient(roma.Config{
		BaseURL: cfg.Roma.BaseURL,
		APIKey:  cfg.Roma.APIKey,
		Timeout: cfg.Roma.Timeout,
	})

	// Community feeds
	discordClient := discord.NewClient(discord.Config{
		BotToken: cfg.Discord.BotToken,
		GuildID:  cfg.Discord.ServerID,
	})
	twitterClient := twitter.NewClient(twitter.Config{
		BaseURL:     cfg.Twitter.BaseURL,
		BearerToken: cfg.Twitter.BearerToken,
		APIKey:      cfg.Twitter.APIKey,
		APISecret:   cfg.Twitter.APISecret,
	})
	aggregator := community.NewAggregator(
		community.NewEventFeed(discordClient, m, logger.Named("events")),
		community.NewPostFeed(twitterClient, m, logger.Named("posts")),
	)
	aggregator.Initialize(ctx)

	scheduler := community.NewScheduler(logger.Named("scheduler"), aggregator.Jobs(community.Intervals{
		Events:        cfg.Community.EventsInterval,
		Announcements: cfg.Community.AnnouncementsInterval,
		Posts:         cfg.Community.PostsInterval,
	})...)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	sampler := netstats.NewSampler(nil)
	sampler.Start(ctx)
	defer sampler.Stop()

	// Optional Telegram relay
	botDone := make(chan struct{})
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, bot.Deps{
			Assistant: orchestrator,
			Sessions:  store,
			Community: aggregator,
			Network:   sampler,
		}, logger.Named("telegram"))
		if err != nil {
			logger.Error("Failed to create Telegram bot, continuing without it", zap.Error(err))
			close(botDone)
		} else {
			go func() {
				defer close(botDone)
				b.Run(ctx)
			}()
		}
	} else {
		close(botDone)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Assistant:   orchestrator,
		Status:      status,
		Roma:        romaPersona,
		RomaBackend: romaClient,
		RomaAgent:   roma.NewResponder(romaClient, m, logger.Named("roma")),
		Sessions:    store,
		Community:   aggregator,
		Network:     sampler,
		Webhooks:    webhook.NewDispatcher(m, logger.Named("webhook")),
		BaseURL:     cfg.Manifest.BaseURL,
		Association: manifest.Association{
			Header:    cfg.Manifest.Header,
			Payload:   cfg.Manifest.Payload,
			Signature: cfg.Manifest.Signature,
		},
		Metrics:  m,
		Gatherer: registry,
		Logger:   logger.Named("http"),
	})

	server := api.NewServer(cfg.Server.Port, router, logger)
	serverErr := server.Start()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	<-botDone
}

// openStorage picks the session backend; unknown names fall back to memory
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
	case "redis":
		logger.Info("Using Redis storage")
		return storage.NewRedisStorageFromURL(ctx, cfg.Storage.RedisURL, cfg.Storage.RedisPrefix)
	case "memory", "":
	default:
		logger.Warn("Unknown storage backend, using memory", zap.String("backend", cfg.Storage.Backend))
	}
	logger.Info("Using in-memory storage")
	return storage.NewMemoryStorage(), nil
}

// newAssistant builds the MAWARAI and ROMA personas on one provider client.
// Both run in fallback-only mode when the provider cannot be built.
func newAssistant(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*assistant.Orchestrator, *assistant.Orchestrator, api.ProviderStatus) {
	pc := cfg.Provider
	status := api.ProviderStatus{Provider: pc.Name, Model: pc.Model}
	opts := assistant.Options{
		Params: models.ModelParameters{
			Temperature:      pc.Temperature,
			MaxTokens:        pc.MaxTokens,
			TopP:             pc.TopP,
			FrequencyPenalty: pc.FrequencyPenalty,
			PresencePenalty:  pc.PresencePenalty,
		},
		HistoryLimit: pc.HistoryLimit,
		Metrics:      m,
	}
	providerName := pc.Name
	if preset, ok := provider.LookupPreset(pc.Name); ok {
		opts.Label = preset.Label
		providerName = strings.TrimSuffix(preset.Label, " AI")
		if status.Model == "" {
			status.Model = preset.DefaultModel
		}
	}

	romaOpts := assistant.RomaOptions(providerName, models.ModelParameters{
		Temperature: cfg.Roma.Temperature,
		MaxTokens:   cfg.Roma.MaxTokens,
	}, pc.HistoryLimit, m)

	client, err := provider.NewClient(provider.Config{
		Name:    pc.Name,
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
		Timeout: pc.Timeout,
		Referer: pc.Referer,
		Title:   pc.Title,
	}, logger.Named("provider"))
	if err != nil {
		logger.Warn("AI provider unavailable, answering from the local fallback",
			zap.String("provider", pc.Name),
			zap.Error(err))
		return assistant.NewOrchestrator(nil, nil, opts, logger.Named("assistant")),
			assistant.NewOrchestrator(nil, fallback.NewRomaResponder(), romaOpts, logger.Named("roma")),
			status
	}

	status.Model = client.Model()
	status.KeyConfigured = true
	logger.Info("AI provider configured",
		zap.String("provider", client.Name()),
		zap.String("model", client.Model()))
	return assistant.NewOrchestrator(client, nil, opts, logger.Named("assistant")),
		assistant.NewOrchestrator(client, fallback.NewRomaResponder(), romaOpts, logger.Named("roma")),
		status
}
