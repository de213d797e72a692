package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/ai"
	"github.com/campusvoice/backend/internal/cache"
	"github.com/campusvoice/backend/internal/config"
	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/rules"
	"github.com/campusvoice/backend/internal/service"
)

// App holds the wired services shared by the server and the admin CLI.
type App struct {
	Config      config.Config
	Store       db.Store
	Provider    ai.Provider
	Rules       *rules.Rules
	Redis       *redis.Client
	Scorer      *service.SeverityScorer
	Submissions *service.SubmissionService
	Dashboard   *service.Dashboard
	Logger      zerolog.Logger
}

// Open connects every backing service named by cfg, migrates the schema and
// seeds the categories from the rule table.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	provider, err := ai.New(ctx, ProviderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
	}

	store, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := store.SeedCategories(ctx, rs.Categories()); err != nil {
		store.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	rdb, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := New(cfg, store, provider, rs, rdb, logger)
	logger.Info().
		Str("ai_provider", provider.Name()).
		Str("db_driver", cfg.DBDriver).
		Bool("redis", rdb != nil).
		Int("categories", len(rs.Categories())).
		Msg("application wired")
	return a, nil
}

func ProviderConfig(cfg config.Config) ai.Config {
	return ai.Config{
		Provider:  cfg.AIProvider,
		Dimension: cfg.EmbeddingDimension,
		Gemini: ai.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			EmbeddingModel: cfg.GeminiEmbeddingModel,
			Timeout:        cfg.AITimeout,
		},
		OpenAI: ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
			Timeout:        cfg.AITimeout,
		},
	}
}

// New wires services around already opened dependencies. rdb may be nil.
func New(cfg config.Config, store db.Store, provider ai.Provider, rs *rules.Rules, rdb *redis.Client, logger zerolog.Logger) *App {
	scorer := &service.SeverityScorer{
		Rules:              rs,
		Classifier:         provider,
		EscalationScore:    cfg.EscalationScore,
		ClassifierMaxChars: cfg.ClassifierMaxChars,
		Logger:             logger.With().Str("component", "severity").Logger(),
	}
	assigner := &service.ClusterAssigner{
		Store:     store,
		Threshold: cfg.SimilarityThreshold,
		Dimension: cfg.EmbeddingDimension,
		Logger:    logger.With().Str("component", "cluster").Logger(),
	}
	categorizer := &service.Categorizer{
		Rules:  rs,
		AI:     provider,
		Logger: logger.With().Str("component", "category").Logger(),
	}
	return &App{
		Config:   cfg,
		Store:    store,
		Provider: provider,
		Rules:    rs,
		Redis:    rdb,
		Scorer:   scorer,
		Submissions: &service.SubmissionService{
			Store:       store,
			Rewriter:    provider,
			Embedder:    provider,
			Scorer:      scorer,
			Categorizer: categorizer,
			Assigner:    assigner,
			Logger:      logger.With().Str("component", "submission").Logger(),
		},
		Dashboard: &service.Dashboard{
			Store:  store,
			Cache:  &cache.JSONCache{Redis: rdb, TTL: cfg.StatsCacheTTL},
			Logger: logger.With().Str("component", "dashboard").Logger(),
		},
		Logger: logger,
	}
}

// Limiter builds a per-minute limiter for one route family.
func (a *App) Limiter(prefix string, perMinute int) *cache.Limiter {
	if a.Redis == nil || perMinute <= 0 {
		return nil
	}
	return &cache.Limiter{Redis: a.Redis, Prefix: "ratelimit:" + prefix, Limit: perMinute, Window: time.Minute}
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("redis close failed")
		}
	}
	a.Store.Close()
}
