package ai

import (
	"context"
	"fmt"
	"strings"
)

type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// CategoryClassifier returns a free-form label the caller maps onto one of
// categories.
type CategoryClassifier interface {
	ClassifyCategory(ctx context.Context, text string, categories []string) (string, error)
}

// SeverityClassifier returns the raw model reply; see ParseSeverityReply.
type SeverityClassifier interface {
	ClassifySeverity(ctx context.Context, text string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Provider interface {
	Rewriter
	CategoryClassifier
	SeverityClassifier
	Embedder
	Name() string
}

type Config struct {
	Provider  string
	Dimension int
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
}

// New builds the provider named by cfg.Provider. An empty name selects the
// offline mock.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return Mock{Dimension: cfg.Dimension}, nil
	case "gemini":
		cfg.Gemini.Dimension = cfg.Dimension
		g, err := NewGemini(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		cfg.OpenAI.Dimension = cfg.Dimension
		o, err := NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}
}
