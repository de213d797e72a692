package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Dimension      int
	Timeout        time.Duration
}

type Gemini struct {
	client         *genai.Client
	model          string
	embeddingModel string
	dimension      int
	cache          *rewriteCache
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimension:      cfg.Dimension,
		cache:          newRewriteCache(5*time.Minute, 512),
	}, nil
}

func (g *Gemini) Name() string {
	return "gemini:" + g.model
}

func (g *Gemini) Rewrite(ctx context.Context, text string) (string, error) {
	if v, ok := g.cache.get(text); ok {
		return v, nil
	}
	out, err := g.generate(ctx, rewriteInstruction, text, 0.2, nil)
	if err != nil {
		return "", err
	}
	g.cache.set(text, out)
	return out, nil
}

func (g *Gemini) ClassifyCategory(ctx context.Context, text string, categories []string) (string, error) {
	return g.generate(ctx, categoryInstruction(categories), text, 0, &genai.Schema{
		Type: genai.TypeString,
		Enum: categories,
	})
}

func (g *Gemini) ClassifySeverity(ctx context.Context, text string) (string, error) {
	return g.generate(ctx, severityInstruction, text, 0, nil)
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "CLUSTERING"}
	if g.dimension > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(g.dimension))
	}
	res, err := g.client.Models.EmbedContent(ctx, g.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, g.wrap("embed", err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, errors.New("gemini: no embeddings returned")
	}
	values := res.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func (g *Gemini) generate(ctx context.Context, instruction, text string, temperature float32, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
		MaxOutputTokens:   1024,
	}
	if schema != nil {
		cfg.ResponseMIMEType = "text/x.enum"
		cfg.ResponseSchema = schema
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), cfg)
	if err != nil {
		return "", g.wrap("generate", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}

func (g *Gemini) wrap(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return RateLimitError{Provider: "gemini", RetryAfter: retryInfoDelay(apiErr.Details)}
	}
	return fmt.Errorf("gemini %s: %w", op, err)
}
