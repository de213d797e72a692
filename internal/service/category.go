package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/ai"
	"github.com/campusvoice/backend/internal/rules"
)

const (
	CategorySubmitted  = "submitted"
	CategoryClassifier = "classifier"
	CategoryKeyword    = "keyword"
)

type CategoryResult struct {
	Category string `json:"category"`
	Source   string `json:"source"`
}

type Categorizer struct {
	Rules  *rules.Rules
	AI     ai.CategoryClassifier
	Logger zerolog.Logger
}

// Categorize keeps a submitted category when it names a configured one,
// otherwise asks the model and finally falls back to keyword matching.
func (c *Categorizer) Categorize(ctx context.Context, text, submitted string) CategoryResult {
	if name, ok := c.Rules.CanonicalCategory(submitted); ok {
		return CategoryResult{Category: name, Source: CategorySubmitted}
	}
	if c.AI != nil {
		label, err := c.AI.ClassifyCategory(ctx, text, c.Rules.CategoryNames())
		if err != nil {
			c.Logger.Warn().Err(err).Str("layer", "category").Msg("category classifier failed, using keywords")
		} else if name, ok := c.Rules.CanonicalCategory(label); ok {
			return CategoryResult{Category: name, Source: CategoryClassifier}
		} else {
			c.Logger.Warn().Str("layer", "category").Str("reply", ai.Truncate(label, 80)).Msg("unknown category label, using keywords")
		}
	}
	return CategoryResult{Category: c.Rules.KeywordCategory(text), Source: CategoryKeyword}
}
