package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/campusvoice/backend/internal/models"
	"github.com/campusvoice/backend/internal/rules"
	"github.com/campusvoice/backend/internal/utils"
)

// Mock is a deterministic offline provider. Replies depend only on the
// input text, so runs are reproducible without network access.
type Mock struct {
	Dimension int
}

func (m Mock) Name() string {
	return "mock"
}

func (m Mock) Rewrite(ctx context.Context, text string) (string, error) {
	out := strings.Join(strings.Fields(text), " ")
	if out == "" {
		return "", nil
	}
	r := []rune(out)
	r[0] = unicode.ToUpper(r[0])
	out = string(r)
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out, nil
}

// ClassifyCategory prefers the category whose name words occur most often
// in text and otherwise picks one by hash.
func (m Mock) ClassifyCategory(ctx context.Context, text string, categories []string) (string, error) {
	if len(categories) == 0 {
		return "", fmt.Errorf("mock: no categories")
	}
	tokens := map[string]int{}
	for _, t := range rules.Tokenize(text) {
		tokens[t]++
	}
	best, bestScore := "", 0
	for _, c := range categories {
		score := 0
		for _, w := range rules.Tokenize(c) {
			if len(w) > 2 {
				score += tokens[w]
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best != "" {
		return best, nil
	}
	return categories[utils.Bucket(text, len(categories))], nil
}

func (m Mock) ClassifySeverity(ctx context.Context, text string) (string, error) {
	label := models.Severities[utils.Bucket(text, len(models.Severities))]
	return fmt.Sprintf("Severity: %s", label), nil
}

// Embed builds a signed hashed bag-of-words vector, L2 normalized. Texts
// sharing vocabulary land close together.
func (m Mock) Embed(ctx context.Context, text string) ([]float64, error) {
	dim := m.Dimension
	if dim <= 0 {
		dim = 768
	}
	tokens := rules.Tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("mock: nothing to embed")
	}
	vec := make([]float64, dim)
	for _, tok := range tokens {
		i, sign := utils.SignedBucket(tok, dim)
		vec[i] += sign
	}
	utils.Normalize(vec)
	return vec, nil
}
