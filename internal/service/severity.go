package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/ai"
	"github.com/campusvoice/backend/internal/models"
	"github.com/campusvoice/backend/internal/rules"
)

const (
	LayerEmpty        = "empty"
	LayerKeyword      = "keyword"
	LayerClassifier   = "classifier"
	LayerFallback     = "fallback"
	LayerVerification = "verification"

	DefaultEscalationScore    = 7
	DefaultClassifierMaxChars = 2000

	negationWindow  = 3
	maxDensityScore = 6
	longTextTokens  = 60
)

type Assessment struct {
	Severity        models.Severity `json:"severity"`
	Score           int             `json:"score"`
	Layer           string          `json:"layer"`
	RuleSeverity    models.Severity `json:"rule_severity"`
	ClassifierLabel models.Severity `json:"classifier_label,omitempty"`
	Escalated       bool            `json:"escalated"`
	KeywordHits     []string        `json:"keyword_hits,omitempty"`
	Reasons         []string        `json:"reasons"`
}

// Evidence is what the keyword tables say about a text, after negation.
type Evidence struct {
	Critical []string
	Elevated []string
	Medium   []string
	Negated  []string
	Scope    []string
	Duration []string
	Tokens   int
}

type SeverityScorer struct {
	Rules              *rules.Rules
	Classifier         ai.SeverityClassifier
	EscalationScore    int
	ClassifierMaxChars int
	Logger             zerolog.Logger
}

// Score never fails. Classifier errors and unusable replies degrade to the
// keyword heuristic, and no later layer may lower an earlier result.
func (s *SeverityScorer) Score(ctx context.Context, text, category string) Assessment {
	if strings.TrimSpace(text) == "" {
		return Assessment{
			Severity:     models.SeverityLow,
			Layer:        LayerEmpty,
			RuleSeverity: models.SeverityLow,
			Reasons:      []string{"empty text"},
		}
	}

	tokens := rules.Tokenize(text)
	if hit, ok := s.Rules.Critical().First(tokens); ok {
		return Assessment{
			Severity:     models.SeverityHigh,
			Score:        10,
			Layer:        LayerKeyword,
			RuleSeverity: models.SeverityHigh,
			KeywordHits:  []string{hit.Term},
			Reasons:      []string{fmt.Sprintf("critical term %q", hit.Term)},
		}
	}

	ev := s.Evidence(tokens)
	ruleSev := RuleSeverity(ev)
	a := Assessment{
		RuleSeverity: ruleSev,
		KeywordHits:  append(append([]string{}, ev.Elevated...), ev.Medium...),
	}

	label, ok := s.classify(ctx, text, category)
	if ok {
		a.Severity = label
		a.ClassifierLabel = label
		a.Layer = LayerClassifier
		a.Reasons = append(a.Reasons, fmt.Sprintf("classifier said %s", label))
	} else {
		a.Severity = ruleSev
		a.Layer = LayerFallback
		a.Reasons = append(a.Reasons, fmt.Sprintf("keyword heuristic gave %s", ruleSev))
	}

	score, reasons := VerificationScore(ev, a.ClassifierLabel, ruleSev)
	a.Score = score
	a.Reasons = append(a.Reasons, reasons...)
	if score >= s.escalationScore() && a.Severity != models.SeverityHigh {
		s.Logger.Info().
			Int("score", score).
			Str("from", string(a.Severity)).
			Msg("severity escalated by verification")
		a.Severity = models.SeverityHigh
		a.Layer = LayerVerification
		a.Escalated = true
		a.Reasons = append(a.Reasons, fmt.Sprintf("score %d >= %d, escalated to high", score, s.escalationScore()))
	}

	if floor, violated := enforceFloor(a.Severity, a.ClassifierLabel, ruleSev); violated {
		s.Logger.Warn().
			Str("severity", string(a.Severity)).
			Str("floor", string(floor)).
			Msg("severity below keyword evidence, raised")
		a.Severity = floor
		a.Reasons = append(a.Reasons, fmt.Sprintf("raised to floor %s", floor))
	}
	return a
}

func (s *SeverityScorer) classify(ctx context.Context, text, category string) (models.Severity, bool) {
	if s.Classifier == nil {
		return "", false
	}
	prompt := ai.Truncate(text, s.maxChars())
	// Only a configured category reaches the prompt.
	if name, ok := s.Rules.CanonicalCategory(category); ok {
		prompt = fmt.Sprintf("Category: %s\nComplaint: %s", name, prompt)
	}
	reply, err := s.Classifier.ClassifySeverity(ctx, prompt)
	if err != nil {
		s.Logger.Warn().Err(err).Str("layer", LayerClassifier).Msg("severity classifier failed, using keyword heuristic")
		return "", false
	}
	label, ok := ai.ParseSeverityReply(reply)
	if !ok {
		s.Logger.Warn().Str("layer", LayerClassifier).Str("reply", ai.Truncate(reply, 80)).Msg("unparsable severity reply, using keyword heuristic")
		return "", false
	}
	return label, true
}

func (s *SeverityScorer) escalationScore() int {
	if s.EscalationScore <= 0 {
		return DefaultEscalationScore
	}
	return s.EscalationScore
}

func (s *SeverityScorer) maxChars() int {
	if s.ClassifierMaxChars <= 0 {
		return DefaultClassifierMaxChars
	}
	return s.ClassifierMaxChars
}

// Evidence collects keyword hits from already tokenized text. Elevated and
// medium hits preceded by a negation cue go to Negated instead.
func (s *SeverityScorer) Evidence(tokens []string) Evidence {
	ev := Evidence{Tokens: len(tokens)}
	for _, h := range s.Rules.Critical().Match(tokens) {
		ev.Critical = append(ev.Critical, h.Term)
	}
	for _, h := range s.Rules.Elevated().Match(tokens) {
		if s.Rules.Negated(tokens, h.Start, negationWindow) {
			ev.Negated = append(ev.Negated, h.Term)
			continue
		}
		ev.Elevated = append(ev.Elevated, h.Term)
	}
	for _, h := range s.Rules.Medium().Match(tokens) {
		if s.Rules.Negated(tokens, h.Start, negationWindow) {
			ev.Negated = append(ev.Negated, h.Term)
			continue
		}
		ev.Medium = append(ev.Medium, h.Term)
	}
	for _, h := range s.Rules.Scope().Match(tokens) {
		ev.Scope = append(ev.Scope, h.Term)
	}
	for _, h := range s.Rules.Duration().Match(tokens) {
		ev.Duration = append(ev.Duration, h.Term)
	}
	return ev
}

// RuleSeverity is the deterministic keyword-count heuristic.
func RuleSeverity(ev Evidence) models.Severity {
	switch {
	case len(ev.Critical) > 0:
		return models.SeverityHigh
	case len(ev.Elevated) >= 2:
		return models.SeverityHigh
	case len(ev.Elevated) >= 1 || len(ev.Medium) >= 1:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// VerificationScore rates the keyword evidence on a 0..10 scale. A
// classifier label below the rule severity adds a point, since the two
// layers disagree in the unsafe direction.
func VerificationScore(ev Evidence, classified, rule models.Severity) (int, []string) {
	var reasons []string

	density := 2*len(ev.Elevated) + len(ev.Medium)
	if density > maxDensityScore {
		density = maxDensityScore
	}
	score := density
	if density > 0 {
		reasons = append(reasons, fmt.Sprintf("keyword density +%d (%d elevated, %d medium)", density, len(ev.Elevated), len(ev.Medium)))
	}
	if len(ev.Negated) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d negated hits ignored", len(ev.Negated)))
	}
	if len(ev.Scope) > 0 {
		score += 2
		reasons = append(reasons, fmt.Sprintf("scope %q +2", ev.Scope[0]))
	}
	if len(ev.Duration) > 0 {
		score++
		reasons = append(reasons, fmt.Sprintf("duration %q +1", ev.Duration[0]))
	}
	if ev.Tokens >= longTextTokens {
		score++
		reasons = append(reasons, "detailed report +1")
	}
	if classified != "" && classified.Rank() < rule.Rank() {
		score++
		reasons = append(reasons, fmt.Sprintf("classifier %s below keyword evidence %s +1", classified, rule))
	}
	if score > 10 {
		score = 10
	}
	return score, reasons
}

// enforceFloor raises got to the highest of the layer results that were
// produced and reports whether it had to.
func enforceFloor(got models.Severity, floors ...models.Severity) (models.Severity, bool) {
	out := got
	for _, f := range floors {
		out = models.MaxSeverity(out, f)
	}
	return out, out.Rank() > got.Rank()
}
