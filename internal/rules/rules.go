package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/campusvoice/backend/internal/models"
)

// MinCriticalTerms is the smallest critical list accepted by Load.
const MinCriticalTerms = 150

//go:embed default_rules.yaml
var defaultRules []byte

type CategoryRule struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

type SeverityRules struct {
	Critical  []string `yaml:"critical"`
	Elevated  []string `yaml:"elevated"`
	Medium    []string `yaml:"medium"`
	Negations []string `yaml:"negations"`
	Scope     []string `yaml:"scope"`
	Duration  []string `yaml:"duration"`
}

type file struct {
	Categories       []CategoryRule `yaml:"categories"`
	FallbackCategory string         `yaml:"fallback_category"`
	Severity         SeverityRules  `yaml:"severity"`
}

// Rules is the compiled, read-only keyword configuration. A single value is
// built at startup and shared by every request.
type Rules struct {
	categories []CategoryRule
	fallback   string

	critical  *Matcher
	elevated  *Matcher
	medium    *Matcher
	scope     *Matcher
	duration  *Matcher
	negations map[string]struct{}

	categoryMatchers []*Matcher
}

// Default returns the embedded rule table.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads a YAML rule table from path, or the embedded table when path
// is empty.
func Load(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Rules, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	r := &Rules{
		categories: f.Categories,
		fallback:   f.FallbackCategory,
		critical:   NewMatcher(f.Severity.Critical),
		elevated:   NewMatcher(f.Severity.Elevated),
		medium:     NewMatcher(f.Severity.Medium),
		scope:      NewMatcher(f.Severity.Scope),
		duration:   NewMatcher(f.Severity.Duration),
		negations:  make(map[string]struct{}, len(f.Severity.Negations)),
	}
	for _, n := range f.Severity.Negations {
		for _, tok := range Tokenize(n) {
			r.negations[tok] = struct{}{}
		}
	}
	for _, c := range f.Categories {
		r.categoryMatchers = append(r.categoryMatchers, NewMatcher(c.Keywords))
	}
	return r, nil
}

func (f file) validate() error {
	if len(f.Categories) == 0 {
		return errors.New("rules: no categories")
	}
	seen := map[string]bool{}
	for _, c := range f.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return errors.New("rules: category without name")
		}
		if seen[strings.ToLower(name)] {
			return fmt.Errorf("rules: duplicate category %q", name)
		}
		seen[strings.ToLower(name)] = true
	}
	if !seen[strings.ToLower(strings.TrimSpace(f.FallbackCategory))] {
		return fmt.Errorf("rules: fallback category %q is not a listed category", f.FallbackCategory)
	}
	if n := NewMatcher(f.Severity.Critical).Len(); n < MinCriticalTerms {
		return fmt.Errorf("rules: critical list has %d distinct terms, need at least %d", n, MinCriticalTerms)
	}
	if NewMatcher(f.Severity.Elevated).Len() == 0 || NewMatcher(f.Severity.Medium).Len() == 0 {
		return errors.New("rules: elevated and medium lists must not be empty")
	}
	return nil
}

func (r *Rules) Categories() []models.Category {
	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, models.Category{Name: c.Name, Description: c.Description})
	}
	return out
}

func (r *Rules) CategoryNames() []string {
	out := make([]string, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c.Name)
	}
	return out
}

func (r *Rules) FallbackCategory() string {
	return r.fallback
}

// CanonicalCategory maps a user or model supplied label onto a configured
// category name: exact match first, then case-insensitive, then a category
// name contained in the label.
func (r *Rules) CanonicalCategory(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	for _, c := range r.categories {
		if c.Name == label {
			return c.Name, true
		}
	}
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, label) {
			return c.Name, true
		}
	}
	lower := strings.ToLower(label)
	for _, c := range r.categories {
		if c.Name == r.fallback {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c.Name, true
		}
	}
	return "", false
}

// KeywordCategory picks the category with the most keyword hits in text.
// Ties go to the category listed first; no hits yields the fallback.
func (r *Rules) KeywordCategory(text string) string {
	tokens := Tokenize(text)
	best, bestHits := r.fallback, 0
	for i, m := range r.categoryMatchers {
		if n := len(m.Match(tokens)); n > bestHits {
			best, bestHits = r.categories[i].Name, n
		}
	}
	return best
}

func (r *Rules) Critical() *Matcher { return r.critical }
func (r *Rules) Elevated() *Matcher { return r.elevated }
func (r *Rules) Medium() *Matcher   { return r.medium }
func (r *Rules) Scope() *Matcher    { return r.scope }
func (r *Rules) Duration() *Matcher { return r.duration }

// Negated reports whether one of the window tokens before position start
// is a negation cue.
func (r *Rules) Negated(tokens []string, start, window int) bool {
	from := start - window
	if from < 0 {
		from = 0
	}
	for _, tok := range tokens[from:start] {
		if _, ok := r.negations[tok]; ok {
			return true
		}
	}
	return false
}
