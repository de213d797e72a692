package rules

import (
	"strings"
	"unicode"
)

// Hit is one matched term and the token position where it starts.
type Hit struct {
	Term  string
	Start int
}

type term struct {
	raw    string
	words  []string
	prefix bool
}

// Matcher finds phrase terms in tokenized text on word boundaries.
type Matcher struct {
	terms []term
}

// NewMatcher drops blank terms and terms that tokenize the same as an
// earlier one.
func NewMatcher(terms []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool, len(terms))
	for _, raw := range terms {
		raw = strings.TrimSpace(raw)
		prefix := strings.HasSuffix(raw, "*")
		words := Tokenize(strings.TrimSuffix(raw, "*"))
		if len(words) == 0 {
			continue
		}
		key := strings.Join(words, " ")
		if prefix {
			key += "*"
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		m.terms = append(m.terms, term{raw: raw, words: words, prefix: prefix})
	}
	return m
}

func (m *Matcher) Len() int {
	return len(m.terms)
}

// Match returns every occurrence of every term in tokens, in term order.
func (m *Matcher) Match(tokens []string) []Hit {
	var hits []Hit
	for _, t := range m.terms {
		for i := 0; i+len(t.words) <= len(tokens); i++ {
			if t.matchAt(tokens, i) {
				hits = append(hits, Hit{Term: t.raw, Start: i})
			}
		}
	}
	return hits
}

// First returns the first term found in tokens.
func (m *Matcher) First(tokens []string) (Hit, bool) {
	for _, t := range m.terms {
		for i := 0; i+len(t.words) <= len(tokens); i++ {
			if t.matchAt(tokens, i) {
				return Hit{Term: t.raw, Start: i}, true
			}
		}
	}
	return Hit{}, false
}

func (m *Matcher) Any(tokens []string) bool {
	_, ok := m.First(tokens)
	return ok
}

func (t term) matchAt(tokens []string, at int) bool {
	last := len(t.words) - 1
	for j, w := range t.words {
		tok := tokens[at+j]
		if j == last && t.prefix {
			if !strings.HasPrefix(tok, w) {
				return false
			}
			continue
		}
		if tok != w {
			return false
		}
	}
	return true
}

// Tokenize lowercases text and splits it into letter/digit runs.
// Apostrophes are dropped so "can't" becomes "cant".
func Tokenize(text string) []string {
	var (
		tokens []string
		b      strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
		default:
			flush()
		}
	}
	flush()
	return tokens
}
