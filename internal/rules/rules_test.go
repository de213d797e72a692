package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultRulesLoad(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	if r.Critical().Len() < MinCriticalTerms {
		t.Fatalf("expected at least %d critical terms, got %d", MinCriticalTerms, r.Critical().Len())
	}
	if r.FallbackCategory() != "Other" {
		t.Fatalf("unexpected fallback %q", r.FallbackCategory())
	}
	if len(r.Categories()) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(r.Categories()))
	}
}

func TestCriticalMatchWordBoundary(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		text string
		want bool
	}{
		{"Student collapsed and was rushed to the hospital", true},
		{"He was HOSPITALIZED last night.", true},
		{"There is a fire in the lab", true},
		{"No water in our hostel for 3 days now", true},
		{"The ratio of teachers to students is low", false},
		{"The library could use better lighting", false},
		{"Firewall blocks the course portal", false},
		{"The vending machine was out of stock", false},
	}
	for _, tc := range cases {
		got := r.Critical().Any(Tokenize(tc.text))
		if got != tc.want {
			t.Errorf("critical(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := strings.Join(Tokenize("Can't  use Wi-Fi; it's DOWN!"), "|")
	if got != "cant|use|wi|fi|its|down" {
		t.Fatalf("unexpected tokens %q", got)
	}
}

func TestMatcherPrefixOnlyOnLastWord(t *testing.T) {
	m := NewMatcher([]string{"gas leak*"})
	if !m.Any(Tokenize("there is a gas leakage near block B")) {
		t.Fatal("expected prefix match")
	}
	if m.Any(Tokenize("gasoline leaks")) {
		t.Fatal("first word must match exactly")
	}
}

func TestNegated(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	tokens := Tokenize("the tap is not really leaking anymore")
	hits := r.Elevated().Match(tokens)
	if len(hits) != 1 {
		t.Fatalf("expected one elevated hit, got %v", hits)
	}
	if !r.Negated(tokens, hits[0].Start, 3) {
		t.Fatal("expected hit to be negated")
	}
	tokens = Tokenize("the tap is leaking")
	hits = r.Elevated().Match(tokens)
	if len(hits) != 1 || r.Negated(tokens, hits[0].Start, 3) {
		t.Fatalf("unexpected negation result for %v", hits)
	}
}

func TestCanonicalCategory(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]string{
		"Campus Wi-Fi":                  "Campus Wi-Fi",
		"campus wi-fi":                  "Campus Wi-Fi",
		"Category: Hostel Maintenance.": "Hostel Maintenance",
	}
	for in, want := range cases {
		got, ok := r.CanonicalCategory(in)
		if !ok || got != want {
			t.Errorf("CanonicalCategory(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := r.CanonicalCategory("Parking"); ok {
		t.Fatal("unknown label must not resolve")
	}
}

func TestKeywordCategory(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if got := r.KeywordCategory("WiFi in Block C keeps dropping, the internet is unusable"); got != "Campus Wi-Fi" {
		t.Fatalf("got %q", got)
	}
	if got := r.KeywordCategory("The parking lot needs more shade"); got != "Other" {
		t.Fatalf("got %q", got)
	}
}

func TestLoadRejectsShortCriticalList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
categories:
  - name: Other
fallback_category: Other
severity:
  critical: [fire]
  elevated: [broken]
  medium: [slow]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseCountsDistinctCriticalTerms(t *testing.T) {
	rulesWith := func(critical []string) []byte {
		quoted := make([]string, len(critical))
		for i, c := range critical {
			quoted[i] = `"` + c + `"`
		}
		return []byte(`
categories:
  - name: Other
fallback_category: Other
severity:
  critical: [` + strings.Join(quoted, ", ") + `]
  elevated: [broken]
  medium: [slow]
`)
	}

	var padded []string
	for i := 0; i < MinCriticalTerms; i++ {
		switch i % 3 {
		case 0:
			padded = append(padded, "fire")
		case 1:
			padded = append(padded, "  ")
		default:
			padded = append(padded, "FIRE")
		}
	}
	if _, err := Parse(rulesWith(padded)); err == nil {
		t.Fatal("expected blanks and repeats to fail validation")
	}

	distinct := make([]string, MinCriticalTerms)
	for i := range distinct {
		distinct[i] = fmt.Sprintf("hazard%d", i)
	}
	r, err := Parse(rulesWith(distinct))
	if err != nil {
		t.Fatal(err)
	}
	if r.Critical().Len() != MinCriticalTerms {
		t.Fatalf("critical terms = %d, want %d", r.Critical().Len(), MinCriticalTerms)
	}
}

func TestNewMatcherDropsDuplicates(t *testing.T) {
	m := NewMatcher([]string{"leak*", "Leak*", " ", "leak", "gas  leak", "gas leak"})
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	if hits := m.Match(Tokenize("a leaking pipe")); len(hits) != 1 {
		t.Fatalf("hits = %v, want one", hits)
	}
}

func TestLoadEmptyPathUsesEmbedded(t *testing.T) {
	r, err := Load("  ")
	if err != nil {
		t.Fatal(err)
	}
	if r.Critical().Len() == 0 {
		t.Fatal("expected embedded rules")
	}
}
