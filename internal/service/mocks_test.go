package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/campusvoice/backend/internal/rules"
)

func TestMain(m *testing.M) {
	// genai's transitive opencensus dependency starts a view worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock-test" }

func (m *mockProvider) Rewrite(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ClassifyCategory(ctx context.Context, text string, categories []string) (string, error) {
	args := m.Called(ctx, text, categories)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ClassifySeverity(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float64)
	return v, args.Error(1)
}

// stubEmbedder returns fixed vectors per text.
type stubEmbedder map[string][]float64

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := s[text]; ok {
		return v, nil
	}
	return nil, context.DeadlineExceeded
}

func testRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	return r
}

func newScorer(t *testing.T, classifier *mockProvider) *SeverityScorer {
	s := &SeverityScorer{
		Rules:  testRules(t),
		Logger: zerolog.Nop(),
	}
	if classifier != nil {
		s.Classifier = classifier
	}
	return s
}
