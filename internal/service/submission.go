package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/campusvoice/backend/internal/ai"
	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/models"
)

const (
	FallbackRewrite   = "rewrite"
	FallbackCategory  = "category"
	FallbackSeverity  = "severity"
	FallbackEmbedding = "embedding"
	FallbackCluster   = "cluster"
)

var ErrEmptyComplaint = errors.New("complaint text is empty")

type SubmitRequest struct {
	Text      string
	Category  string
	UserID    *string
	Anonymous bool
}

type SubmitResult struct {
	Complaint      models.Complaint `json:"complaint"`
	Assessment     Assessment       `json:"assessment"`
	CategorySource string           `json:"category_source"`
	Assignment     *Assignment      `json:"assignment,omitempty"`
	Fallbacks      []string         `json:"fallbacks,omitempty"`
}

type SubmissionService struct {
	Store       db.ComplaintStore
	Rewriter    ai.Rewriter
	Embedder    ai.Embedder
	Scorer      *SeverityScorer
	Categorizer *Categorizer
	Assigner    *ClusterAssigner
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Submit runs one complaint through rewrite, severity and category
// (concurrently), embedding and clustering, then stores it. Only a storage
// failure is returned as an error; every model failure degrades.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	raw := strings.TrimSpace(req.Text)
	if raw == "" {
		return SubmitResult{}, ErrEmptyComplaint
	}
	var res SubmitResult

	rewritten := s.rewrite(ctx, raw)
	if rewritten == "" {
		rewritten = raw
		res.Fallbacks = append(res.Fallbacks, FallbackRewrite)
	}

	var (
		assessment Assessment
		category   CategoryResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		assessment = s.Scorer.Score(gctx, raw, req.Category)
		return nil
	})
	g.Go(func() error {
		category = s.Categorizer.Categorize(gctx, rewritten, req.Category)
		return nil
	})
	_ = g.Wait()
	if assessment.Layer == LayerFallback {
		res.Fallbacks = append(res.Fallbacks, FallbackSeverity)
	}
	if category.Source == CategoryKeyword {
		res.Fallbacks = append(res.Fallbacks, FallbackCategory)
	}

	embedding := s.embed(ctx, rewritten)
	var clusterID *string
	if embedding == nil {
		res.Fallbacks = append(res.Fallbacks, FallbackEmbedding, FallbackCluster)
	} else {
		a, err := s.Assigner.Assign(ctx, category.Category, assessment.Severity, embedding)
		if err != nil {
			s.Logger.Warn().Err(err).Str("layer", "cluster").Msg("cluster assignment failed, storing without cluster")
			res.Fallbacks = append(res.Fallbacks, FallbackCluster)
		} else {
			res.Assignment = &a
			id := a.ClusterID
			clusterID = &id
		}
	}

	c := models.Complaint{
		UserID:        req.UserID,
		Anonymous:     req.Anonymous,
		RawText:       raw,
		RewrittenText: rewritten,
		Category:      category.Category,
		Severity:      assessment.Severity,
		SeverityScore: assessment.Score,
		SeverityLayer: assessment.Layer,
		Embedding:     embedding,
		ClusterID:     clusterID,
		CreatedAt:     s.now(),
	}
	if req.Anonymous {
		c.UserID = nil
	}
	if _, err := s.Store.CreateComplaint(ctx, &c); err != nil {
		return SubmitResult{}, fmt.Errorf("store complaint: %w", err)
	}

	s.Logger.Info().
		Str("complaint_id", c.ID).
		Str("category", c.Category).
		Str("severity", string(c.Severity)).
		Str("layer", c.SeverityLayer).
		Bool("clustered", c.ClusterID != nil).
		Strs("fallbacks", res.Fallbacks).
		Msg("complaint stored")

	res.Complaint = c
	res.Assessment = assessment
	res.CategorySource = category.Source
	return res, nil
}

// Rewrite previews the formal version of text; it falls back to the input.
func (s *SubmissionService) Rewrite(ctx context.Context, text string) (string, bool) {
	text = strings.TrimSpace(text)
	out := s.rewrite(ctx, text)
	if out == "" {
		return text, false
	}
	return out, true
}

func (s *SubmissionService) rewrite(ctx context.Context, text string) string {
	if s.Rewriter == nil {
		return ""
	}
	out, err := s.Rewriter.Rewrite(ctx, text)
	if err != nil {
		s.Logger.Warn().Err(err).Str("layer", "rewrite").Msg("rewrite failed, keeping original text")
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *SubmissionService) embed(ctx context.Context, text string) []float64 {
	if s.Embedder == nil {
		return nil
	}
	v, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		s.Logger.Warn().Err(err).Str("layer", "embedding").Msg("embedding failed, skipping clustering")
		return nil
	}
	if len(v) == 0 || (s.Assigner != nil && s.Assigner.Dimension > 0 && len(v) != s.Assigner.Dimension) {
		s.Logger.Warn().Int("length", len(v)).Str("layer", "embedding").Msg("unexpected embedding length, skipping clustering")
		return nil
	}
	return v
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
