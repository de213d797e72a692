package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/models"
	"github.com/campusvoice/backend/internal/utils"
)

const DefaultSimilarityThreshold = 0.75

var ErrUnusableEmbedding = errors.New("embedding missing or wrong dimension")

type Assignment struct {
	ClusterID   string  `json:"cluster_id"`
	MemberCount int     `json:"member_count"`
	Created     bool    `json:"created"`
	Similarity  float64 `json:"similarity"`
}

type ClusterAssigner struct {
	Store     db.ClusterStore
	Threshold float64
	Dimension int
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Assign places an embedding into the most similar cluster of the same
// category, or seeds a new cluster when nothing reaches the threshold.
func (a *ClusterAssigner) Assign(ctx context.Context, category string, severity models.Severity, embedding []float64) (Assignment, error) {
	if len(embedding) == 0 || (a.Dimension > 0 && len(embedding) != a.Dimension) {
		return Assignment{}, ErrUnusableEmbedding
	}

	candidates, err := a.Store.ListClusters(ctx, category)
	if err != nil {
		return Assignment{}, fmt.Errorf("list clusters: %w", err)
	}

	idx, sim := BestMatch(candidates, embedding)
	if idx >= 0 && sim >= a.threshold() {
		best := candidates[idx]
		joined, err := a.Store.JoinCluster(ctx, best.ID, db.ClusterJoin{
			Severity: severity,
			Centroid: utils.RunningMean(best.Centroid, embedding, best.MemberCount),
			At:       a.now(),
		})
		if err != nil {
			return Assignment{}, err
		}
		a.Logger.Debug().
			Str("cluster_id", joined.ID).
			Float64("similarity", sim).
			Int("member_count", joined.MemberCount).
			Msg("complaint joined cluster")
		return Assignment{ClusterID: joined.ID, MemberCount: joined.MemberCount, Similarity: sim}, nil
	}

	now := a.now()
	centroid := make([]float64, len(embedding))
	copy(centroid, embedding)
	c := &models.Cluster{
		Name:           ClusterName(category, severity),
		Category:       category,
		Severity:       severity,
		SeverityCounts: models.SeverityCounts{}.Add(severity),
		MemberCount:    1,
		Centroid:       centroid,
		CreatedAt:      now,
		LastUpdated:    now,
	}
	id, err := a.Store.CreateCluster(ctx, c)
	if err != nil {
		return Assignment{}, err
	}
	a.Logger.Debug().Str("cluster_id", id).Str("category", category).Float64("best_similarity", sim).Msg("new cluster created")
	return Assignment{ClusterID: id, MemberCount: 1, Created: true, Similarity: sim}, nil
}

// BestMatch returns the index of the cluster most similar to v, or -1 when
// there are no candidates. Equal similarities go to the most recently
// updated cluster.
func BestMatch(clusters []models.Cluster, v []float64) (int, float64) {
	best, bestSim := -1, 0.0
	for i, c := range clusters {
		sim := utils.CosineSimilarity(c.Centroid, v)
		switch {
		case best < 0, sim > bestSim:
			best, bestSim = i, sim
		case sim == bestSim && c.LastUpdated.After(clusters[best].LastUpdated):
			best = i
		}
	}
	return best, bestSim
}

func ClusterName(category string, severity models.Severity) string {
	return fmt.Sprintf("%s - %s", category, strings.ToUpper(string(severity)))
}

func (a *ClusterAssigner) threshold() float64 {
	if a.Threshold <= 0 {
		return DefaultSimilarityThreshold
	}
	return a.Threshold
}

func (a *ClusterAssigner) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}
