package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/cache"
	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/models"
)

const (
	statsCacheKey      = "dashboard:stats"
	recentWindow       = 7 * 24 * time.Hour
	topCategoriesLimit = 5
	topClustersLimit   = 20
	latestLimit        = 10

	DefaultTrendingDays = 7
	MaxTrendingDays     = 365
)

type DashboardStore interface {
	db.StatsReader
	ListComplaints(ctx context.Context, f db.ComplaintFilter) ([]models.Complaint, error)
	GetCluster(ctx context.Context, id string) (models.Cluster, error)
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type DashboardStats struct {
	TotalComplaints  int                     `json:"total_complaints"`
	BySeverity       map[models.Severity]int `json:"by_severity"`
	ByCategory       map[string]int          `json:"by_category"`
	TotalClusters    int                     `json:"total_clusters"`
	RecentComplaints int                     `json:"recent_complaints"`
	TopCategories    []CategoryCount         `json:"top_categories"`
	TopClusters      []models.Cluster        `json:"top_clusters"`
	Latest           []models.Complaint      `json:"latest"`
	GeneratedAt      time.Time               `json:"generated_at"`
}

type ClusterDetail struct {
	Cluster models.Cluster     `json:"cluster"`
	Members []models.Complaint `json:"members"`
}

// Dashboard is the read side. It never writes complaint or cluster data.
type Dashboard struct {
	Store  DashboardStore
	Cache  *cache.JSONCache
	Logger zerolog.Logger
	Now    func() time.Time
}

func (d *Dashboard) Stats(ctx context.Context) (DashboardStats, error) {
	if b, ok, err := d.Cache.Get(ctx, statsCacheKey); err != nil {
		d.Logger.Warn().Err(err).Msg("stats cache read failed")
	} else if ok {
		var cached DashboardStats
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	now := d.now()
	st, err := d.Store.Stats(ctx, now.Add(-recentWindow))
	if err != nil {
		return DashboardStats{}, fmt.Errorf("stats: %w", err)
	}
	top, err := d.Store.TopClusters(ctx, topClustersLimit)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("top clusters: %w", err)
	}
	latest, err := d.Store.ListComplaints(ctx, db.ComplaintFilter{Limit: latestLimit})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("latest complaints: %w", err)
	}

	out := DashboardStats{
		TotalComplaints:  st.Total,
		BySeverity:       map[models.Severity]int{},
		ByCategory:       map[string]int{},
		TotalClusters:    st.Clusters,
		RecentComplaints: st.Recent,
		TopCategories:    TopCategories(st.ByCategory, topCategoriesLimit),
		TopClusters:      nonNil(top),
		Latest:           nonNil(latest),
		GeneratedAt:      now,
	}
	for _, sev := range models.Severities {
		out.BySeverity[sev] = st.BySeverity[sev]
	}
	for cat, n := range st.ByCategory {
		if n > 0 {
			out.ByCategory[cat] = n
		}
	}

	if b, err := json.Marshal(out); err == nil {
		if err := d.Cache.Set(ctx, statsCacheKey, b); err != nil {
			d.Logger.Warn().Err(err).Msg("stats cache write failed")
		}
	}
	return out, nil
}

// Trending ranks clusters by members created in the last days.
func (d *Dashboard) Trending(ctx context.Context, days, limit int) ([]models.ClusterActivity, error) {
	days = ClampTrendingDays(days)
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	since := d.now().Add(-time.Duration(days) * 24 * time.Hour)
	out, err := d.Store.TrendingClusters(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("trending clusters: %w", err)
	}
	return nonNil(out), nil
}

// ClampTrendingDays maps a requested window onto 1..MaxTrendingDays,
// defaulting non-positive values.
func ClampTrendingDays(days int) int {
	switch {
	case days <= 0:
		return DefaultTrendingDays
	case days > MaxTrendingDays:
		return MaxTrendingDays
	}
	return days
}

func (d *Dashboard) Clusters(ctx context.Context, limit int) ([]models.Cluster, error) {
	if limit <= 0 || limit > 200 {
		limit = topClustersLimit
	}
	out, err := d.Store.TopClusters(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (d *Dashboard) ClusterDetail(ctx context.Context, id string, members int) (ClusterDetail, error) {
	c, err := d.Store.GetCluster(ctx, id)
	if err != nil {
		return ClusterDetail{}, err
	}
	list, err := d.Store.ListComplaints(ctx, db.ComplaintFilter{ClusterID: id, Limit: members})
	if err != nil {
		return ClusterDetail{}, err
	}
	return ClusterDetail{Cluster: c, Members: nonNil(list)}, nil
}

// TopCategories orders non-zero counts by size, then name.
func TopCategories(counts map[string]int, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		if n > 0 {
			out = append(out, CategoryCount{Category: cat, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Category < out[j].Category
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (d *Dashboard) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
