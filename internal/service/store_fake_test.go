package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/models"
)

// memStore is an in-memory stand-in for the SQL stores.
type memStore struct {
	mu         sync.Mutex
	complaints []models.Complaint
	clusters   map[string]models.Cluster
	failCreate error
	failList   error
}

func newMemStore() *memStore {
	return &memStore{clusters: map[string]models.Cluster{}}
}

func (s *memStore) CreateComplaint(ctx context.Context, c *models.Complaint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return "", s.failCreate
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	cp.Embedding = append([]float64(nil), c.Embedding...)
	s.complaints = append(s.complaints, cp)
	return c.ID, nil
}

func (s *memStore) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Complaint{}, db.ErrNotFound
}

func (s *memStore) ListComplaints(ctx context.Context, f db.ComplaintFilter) ([]models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Complaint
	for i := len(s.complaints) - 1; i >= 0; i-- {
		c := s.complaints[i]
		if f.ClusterID != "" && (c.ClusterID == nil || *c.ClusterID != f.ClusterID) {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) IncrementUpvote(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.complaints {
		if s.complaints[i].ID == id {
			s.complaints[i].Upvotes++
			return s.complaints[i].Upvotes, nil
		}
	}
	return 0, db.ErrNotFound
}

func (s *memStore) ListClusters(ctx context.Context, category string) ([]models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.Cluster
	for _, c := range s.clusters {
		if category == "" || c.Category == category {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	return out, nil
}

func (s *memStore) GetCluster(ctx context.Context, id string) (models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[id]
	if !ok {
		return models.Cluster{}, db.ErrNotFound
	}
	return c, nil
}

func (s *memStore) CreateCluster(ctx context.Context, c *models.Cluster) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.clusters[c.ID] = *c
	return c.ID, nil
}

func (s *memStore) JoinCluster(ctx context.Context, id string, j db.ClusterJoin) (models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[id]
	if !ok {
		return models.Cluster{}, db.ErrNotFound
	}
	c.MemberCount++
	c.SeverityCounts = c.SeverityCounts.Add(j.Severity)
	c.Severity = c.SeverityCounts.Dominant()
	c.Centroid = j.Centroid
	c.LastUpdated = j.At
	s.clusters[id] = c
	return c, nil
}

func (s *memStore) Stats(ctx context.Context, since time.Time) (db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := db.Stats{BySeverity: map[models.Severity]int{}, ByCategory: map[string]int{}, Clusters: len(s.clusters)}
	for _, c := range s.complaints {
		st.Total++
		st.BySeverity[c.Severity]++
		st.ByCategory[c.Category]++
		if !c.CreatedAt.Before(since) {
			st.Recent++
		}
	}
	return st, nil
}

func (s *memStore) TopClusters(ctx context.Context, limit int) ([]models.Cluster, error) {
	all, _ := s.ListClusters(ctx, "")
	sort.SliceStable(all, func(i, j int) bool { return all[i].MemberCount > all[j].MemberCount })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *memStore) TrendingClusters(ctx context.Context, since time.Time, limit int) ([]models.ClusterActivity, error) {
	s.mu.Lock()
	recent := map[string]int{}
	for _, c := range s.complaints {
		if c.ClusterID != nil && !c.CreatedAt.Before(since) {
			recent[*c.ClusterID]++
		}
	}
	var out []models.ClusterActivity
	for id, n := range recent {
		out = append(out, models.ClusterActivity{Cluster: s.clusters[id], RecentCount: n})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RecentCount > out[j].RecentCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
