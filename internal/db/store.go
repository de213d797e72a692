package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusvoice/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ComplaintFilter struct {
	Category  string
	Severity  models.Severity
	ClusterID string
	UserID    string
	Limit     int
	Offset    int
}

func (f ComplaintFilter) normalized() ComplaintFilter {
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ClusterJoin carries the values written when a complaint joins a cluster.
// The member count itself is incremented by the store.
type ClusterJoin struct {
	Severity models.Severity
	Centroid []float64
	At       time.Time
}

type Stats struct {
	Total      int
	BySeverity map[models.Severity]int
	ByCategory map[string]int
	Clusters   int
	Recent     int
}

type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) (string, error)
	GetComplaint(ctx context.Context, id string) (models.Complaint, error)
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	IncrementUpvote(ctx context.Context, id string) (int, error)
}

// ClusterStore is the persistence side of online clustering.
type ClusterStore interface {
	ListClusters(ctx context.Context, category string) ([]models.Cluster, error)
	GetCluster(ctx context.Context, id string) (models.Cluster, error)
	CreateCluster(ctx context.Context, c *models.Cluster) (string, error)
	JoinCluster(ctx context.Context, id string, j ClusterJoin) (models.Cluster, error)
}

type StatsReader interface {
	Stats(ctx context.Context, since time.Time) (Stats, error)
	TopClusters(ctx context.Context, limit int) ([]models.Cluster, error)
	TrendingClusters(ctx context.Context, since time.Time, limit int) ([]models.ClusterActivity, error)
}

type Store interface {
	ComplaintStore
	ClusterStore
	StatsReader
	SeedCategories(ctx context.Context, cats []models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// Open picks a backend by driver name.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string) (Store, error) {
	switch driver {
	case "", "postgres":
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		s, err := NewPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func newStats() Stats {
	s := Stats{
		BySeverity: map[models.Severity]int{},
		ByCategory: map[string]int{},
	}
	for _, sev := range models.Severities {
		s.BySeverity[sev] = 0
	}
	return s
}
