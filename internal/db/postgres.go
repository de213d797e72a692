package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/backend/internal/models"
)

const (
	complaintColumns = `id, user_id, anonymous, raw_text, rewritten_text, category, severity,
		severity_score, severity_layer, embedding, cluster_id, upvotes, created_at`
	clusterColumns = `id, name, category, severity, count_low, count_medium, count_high,
		member_count, centroid, created_at, last_updated`
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() {
	s.Pool.Close()
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Postgres) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) SeedCategories(ctx context.Context, cats []models.Category) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for i, c := range cats {
			_, err := tx.Exec(ctx, `
				INSERT INTO categories (name, description, position) VALUES ($1, $2, $3)
				ON CONFLICT (name) DO UPDATE SET
					description = EXCLUDED.description,
					position = EXCLUDED.position
			`, c.Name, c.Description, i)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (s *Postgres) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, description FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateComplaint(ctx context.Context, c *models.Complaint) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, c.ID, c.UserID, c.Anonymous, c.RawText, c.RewrittenText, c.Category, string(c.Severity),
		c.SeverityScore, c.SeverityLayer, c.Embedding, c.ClusterID, c.Upvotes, c.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert complaint: %w", err)
	}
	return c.ID, nil
}

func (s *Postgres) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	c, err := scanPgComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Complaint{}, ErrNotFound
	}
	return c, err
}

func (s *Postgres) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	f = f.normalized()
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	var args []any
	var wheres []string
	if f.Category != "" {
		args = append(args, f.Category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		wheres = append(wheres, fmt.Sprintf("severity = $%d", len(args)))
	}
	if f.ClusterID != "" {
		args = append(args, f.ClusterID)
		wheres = append(wheres, fmt.Sprintf("cluster_id = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		wheres = append(wheres, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		c, err := scanPgComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) IncrementUpvote(ctx context.Context, id string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `UPDATE complaints SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

func (s *Postgres) ListClusters(ctx context.Context, category string) ([]models.Cluster, error) {
	query := `SELECT ` + clusterColumns + ` FROM clusters`
	var args []any
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY last_updated DESC, id`
	return s.queryClusters(ctx, query, args...)
}

func (s *Postgres) GetCluster(ctx context.Context, id string) (models.Cluster, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+clusterColumns+` FROM clusters WHERE id = $1`, id)
	c, err := scanPgCluster(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cluster{}, ErrNotFound
	}
	return c, err
}

func (s *Postgres) CreateCluster(ctx context.Context, c *models.Cluster) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = c.CreatedAt
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO clusters (`+clusterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, c.ID, c.Name, c.Category, string(c.Severity), c.SeverityCounts.Low, c.SeverityCounts.Medium,
		c.SeverityCounts.High, c.MemberCount, c.Centroid, c.CreatedAt, c.LastUpdated)
	if err != nil {
		return "", fmt.Errorf("insert cluster: %w", err)
	}
	return c.ID, nil
}

// JoinCluster increments the member and severity counters in one statement,
// then stores the recomputed dominant severity. The centroid is written as
// given by the caller.
func (s *Postgres) JoinCluster(ctx context.Context, id string, j ClusterJoin) (models.Cluster, error) {
	var out models.Cluster
	low, medium, high := severityDelta(j.Severity)
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE clusters SET
				member_count = member_count + 1,
				count_low = count_low + $2,
				count_medium = count_medium + $3,
				count_high = count_high + $4,
				centroid = $5,
				last_updated = $6
			WHERE id = $1
			RETURNING `+clusterColumns,
			id, low, medium, high, j.Centroid, j.At)
		c, err := scanPgCluster(row)
		if err != nil {
			return err
		}
		c.Severity = c.SeverityCounts.Dominant()
		if _, err := tx.Exec(ctx, `UPDATE clusters SET severity = $2 WHERE id = $1`, id, string(c.Severity)); err != nil {
			return err
		}
		out = c
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cluster{}, ErrNotFound
	}
	if err != nil {
		return models.Cluster{}, fmt.Errorf("join cluster: %w", err)
	}
	return out, nil
}

func (s *Postgres) TopClusters(ctx context.Context, limit int) ([]models.Cluster, error) {
	return s.queryClusters(ctx, `SELECT `+clusterColumns+` FROM clusters
		ORDER BY member_count DESC, last_updated DESC LIMIT $1`, limit)
}

func (s *Postgres) TrendingClusters(ctx context.Context, since time.Time, limit int) ([]models.ClusterActivity, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT c.id, c.name, c.category, c.severity, c.count_low, c.count_medium, c.count_high,
			c.member_count, c.centroid, c.created_at, c.last_updated, COUNT(m.id) AS recent
		FROM clusters c
		JOIN complaints m ON m.cluster_id = c.id
		WHERE m.created_at >= $1
		GROUP BY c.id
		ORDER BY recent DESC, c.member_count DESC, c.last_updated DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClusterActivity
	for rows.Next() {
		var (
			a   models.ClusterActivity
			sev string
		)
		c := &a.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &sev, &c.SeverityCounts.Low, &c.SeverityCounts.Medium,
			&c.SeverityCounts.High, &c.MemberCount, &c.Centroid, &c.CreatedAt, &c.LastUpdated, &a.RecentCount); err != nil {
			return nil, err
		}
		c.Severity = models.Severity(sev)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) Stats(ctx context.Context, since time.Time) (Stats, error) {
	st := newStats()
	err := s.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM complaints),
			(SELECT COUNT(*) FROM clusters),
			(SELECT COUNT(*) FROM complaints WHERE created_at >= $1)
	`, since).Scan(&st.Total, &st.Clusters, &st.Recent)
	if err != nil {
		return Stats{}, err
	}

	rows, err := s.Pool.Query(ctx, `SELECT severity, COUNT(*) FROM complaints GROUP BY severity`)
	if err != nil {
		return Stats{}, err
	}
	for rows.Next() {
		var (
			sev string
			n   int
		)
		if err := rows.Scan(&sev, &n); err != nil {
			rows.Close()
			return Stats{}, err
		}
		st.BySeverity[models.Severity(sev)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	rows, err = s.Pool.Query(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return Stats{}, err
		}
		st.ByCategory[cat] = n
	}
	return st, rows.Err()
}

func (s *Postgres) queryClusters(ctx context.Context, query string, args ...any) ([]models.Cluster, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Cluster
	for rows.Next() {
		c, err := scanPgCluster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanPgComplaint(row pgx.Row) (models.Complaint, error) {
	var (
		c   models.Complaint
		sev string
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Anonymous, &c.RawText, &c.RewrittenText, &c.Category, &sev,
		&c.SeverityScore, &c.SeverityLayer, &c.Embedding, &c.ClusterID, &c.Upvotes, &c.CreatedAt)
	c.Severity = models.Severity(sev)
	return c, err
}

func scanPgCluster(row pgx.Row) (models.Cluster, error) {
	var (
		c   models.Cluster
		sev string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Category, &sev, &c.SeverityCounts.Low, &c.SeverityCounts.Medium,
		&c.SeverityCounts.High, &c.MemberCount, &c.Centroid, &c.CreatedAt, &c.LastUpdated)
	c.Severity = models.Severity(sev)
	return c, err
}

func severityDelta(s models.Severity) (low, medium, high int) {
	switch s {
	case models.SeverityHigh:
		return 0, 0, 1
	case models.SeverityMedium:
		return 0, 1, 0
	default:
		return 1, 0, 0
	}
}
