package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/campusvoice/backend/internal/models"
)

// SQLite is the single-file backend used for local runs and tests.
// Vectors are stored as JSON arrays and timestamps as unix nanoseconds.
type SQLite struct {
	DB *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Close() {
	_ = s.DB.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) SeedCategories(ctx context.Context, cats []models.Category) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, c := range cats {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO categories (name, description, position) VALUES (?, ?, ?)
				ON CONFLICT (name) DO UPDATE SET
					description = excluded.description,
					position = excluded.position
			`, c.Name, c.Description, i)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (s *SQLite) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name, description FROM categories ORDER BY position, name`)
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

func (s *SQLite) CreateComplaint(ctx context.Context, c *models.Complaint) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	emb, err := encodeVector(c.Embedding)
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.UserID, c.Anonymous, c.RawText, c.RewrittenText, c.Category, string(c.Severity),
		c.SeverityScore, c.SeverityLayer, emb, c.ClusterID, c.Upvotes, c.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert complaint: %w", err)
	}
	return c.ID, nil
}

func (s *SQLite) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = ?`, id)
	c, err := scanLiteComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Complaint{}, ErrNotFound
	}
	return c, err
}

func (s *SQLite) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	f = f.normalized()
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	var args []any
	var wheres []string
	if f.Category != "" {
		args = append(args, f.Category)
		wheres = append(wheres, "category = ?")
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		wheres = append(wheres, "severity = ?")
	}
	if f.ClusterID != "" {
		args = append(args, f.ClusterID)
		wheres = append(wheres, "cluster_id = ?")
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		wheres = append(wheres, "user_id = ?")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		c, err := scanLiteComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) IncrementUpvote(ctx context.Context, id string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `UPDATE complaints SET upvotes = upvotes + 1 WHERE id = ? RETURNING upvotes`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

func (s *SQLite) ListClusters(ctx context.Context, category string) ([]models.Cluster, error) {
	query := `SELECT ` + clusterColumns + ` FROM clusters`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY last_updated DESC, id`
	return s.queryClusters(ctx, query, args...)
}

func (s *SQLite) GetCluster(ctx context.Context, id string) (models.Cluster, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+clusterColumns+` FROM clusters WHERE id = ?`, id)
	c, err := scanLiteCluster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cluster{}, ErrNotFound
	}
	return c, err
}

func (s *SQLite) CreateCluster(ctx context.Context, c *models.Cluster) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = c.CreatedAt
	}
	centroid, err := encodeVector(c.Centroid)
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO clusters (`+clusterColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.Name, c.Category, string(c.Severity), c.SeverityCounts.Low, c.SeverityCounts.Medium,
		c.SeverityCounts.High, c.MemberCount, centroid, c.CreatedAt.UnixNano(), c.LastUpdated.UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert cluster: %w", err)
	}
	return c.ID, nil
}

func (s *SQLite) JoinCluster(ctx context.Context, id string, j ClusterJoin) (models.Cluster, error) {
	centroid, err := encodeVector(j.Centroid)
	if err != nil {
		return models.Cluster{}, err
	}
	var out models.Cluster
	low, medium, high := severityDelta(j.Severity)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE clusters SET
				member_count = member_count + 1,
				count_low = count_low + ?,
				count_medium = count_medium + ?,
				count_high = count_high + ?,
				centroid = ?,
				last_updated = ?
			WHERE id = ?
			RETURNING `+clusterColumns,
			low, medium, high, centroid, j.At.UnixNano(), id)
		c, err := scanLiteCluster(row)
		if err != nil {
			return err
		}
		c.Severity = c.SeverityCounts.Dominant()
		if _, err := tx.ExecContext(ctx, `UPDATE clusters SET severity = ? WHERE id = ?`, string(c.Severity), id); err != nil {
			return err
		}
		out = c
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cluster{}, ErrNotFound
	}
	if err != nil {
		return models.Cluster{}, fmt.Errorf("join cluster: %w", err)
	}
	return out, nil
}

func (s *SQLite) TopClusters(ctx context.Context, limit int) ([]models.Cluster, error) {
	return s.queryClusters(ctx, `SELECT `+clusterColumns+` FROM clusters
		ORDER BY member_count DESC, last_updated DESC LIMIT ?`, limit)
}

func (s *SQLite) TrendingClusters(ctx context.Context, since time.Time, limit int) ([]models.ClusterActivity, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.category, c.severity, c.count_low, c.count_medium, c.count_high,
			c.member_count, c.centroid, c.created_at, c.last_updated, COUNT(m.id) AS recent
		FROM clusters c
		JOIN complaints m ON m.cluster_id = c.id
		WHERE m.created_at >= ?
		GROUP BY c.id
		ORDER BY recent DESC, c.member_count DESC, c.last_updated DESC
		LIMIT ?
	`, since.UnixNano(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClusterActivity
	for rows.Next() {
		var (
			a                   models.ClusterActivity
			sev, centroid       string
			createdAt, updateAt int64
		)
		c := &a.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &sev, &c.SeverityCounts.Low, &c.SeverityCounts.Medium,
			&c.SeverityCounts.High, &c.MemberCount, &centroid, &createdAt, &updateAt, &a.RecentCount); err != nil {
			return nil, err
		}
		c.Severity = models.Severity(sev)
		c.CreatedAt = time.Unix(0, createdAt).UTC()
		c.LastUpdated = time.Unix(0, updateAt).UTC()
		if c.Centroid, err = decodeVector(&centroid); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context, since time.Time) (Stats, error) {
	st := newStats()
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM complaints),
			(SELECT COUNT(*) FROM clusters),
			(SELECT COUNT(*) FROM complaints WHERE created_at >= ?)
	`, since.UnixNano()).Scan(&st.Total, &st.Clusters, &st.Recent)
	if err != nil {
		return Stats{}, err
	}
	if err := s.groupCount(ctx, `SELECT severity, COUNT(*) FROM complaints GROUP BY severity`, func(k string, n int) {
		st.BySeverity[models.Severity(k)] = n
	}); err != nil {
		return Stats{}, err
	}
	if err := s.groupCount(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category`, func(k string, n int) {
		st.ByCategory[k] = n
	}); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *SQLite) groupCount(ctx context.Context, query string, fn func(key string, n int)) error {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		fn(k, n)
	}
	return rows.Err()
}

func (s *SQLite) queryClusters(ctx context.Context, query string, args ...any) ([]models.Cluster, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Cluster
	for rows.Next() {
		c, err := scanLiteCluster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLiteComplaint(row scanner) (models.Complaint, error) {
	var (
		c         models.Complaint
		sev       string
		emb       *string
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Anonymous, &c.RawText, &c.RewrittenText, &c.Category, &sev,
		&c.SeverityScore, &c.SeverityLayer, &emb, &c.ClusterID, &c.Upvotes, &createdAt); err != nil {
		return models.Complaint{}, err
	}
	c.Severity = models.Severity(sev)
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	var err error
	c.Embedding, err = decodeVector(emb)
	return c, err
}

func scanLiteCluster(row scanner) (models.Cluster, error) {
	var (
		c                    models.Cluster
		sev, centroid        string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &sev, &c.SeverityCounts.Low, &c.SeverityCounts.Medium,
		&c.SeverityCounts.High, &c.MemberCount, &centroid, &createdAt, &updatedAt); err != nil {
		return models.Cluster{}, err
	}
	c.Severity = models.Severity(sev)
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.LastUpdated = time.Unix(0, updatedAt).UTC()
	var err error
	c.Centroid, err = decodeVector(&centroid)
	return c, err
}

func encodeVector(v []float64) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}
	s := string(b)
	return &s, nil
}

func decodeVector(s *string) ([]float64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var v []float64
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return v, nil
}
