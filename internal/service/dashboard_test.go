package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/backend/internal/models"
)

func seedDashboard(t *testing.T, store *memStore, now time.Time) {
	t.Helper()
	ctx := context.Background()
	wifi := &models.Cluster{ID: "wifi", Name: "Campus Wi-Fi - MEDIUM", Category: "Campus Wi-Fi", MemberCount: 3, LastUpdated: now}
	mess := &models.Cluster{ID: "mess", Name: "Mess Food Quality - LOW", Category: "Mess Food Quality", MemberCount: 1, LastUpdated: now}
	for _, c := range []*models.Cluster{wifi, mess} {
		_, err := store.CreateCluster(ctx, c)
		require.NoError(t, err)
	}
	wifiID, messID := "wifi", "mess"
	for _, c := range []models.Complaint{
		{Category: "Campus Wi-Fi", Severity: models.SeverityMedium, ClusterID: &wifiID, CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{Category: "Campus Wi-Fi", Severity: models.SeverityMedium, ClusterID: &wifiID, CreatedAt: now.Add(-2 * time.Hour)},
		{Category: "Campus Wi-Fi", Severity: models.SeverityMedium, ClusterID: &wifiID, CreatedAt: now.Add(-time.Hour)},
		{Category: "Mess Food Quality", Severity: models.SeverityMedium, ClusterID: &messID, CreatedAt: now.Add(-3 * time.Hour)},
	} {
		c := c
		_, err := store.CreateComplaint(ctx, &c)
		require.NoError(t, err)
	}
}

func TestDashboardStats(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedDashboard(t, store, now)
	d := &Dashboard{Store: store, Logger: zerolog.Nop(), Now: func() time.Time { return now }}

	st, err := d.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalComplaints)
	assert.Equal(t, 3, st.RecentComplaints)
	assert.Equal(t, 2, st.TotalClusters)
	assert.Equal(t, map[models.Severity]int{
		models.SeverityLow:    0,
		models.SeverityMedium: 4,
		models.SeverityHigh:   0,
	}, st.BySeverity)
	assert.Equal(t, map[string]int{"Campus Wi-Fi": 3, "Mess Food Quality": 1}, st.ByCategory)
	require.NotEmpty(t, st.TopClusters)
	assert.Equal(t, "wifi", st.TopClusters[0].ID)
	assert.Len(t, st.Latest, 4)
	assert.Equal(t, now, st.GeneratedAt)
}

func TestDashboardStatsEmpty(t *testing.T) {
	d := &Dashboard{Store: newMemStore(), Logger: zerolog.Nop()}
	st, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalComplaints)
	assert.Len(t, st.BySeverity, len(models.Severities))
	assert.NotNil(t, st.TopClusters)
	assert.NotNil(t, st.Latest)
	assert.Empty(t, st.TopCategories)
}

func TestTopCategoriesOrdering(t *testing.T) {
	got := TopCategories(map[string]int{
		"Campus Wi-Fi":       4,
		"Hostel Maintenance": 4,
		"Medical Center":     1,
		"Other":              0,
		"Mess Food Quality":  7,
	}, 3)
	want := []CategoryCount{
		{Category: "Mess Food Quality", Count: 7},
		{Category: "Campus Wi-Fi", Count: 4},
		{Category: "Hostel Maintenance", Count: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("TopCategories mismatch (-want +got):\n%s", diff)
	}
}

func TestTrending(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedDashboard(t, store, now)
	d := &Dashboard{Store: store, Logger: zerolog.Nop(), Now: func() time.Time { return now }}

	out, err := d.Trending(context.Background(), 7, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "wifi", out[0].Cluster.ID)
	assert.Equal(t, 2, out[0].RecentCount)
	assert.Equal(t, 1, out[1].RecentCount)
}

func TestTrendingClampsHugeWindow(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedDashboard(t, store, now)
	wifiID := "wifi"
	old := models.Complaint{Category: "Campus Wi-Fi", Severity: models.SeverityLow, ClusterID: &wifiID, CreatedAt: now.AddDate(0, 0, -400)}
	_, err := store.CreateComplaint(context.Background(), &old)
	require.NoError(t, err)
	d := &Dashboard{Store: store, Logger: zerolog.Nop(), Now: func() time.Time { return now }}

	out, err := d.Trending(context.Background(), 200000, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "wifi", out[0].Cluster.ID)
	assert.Equal(t, 3, out[0].RecentCount)
}

func TestClampTrendingDays(t *testing.T) {
	cases := map[int]int{-3: DefaultTrendingDays, 0: DefaultTrendingDays, 1: 1, 30: 30, 365: 365, 366: MaxTrendingDays, 200000: MaxTrendingDays}
	for in, want := range cases {
		assert.Equal(t, want, ClampTrendingDays(in), "days=%d", in)
	}
}

func TestClusterDetail(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedDashboard(t, store, now)
	d := &Dashboard{Store: store, Logger: zerolog.Nop()}

	detail, err := d.ClusterDetail(context.Background(), "wifi", 2)
	require.NoError(t, err)
	assert.Equal(t, "Campus Wi-Fi - MEDIUM", detail.Cluster.Name)
	assert.Len(t, detail.Members, 2)

	_, err = d.ClusterDetail(context.Background(), "missing", 10)
	assert.Error(t, err)
}
