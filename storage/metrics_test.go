package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/types"
)

func seedMetricsStore(t *testing.T, now time.Time) *GormMetricsStore {
	t.Helper()
	db := openTestDB(t)
	store, err := NewGormMetricsStore(db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate())
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, "user-1", MetricEngagement, 0.4, now.Add(-40*24*time.Hour)))
	require.NoError(t, store.Record(ctx, "user-1", MetricEngagement, 0.6, now.Add(-3*24*time.Hour)))
	require.NoError(t, store.Record(ctx, "user-1", MetricEngagement, 0.8, now.Add(-time.Hour)))
	require.NoError(t, store.Record(ctx, "user-1", MetricSatisfaction, 0.9, now.Add(-time.Hour)))
	require.NoError(t, store.Record(ctx, "user-2", MetricEngagement, 0.1, now.Add(-time.Hour)))

	return store
}

func TestQueryTrends_WindowAndStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := seedMetricsStore(t, now)

	series, err := store.QueryTrends(context.Background(), "user-1", MetricEngagement, WindowWeek)
	require.NoError(t, err)
	require.Len(t, series, 1)

	s := series[0]
	require.Equal(t, MetricEngagement, s.Metric)
	require.Equal(t, 2, s.Count) // 40-day-old sample outside the window
	require.InDelta(t, 0.7, s.Mean, 1e-9)
	require.InDelta(t, 0.6, s.Min, 1e-9)
	require.InDelta(t, 0.8, s.Max, 1e-9)
	require.InDelta(t, 0.8, s.Latest, 1e-9)

	// Ascending time order.
	require.True(t, s.Points[0].RecordedAt.Before(s.Points[1].RecordedAt))
}

func TestQueryTrends_AllSelector(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := seedMetricsStore(t, now)

	series, err := store.QueryTrends(context.Background(), "user-1", MetricAll, WindowMonth)
	require.NoError(t, err)
	require.Len(t, series, 4)

	byMetric := make(map[QualityMetric]TrendSeries, len(series))
	for _, s := range series {
		byMetric[s.Metric] = s
	}
	require.Equal(t, 2, byMetric[MetricEngagement].Count)
	require.Equal(t, 1, byMetric[MetricSatisfaction].Count)
	// Metrics never recorded still yield an empty series.
	require.Equal(t, 0, byMetric[MetricCoherence].Count)
	require.Empty(t, byMetric[MetricCoherence].Points)
}

func TestQueryTrends_InvalidSelectors(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := seedMetricsStore(t, now)

	_, err := store.QueryTrends(context.Background(), "user-1", "vibes", WindowWeek)
	require.Error(t, err)
	require.Equal(t, types.ErrCodeInvalidArguments, types.GetErrorCode(err))

	_, err = store.QueryTrends(context.Background(), "user-1", MetricAll, "fortnight")
	require.Error(t, err)
	require.Equal(t, types.ErrCodeInvalidArguments, types.GetErrorCode(err))
}

func TestRecord_RejectsAllSelector(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := seedMetricsStore(t, now)

	err := store.Record(context.Background(), "user-1", MetricAll, 0.5, now)
	require.Error(t, err)
	require.Equal(t, types.ErrCodeInvalidArguments, types.GetErrorCode(err))
}
