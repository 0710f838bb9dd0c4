package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reverie-ai/reverie/types"
)

// QualityMetricSample is a row in the quality metrics time series.
type QualityMetricSample struct {
	ID         uint   `gorm:"primaryKey"`
	OwnerID    string `gorm:"size:128;index:idx_metric_owner,priority:1"`
	Metric     string `gorm:"size:64;index:idx_metric_owner,priority:2"`
	Value      float64
	RecordedAt time.Time `gorm:"index"`
}

// TableName overrides gorm's default pluralization.
func (QualityMetricSample) TableName() string { return "quality_metric_samples" }

// allMetrics enumerates the concrete series behind the "all" selector.
var allMetrics = []QualityMetric{
	MetricEngagement,
	MetricSatisfaction,
	MetricCoherence,
	MetricResonance,
}

// GormMetricsStore implements MetricsStore on a relational database.
type GormMetricsStore struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewGormMetricsStore creates a metrics store over the given database.
func NewGormMetricsStore(db *gorm.DB, logger *zap.Logger) (*GormMetricsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormMetricsStore{
		db:     db,
		logger: logger.With(zap.String("component", "metrics_store")),
		now:    time.Now,
	}, nil
}

// AutoMigrate creates the metrics table. Intended for tests and local
// development.
func (s *GormMetricsStore) AutoMigrate() error {
	return s.db.AutoMigrate(&QualityMetricSample{})
}

// Record appends one sample.
func (s *GormMetricsStore) Record(ctx context.Context, ownerID string, metric QualityMetric, value float64, at time.Time) error {
	if metric == MetricAll || !metric.Valid() {
		return types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("cannot record metric %q", metric))
	}
	sample := QualityMetricSample{
		OwnerID:    ownerID,
		Metric:     string(metric),
		Value:      value,
		RecordedAt: at,
	}
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return errUnavailable("metrics", err)
	}
	return nil
}

// QueryTrends returns one series per requested metric, points ascending
// by time, with aggregate stats computed over the window.
func (s *GormMetricsStore) QueryTrends(ctx context.Context, ownerID string, metric QualityMetric, window TimeWindow) ([]TrendSeries, error) {
	if !metric.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown metric %q", metric))
	}
	if !window.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown time window %q", window))
	}

	metrics := []QualityMetric{metric}
	if metric == MetricAll {
		metrics = allMetrics
	}

	series := make([]TrendSeries, 0, len(metrics))
	for _, m := range metrics {
		q := s.db.WithContext(ctx).
			Where("owner_id = ? AND metric = ?", ownerID, string(m))
		if cutoff, bounded := window.Cutoff(s.now()); bounded {
			q = q.Where("recorded_at >= ?", cutoff)
		}

		var samples []QualityMetricSample
		if err := q.Order("recorded_at ASC").Find(&samples).Error; err != nil {
			s.logger.Error("trend query failed",
				zap.String("owner_id", ownerID),
				zap.String("metric", string(m)),
				zap.Error(err))
			return nil, errUnavailable("metrics", err)
		}

		series = append(series, buildSeries(m, samples))
	}

	return series, nil
}

func buildSeries(metric QualityMetric, samples []QualityMetricSample) TrendSeries {
	ts := TrendSeries{Metric: metric, Points: make([]MetricPoint, 0, len(samples))}
	if len(samples) == 0 {
		return ts
	}

	sum := 0.0
	ts.Min = samples[0].Value
	ts.Max = samples[0].Value
	for _, sp := range samples {
		ts.Points = append(ts.Points, MetricPoint{Value: sp.Value, RecordedAt: sp.RecordedAt})
		sum += sp.Value
		if sp.Value < ts.Min {
			ts.Min = sp.Value
		}
		if sp.Value > ts.Max {
			ts.Max = sp.Value
		}
	}
	ts.Count = len(samples)
	ts.Mean = sum / float64(len(samples))
	ts.Latest = samples[len(samples)-1].Value
	return ts
}
