package storage

import (
	"context"
	"time"

	"github.com/reverie-ai/reverie/types"
)

// TimeWindow bounds a query to a trailing period. The string values are
// part of the tool schema contract.
type TimeWindow string

const (
	WindowDay   TimeWindow = "24h"
	WindowWeek  TimeWindow = "7d"
	WindowMonth TimeWindow = "30d"
	WindowAll   TimeWindow = "all"
)

// Valid reports whether w is a known window.
func (w TimeWindow) Valid() bool {
	switch w {
	case WindowDay, WindowWeek, WindowMonth, WindowAll:
		return true
	}
	return false
}

// Cutoff returns the window's start time relative to now, and false for
// the unbounded window.
func (w TimeWindow) Cutoff(now time.Time) (time.Time, bool) {
	switch w {
	case WindowDay:
		return now.Add(-24 * time.Hour), true
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case WindowMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// FactType filters user facts by entity type. "all" disables the filter.
type FactType string

const (
	FactPet        FactType = "pet"
	FactHobby      FactType = "hobby"
	FactFamily     FactType = "family"
	FactPreference FactType = "preference"
	FactLocation   FactType = "location"
	FactAll        FactType = "all"
)

// Valid reports whether f is a known fact type.
func (f FactType) Valid() bool {
	switch f {
	case FactPet, FactHobby, FactFamily, FactPreference, FactLocation, FactAll:
		return true
	}
	return false
}

// UserFact is one row of the fact-entity / user-relationship join.
type UserFact struct {
	EntityName       string    `json:"entity_name"`
	EntityType       string    `json:"entity_type"`
	Category         string    `json:"category"`
	RelationshipType string    `json:"relationship_type"`
	Confidence       float64   `json:"confidence"`
	AttributedSource string    `json:"attributed_source,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// FactsStore reads structured user facts from the relational backend.
//
// Capability contract: QueryUserFacts returns at most limit rows,
// newest first, filtered by entity type when factType is not "all",
// with internal enrichment markers excluded.
type FactsStore interface {
	QueryUserFacts(ctx context.Context, userID string, factType FactType, limit int) ([]UserFact, error)
}

// ConversationMatch is one ranked result from the vector store: a
// user/bot message pair with its emotion annotation and similarity.
type ConversationMatch struct {
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Emotion     string    `json:"emotion,omitempty"`
	Confidence  float64   `json:"confidence"`
	Relevance   float64   `json:"relevance"`
	Timestamp   time.Time `json:"timestamp"`
}

// ConversationTurn is one stored exchange.
type ConversationTurn struct {
	OwnerID     string    `json:"owner_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Emotion     string    `json:"emotion,omitempty"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// VectorStore performs semantic search over stored conversation turns.
//
// Capability contract: Search ranks by similarity to the query text,
// scoped to one owner, optionally bounded by a time window, returning
// at most limit matches in descending relevance order.
type VectorStore interface {
	Add(ctx context.Context, turn ConversationTurn) error
	Search(ctx context.Context, ownerID, query string, limit int, window TimeWindow) ([]ConversationMatch, error)
}

// QualityMetric names a tracked conversation quality series.
type QualityMetric string

const (
	MetricEngagement   QualityMetric = "engagement_score"
	MetricSatisfaction QualityMetric = "satisfaction_score"
	MetricCoherence    QualityMetric = "coherence_score"
	MetricResonance    QualityMetric = "emotional_resonance"
	MetricAll          QualityMetric = "all"
)

// Valid reports whether m is a known metric selector.
func (m QualityMetric) Valid() bool {
	switch m {
	case MetricEngagement, MetricSatisfaction, MetricCoherence, MetricResonance, MetricAll:
		return true
	}
	return false
}

// MetricPoint is one sample in a series.
type MetricPoint struct {
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendSeries is the point series plus aggregate stats for one metric.
type TrendSeries struct {
	Metric QualityMetric `json:"metric"`
	Points []MetricPoint `json:"points"`
	Count  int           `json:"count"`
	Mean   float64       `json:"mean"`
	Min    float64       `json:"min"`
	Max    float64       `json:"max"`
	Latest float64       `json:"latest"`
}

// MetricsStore reads time-series conversation quality metrics.
//
// Capability contract: QueryTrends returns one series per requested
// metric (all four when metric is "all"), each bounded to the window,
// points in ascending time order.
type MetricsStore interface {
	QueryTrends(ctx context.Context, ownerID string, metric QualityMetric, window TimeWindow) ([]TrendSeries, error)
}

// BackstorySource selects which character background corpus to read.
type BackstorySource string

const (
	SourceCDL  BackstorySource = "cdl_database"
	SourceSelf BackstorySource = "self_memory"
	SourceBoth BackstorySource = "both"
)

// Valid reports whether s is a known source selector.
func (s BackstorySource) Valid() bool {
	switch s {
	case SourceCDL, SourceSelf, SourceBoth:
		return true
	}
	return false
}

// BackstoryEntry is one piece of character background or identity data.
type BackstoryEntry struct {
	CharacterName string          `json:"character_name"`
	Category      string          `json:"category"`
	Content       string          `json:"content"`
	Source        BackstorySource `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CharacterStore reads designer-authored character facts and bot
// self-reflection facts.
type CharacterStore interface {
	QueryBackstory(ctx context.Context, characterName, query string, source BackstorySource) ([]BackstoryEntry, error)
}

// unixTime converts gorm autoCreateTime seconds to time.Time.
func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// errUnavailable builds the canonical backend-down error.
func errUnavailable(backend string, cause error) error {
	return types.NewError(types.ErrCodeBackendUnavailable, backend+" backend unavailable").
		WithCause(cause).
		WithRetryable(true)
}
