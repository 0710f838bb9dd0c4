package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/types"
)

// Placeholder notes for unconfigured or unreachable backends. Handlers
// degrade to empty payloads carrying a note instead of failing.
const (
	noteFactsUnavailable     = "facts backend unavailable, no stored facts returned"
	noteVectorUnavailable    = "conversation backend unavailable, no history returned"
	noteMetricsUnavailable   = "metrics backend unavailable, no trends returned"
	noteBackstoryUnavailable = "character backend unavailable, no backstory returned"
)

func isUnavailable(err error) bool {
	return types.GetErrorCode(err) == types.ErrCodeBackendUnavailable
}

func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return types.NewError(types.ErrCodeInvalidArguments, "decode arguments").WithCause(err)
	}
	return nil
}

// UserFactsResult is the query_user_facts payload.
type UserFactsResult struct {
	UserID string             `json:"user_id"`
	Facts  []storage.UserFact `json:"facts"`
	Note   string             `json:"note,omitempty"`
}

func (e *Executor) queryUserFacts(ctx context.Context, raw json.RawMessage) (any, error) {
	args := struct {
		UserID   string           `json:"user_id"`
		FactType storage.FactType `json:"fact_type"`
		Limit    int              `json:"limit"`
	}{FactType: storage.FactAll, Limit: 10}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.UserID == "" {
		return nil, types.NewError(types.ErrCodeInvalidArguments, "user_id is required")
	}

	result := UserFactsResult{UserID: args.UserID, Facts: []storage.UserFact{}}
	if e.facts == nil {
		result.Note = noteFactsUnavailable
		return result, nil
	}

	facts, err := e.facts.QueryUserFacts(ctx, args.UserID, args.FactType, args.Limit)
	if err != nil {
		if isUnavailable(err) {
			e.logger.Warn("facts backend unavailable", zap.Error(err))
			result.Note = noteFactsUnavailable
			return result, nil
		}
		return nil, err
	}
	result.Facts = facts
	return result, nil
}

// ConversationContextResult is the recall_conversation_context payload.
type ConversationContextResult struct {
	UserID  string                      `json:"user_id"`
	Query   string                      `json:"query"`
	Window  storage.TimeWindow          `json:"time_window"`
	Matches []storage.ConversationMatch `json:"matches"`
	Note    string                      `json:"note,omitempty"`
}

func (e *Executor) recallConversationContext(ctx context.Context, raw json.RawMessage) (any, error) {
	args := struct {
		UserID string             `json:"user_id"`
		Query  string             `json:"query"`
		Window storage.TimeWindow `json:"time_window"`
		Limit  int                `json:"limit"`
	}{Window: storage.WindowAll, Limit: 5}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.UserID == "" || args.Query == "" {
		return nil, types.NewError(types.ErrCodeInvalidArguments, "user_id and query are required")
	}
	if !args.Window.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown time window %q", args.Window))
	}

	result := ConversationContextResult{
		UserID:  args.UserID,
		Query:   args.Query,
		Window:  args.Window,
		Matches: []storage.ConversationMatch{},
	}
	if e.vector == nil {
		result.Note = noteVectorUnavailable
		return result, nil
	}

	matches, err := e.vector.Search(ctx, args.UserID, args.Query, args.Limit, args.Window)
	if err != nil {
		if isUnavailable(err) {
			e.logger.Warn("vector backend unavailable", zap.Error(err))
			result.Note = noteVectorUnavailable
			return result, nil
		}
		return nil, err
	}
	result.Matches = matches
	return result, nil
}

// BackstoryResult is the query_character_backstory payload.
type BackstoryResult struct {
	CharacterName string                   `json:"character_name"`
	Entries       []storage.BackstoryEntry `json:"entries"`
	Note          string                   `json:"note,omitempty"`
}

func (e *Executor) queryCharacterBackstory(ctx context.Context, raw json.RawMessage) (any, error) {
	args := struct {
		CharacterName string                  `json:"character_name"`
		Query         string                  `json:"query"`
		Source        storage.BackstorySource `json:"source"`
	}{Source: storage.SourceBoth}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.CharacterName == "" || args.Query == "" {
		return nil, types.NewError(types.ErrCodeInvalidArguments, "character_name and query are required")
	}
	if !args.Source.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown source %q", args.Source))
	}

	result := BackstoryResult{CharacterName: args.CharacterName, Entries: []storage.BackstoryEntry{}}
	if e.characters == nil {
		result.Note = noteBackstoryUnavailable
		return result, nil
	}

	entries, err := e.characters.QueryBackstory(ctx, args.CharacterName, args.Query, args.Source)
	if err != nil {
		if isUnavailable(err) {
			e.logger.Warn("character backend unavailable", zap.Error(err))
			result.Note = noteBackstoryUnavailable
			return result, nil
		}
		return nil, err
	}
	result.Entries = entries
	return result, nil
}

// TemporalTrendsResult is the query_temporal_trends payload.
type TemporalTrendsResult struct {
	UserID string                `json:"user_id"`
	Window storage.TimeWindow    `json:"time_window"`
	Series []storage.TrendSeries `json:"series"`
	Note   string                `json:"note,omitempty"`
}

func (e *Executor) queryTemporalTrends(ctx context.Context, raw json.RawMessage) (any, error) {
	args := struct {
		UserID string                `json:"user_id"`
		Metric storage.QualityMetric `json:"metric"`
		Window storage.TimeWindow    `json:"time_window"`
	}{Metric: storage.MetricAll, Window: storage.WindowWeek}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.UserID == "" {
		return nil, types.NewError(types.ErrCodeInvalidArguments, "user_id is required")
	}
	if !args.Metric.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown metric %q", args.Metric))
	}
	// Trend queries are always bounded; the unbounded window is not in
	// this tool's schema.
	if !args.Window.Valid() || args.Window == storage.WindowAll {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown time window %q", args.Window))
	}

	result := TemporalTrendsResult{UserID: args.UserID, Window: args.Window, Series: []storage.TrendSeries{}}
	if e.metrics == nil {
		result.Note = noteMetricsUnavailable
		return result, nil
	}

	series, err := e.metrics.QueryTrends(ctx, args.UserID, args.Metric, args.Window)
	if err != nil {
		if isUnavailable(err) {
			e.logger.Warn("metrics backend unavailable", zap.Error(err))
			result.Note = noteMetricsUnavailable
			return result, nil
		}
		return nil, err
	}
	result.Series = series
	return result, nil
}
