package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/types"
)

const relationshipQuery = "relationship moments we shared"

// RelationshipSummary is the summarize_user_relationship payload. A
// section that was not requested, or whose backend failed, is nil.
type RelationshipSummary struct {
	UserID        string                      `json:"user_id"`
	Window        storage.TimeWindow          `json:"time_window"`
	Facts         []storage.UserFact          `json:"facts,omitempty"`
	Conversations []storage.ConversationMatch `json:"conversations,omitempty"`
	Omitted       []string                    `json:"omitted_sections,omitempty"`
}

// summarizeUserRelationship fans out to the facts and conversation
// backends concurrently. Either sub-call failing drops its section from
// the summary; the aggregate itself never fails on backend errors.
func (e *Executor) summarizeUserRelationship(ctx context.Context, raw json.RawMessage) (any, error) {
	args := struct {
		UserID               string             `json:"user_id"`
		IncludeFacts         *bool              `json:"include_facts"`
		IncludeConversations *bool              `json:"include_conversations"`
		Window               storage.TimeWindow `json:"time_window"`
	}{Window: storage.WindowAll}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.UserID == "" {
		return nil, types.NewError(types.ErrCodeInvalidArguments, "user_id is required")
	}
	if !args.Window.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown time window %q", args.Window))
	}
	includeFacts := args.IncludeFacts == nil || *args.IncludeFacts
	includeConversations := args.IncludeConversations == nil || *args.IncludeConversations

	summary := RelationshipSummary{UserID: args.UserID, Window: args.Window}

	var mu sync.Mutex
	omit := func(section string, err error) {
		e.logger.Warn("relationship section omitted",
			zap.String("section", section),
			zap.Error(types.NewError(types.ErrCodePartialAggregation, section+" sub-call failed").WithCause(err)))
		mu.Lock()
		summary.Omitted = append(summary.Omitted, section)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if includeFacts && e.facts != nil {
		g.Go(func() error {
			subCtx, cancel := context.WithTimeout(gctx, e.cfg.CallTimeout)
			defer cancel()
			facts, err := e.facts.QueryUserFacts(subCtx, args.UserID, storage.FactAll, 10)
			if err != nil {
				omit("facts", err)
				return nil
			}
			mu.Lock()
			summary.Facts = facts
			mu.Unlock()
			return nil
		})
	} else if includeFacts {
		omit("facts", types.NewError(types.ErrCodeBackendUnavailable, "facts backend not configured"))
	}

	if includeConversations && e.vector != nil {
		g.Go(func() error {
			subCtx, cancel := context.WithTimeout(gctx, e.cfg.CallTimeout)
			defer cancel()
			matches, err := e.vector.Search(subCtx, args.UserID, relationshipQuery, 5, args.Window)
			if err != nil {
				omit("conversations", err)
				return nil
			}
			mu.Lock()
			summary.Conversations = matches
			mu.Unlock()
			return nil
		})
	} else if includeConversations {
		omit("conversations", types.NewError(types.ErrCodeBackendUnavailable, "conversation backend not configured"))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
