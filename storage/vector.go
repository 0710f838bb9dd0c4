package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Embedder generates embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type storedTurn struct {
	turn      ConversationTurn
	embedding []float32
}

// InMemoryVectorStore is a process-local VectorStore backed by a cosine
// similarity scan. Suitable for tests and single-node deployments; a
// dedicated vector index satisfies the same interface for larger
// installations.
type InMemoryVectorStore struct {
	turns    map[string][]storedTurn
	embedder Embedder
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.RWMutex
}

// NewInMemoryVectorStore creates an in-memory conversation vector store.
func NewInMemoryVectorStore(embedder Embedder, logger *zap.Logger) *InMemoryVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryVectorStore{
		turns:    make(map[string][]storedTurn),
		embedder: embedder,
		logger:   logger.With(zap.String("component", "vector_store")),
		now:      time.Now,
	}
}

// Add embeds and stores one conversation turn.
func (s *InMemoryVectorStore) Add(ctx context.Context, turn ConversationTurn) error {
	if s.embedder == nil {
		return errUnavailable("vector", fmt.Errorf("no embedder configured"))
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}

	emb, err := s.embedder.Embed(ctx, turn.UserMessage+"\n"+turn.BotResponse)
	if err != nil {
		return errUnavailable("vector", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.OwnerID] = append(s.turns[turn.OwnerID], storedTurn{turn: turn, embedding: emb})
	return nil
}

// Search ranks one owner's turns by cosine similarity to the query,
// optionally bounded by a trailing time window.
func (s *InMemoryVectorStore) Search(ctx context.Context, ownerID, query string, limit int, window TimeWindow) ([]ConversationMatch, error) {
	if s.embedder == nil {
		return nil, errUnavailable("vector", fmt.Errorf("no embedder configured"))
	}
	if limit <= 0 {
		limit = 5
	}

	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errUnavailable("vector", err)
	}

	cutoff, bounded := window.Cutoff(s.now())

	s.mu.RLock()
	candidates := append([]storedTurn(nil), s.turns[ownerID]...)
	s.mu.RUnlock()

	matches := make([]ConversationMatch, 0, len(candidates))
	for _, c := range candidates {
		if bounded && c.turn.Timestamp.Before(cutoff) {
			continue
		}
		matches = append(matches, ConversationMatch{
			UserMessage: c.turn.UserMessage,
			BotResponse: c.turn.BotResponse,
			Emotion:     c.turn.Emotion,
			Confidence:  c.turn.Confidence,
			Relevance:   CosineSimilarity(queryEmb, c.embedding),
			Timestamp:   c.turn.Timestamp,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched or empty vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
