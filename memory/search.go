package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/types"
)

// SearchResult pairs a record snapshot with its similarity score.
type SearchResult struct {
	Record *types.MemoryRecord `json:"record"`
	Score  float64             `json:"score"`
}

// Search is the direct semantic retrieval path: it embeds the query and
// ranks the owner's records by cosine similarity in the named vector
// space, breaking ties by recency. Records without a vector in that
// space are skipped. Returned records have their access metadata
// touched, which feeds demotion and decay policy.
func (s *TieredStore) Search(ctx context.Context, ownerID, query, space string, limit int) ([]SearchResult, error) {
	if s.embedder == nil {
		return nil, types.NewError(types.ErrCodeBackendUnavailable, "no embedder configured")
	}
	if !validSpace(space) {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown vector space %q", space))
	}
	if limit <= 0 {
		limit = 5
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, types.NewError(types.ErrCodeBackendUnavailable, "embed query").WithCause(err)
	}

	s.mu.RLock()
	results := make([]SearchResult, 0)
	for _, rec := range s.records[ownerID] {
		vec, ok := rec.NamedVectors[space]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			Record: rec.Clone(),
			Score:  storage.CosineSimilarity(queryVec, vec),
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.touch(ownerID, results)
	return results, nil
}

// touch updates access metadata for records returned by a read.
func (s *TieredStore) touch(ownerID string, results []SearchResult) {
	if len(results) == 0 {
		return
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range results {
		if rec, ok := s.records[ownerID][res.Record.ID]; ok {
			rec.LastAccessedAt = now
			rec.AccessCount++
		}
	}
}

func validSpace(space string) bool {
	for _, known := range types.VectorSpaces {
		if space == known {
			return true
		}
	}
	return false
}
