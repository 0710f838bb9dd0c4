package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryVectorStore_SearchRanksByRelevance(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store := NewInMemoryVectorStore(NewBagOfWordsEmbedder(64, zap.NewNop()), zap.NewNop())
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, ConversationTurn{
		OwnerID:     "user-1",
		UserMessage: "my cat Max knocked over the plant again",
		BotResponse: "Max sounds like quite the troublemaker",
		Timestamp:   now.Add(-time.Hour),
	}))
	require.NoError(t, store.Add(ctx, ConversationTurn{
		OwnerID:     "user-1",
		UserMessage: "the quarterly report is due friday",
		BotResponse: "good luck with the deadline",
		Timestamp:   now.Add(-2 * time.Hour),
	}))

	matches, err := store.Search(ctx, "user-1", "what did my cat Max do", 5, WindowAll)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Contains(t, matches[0].UserMessage, "cat Max")
	require.Greater(t, matches[0].Relevance, matches[1].Relevance)
}

func TestInMemoryVectorStore_TimeWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store := NewInMemoryVectorStore(NewBagOfWordsEmbedder(64, zap.NewNop()), zap.NewNop())
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, ConversationTurn{
		OwnerID: "user-1", UserMessage: "old news", Timestamp: now.Add(-10 * 24 * time.Hour),
	}))
	require.NoError(t, store.Add(ctx, ConversationTurn{
		OwnerID: "user-1", UserMessage: "fresh news", Timestamp: now.Add(-time.Hour),
	}))

	recent, err := store.Search(ctx, "user-1", "news", 5, WindowWeek)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "fresh news", recent[0].UserMessage)

	all, err := store.Search(ctx, "user-1", "news", 5, WindowAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestInMemoryVectorStore_OwnerIsolation(t *testing.T) {
	t.Parallel()

	store := NewInMemoryVectorStore(NewBagOfWordsEmbedder(64, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, ConversationTurn{OwnerID: "user-1", UserMessage: "private thing"}))

	matches, err := store.Search(ctx, "user-2", "private thing", 5, WindowAll)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Mismatched or degenerate inputs score zero instead of erroring.
	require.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	require.Zero(t, CosineSimilarity(nil, nil))
	require.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestTimeWindowCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	cutoff, bounded := WindowDay.Cutoff(now)
	require.True(t, bounded)
	require.Equal(t, now.Add(-24*time.Hour), cutoff)

	_, bounded = WindowAll.Cutoff(now)
	require.False(t, bounded)
}
