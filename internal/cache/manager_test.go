package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/types"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConfig{
		Addr:     mr.Addr(),
		PoolSize: 4,
	}
	manager, err := NewManager(cfg, time.Minute, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return mr, manager
}

func TestManagerSetAndGet(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	ctx := context.Background()
	require.NoError(t, manager.Set(ctx, "greeting", "hello", time.Minute))

	val, err := manager.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", val)
}

func TestManagerGetMiss(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	_, err := manager.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.True(t, IsCacheMiss(err))
}

func TestManagerSetDefaultTTL(t *testing.T) {
	t.Parallel()
	mr, manager := setupTestRedis(t)

	ctx := context.Background()
	require.NoError(t, manager.Set(ctx, "defaulted", "v", 0))

	// Zero falls back to the manager's default TTL (one minute here).
	require.Equal(t, time.Minute, mr.TTL("defaulted"))
}

func TestManagerTTLExpiry(t *testing.T) {
	t.Parallel()
	mr, manager := setupTestRedis(t)

	ctx := context.Background()
	require.NoError(t, manager.Set(ctx, "ephemeral", "v", 100*time.Millisecond))

	val, err := manager.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.Equal(t, "v", val)

	mr.FastForward(200 * time.Millisecond)

	_, err = manager.Get(ctx, "ephemeral")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestManagerDelete(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	ctx := context.Background()
	require.NoError(t, manager.Set(ctx, "doomed", "v", time.Minute))
	require.NoError(t, manager.Delete(ctx, "doomed"))

	_, err := manager.Get(ctx, "doomed")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, manager.Delete(ctx))
}

func TestManagerJSONRoundTrip(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	ctx := context.Background()
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := payload{Name: "maple", Count: 3}
	require.NoError(t, manager.SetJSON(ctx, "json-key", in, time.Minute))

	var out payload
	require.NoError(t, manager.GetJSON(ctx, "json-key", &out))
	require.Equal(t, in, out)
}

func TestManagerGetJSONInvalid(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	ctx := context.Background()
	require.NoError(t, manager.Set(ctx, "not-json", "}{", time.Minute))

	var out map[string]any
	err := manager.GetJSON(ctx, "not-json", &out)
	require.Error(t, err)
	require.False(t, IsCacheMiss(err))
}

func TestManagerSetJSONUnmarshalable(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	err := manager.SetJSON(context.Background(), "bad", make(chan int), time.Minute)
	require.Error(t, err)
}

func TestManagerClosed(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	ctx := context.Background()
	_, err := manager.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, manager.Set(ctx, "k", "v", time.Minute))
	require.Error(t, manager.Ping(ctx))
}

func TestManagerConnectFailure(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(config.RedisConfig{Addr: "localhost:1"}, time.Minute, zap.NewNop())
	require.Error(t, err)
	require.Nil(t, manager)
}

func TestAssessmentCacheRoundTrip(t *testing.T) {
	t.Parallel()
	_, manager := setupTestRedis(t)

	ac := NewAssessmentCache(manager)
	ctx := context.Background()

	_, ok := ac.GetAssessment(ctx, "q1")
	require.False(t, ok)

	in := &types.ComplexityAssessment{
		ComplexityScore:      0.5,
		SentenceLengthScore:  0.5,
		QuestionWordScore:    0.5,
		EntityReferenceScore: 0.5,
		UseTools:             true,
		DetectedEntities:     []types.EntityCategory{types.EntityUserReference},
	}
	ac.SetAssessment(ctx, "q1", in, time.Minute)

	out, ok := ac.GetAssessment(ctx, "q1")
	require.True(t, ok)
	require.Equal(t, in, out)
}

func TestAssessmentCacheDegradesOnFailure(t *testing.T) {
	t.Parallel()
	mr, manager := setupTestRedis(t)

	ac := NewAssessmentCache(manager)
	ctx := context.Background()

	mr.Close()

	// A dead backend is a miss, never an error surfaced to routing.
	_, ok := ac.GetAssessment(ctx, "q1")
	require.False(t, ok)
	ac.SetAssessment(ctx, "q1", &types.ComplexityAssessment{}, time.Minute)
}
