package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/types"
)

type fakeCache struct {
	mu    sync.Mutex
	store map[string]*types.ComplexityAssessment
	hits  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]*types.ComplexityAssessment)}
}

func (c *fakeCache) GetAssessment(_ context.Context, key string) (*types.ComplexityAssessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.store[key]
	if ok {
		c.hits++
	}
	return a, ok
}

func (c *fakeCache) SetAssessment(_ context.Context, key string, a *types.ComplexityAssessment, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.store[key] = a
}

type recordingObserver struct {
	mu          sync.Mutex
	decisions   []bool
	cacheHits   []string
	cacheMisses []string
}

func (o *recordingObserver) RouteDecision(useTools bool, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, useTools)
}

func (o *recordingObserver) RecordCacheHit(cacheType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cacheHits = append(o.cacheHits, cacheType)
}

func (o *recordingObserver) RecordCacheMiss(cacheType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cacheMisses = append(o.cacheMisses, cacheType)
}

func testRouterConfig() config.RouterConfig {
	cfg := config.DefaultRouterConfig()
	cfg.EnableToolCalling = true
	return cfg
}

func TestRoute_Decision(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := New(testRouterConfig(), zap.NewNop(), WithObserver(obs))

	useTools, assessment := r.Route(context.Background(), "What's 2+2?", "user-1", "char-1")
	require.False(t, useTools)
	require.InDelta(t, 0.2, assessment.ComplexityScore, 1e-9)

	useTools, assessment = r.Route(context.Background(), "What have we discussed about my cat recently?", "user-1", "char-1")
	require.True(t, useTools)
	require.InDelta(t, 0.5, assessment.ComplexityScore, 1e-9)

	require.Equal(t, []bool{false, true}, obs.decisions)
}

func TestRoute_CacheRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	cfg.CacheEnabled = true
	cache := newFakeCache()
	obs := &recordingObserver{}
	r := New(cfg, zap.NewNop(), WithCache(cache), WithObserver(obs))

	text := "What have we discussed about my cat recently?"

	_, first := r.Route(context.Background(), text, "user-1", "char-1")
	require.Equal(t, 0, cache.hits)
	require.Equal(t, 1, cache.sets)

	useTools, second := r.Route(context.Background(), text, "user-1", "char-1")
	require.Equal(t, 1, cache.hits)
	require.True(t, useTools)
	require.Equal(t, first, second)

	// Both lookups are reported: one miss, then one hit.
	require.Equal(t, []string{"assessment"}, obs.cacheMisses)
	require.Equal(t, []string{"assessment"}, obs.cacheHits)
}

func TestRoute_CacheDisabledByConfig(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	cfg.CacheEnabled = false
	cache := newFakeCache()
	r := New(cfg, zap.NewNop(), WithCache(cache))

	r.Route(context.Background(), "hello there", "user-1", "char-1")
	require.Equal(t, 0, cache.sets)
}

func TestAvailableTools(t *testing.T) {
	t.Parallel()

	r := New(testRouterConfig(), zap.NewNop())
	tools := r.AvailableTools()
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		require.NotEmpty(t, tool.Description)
		require.NotEmpty(t, tool.Parameters)
	}
	require.Equal(t, []string{
		ToolQueryUserFacts,
		ToolRecallConversationContext,
		ToolQueryCharacterBackstory,
		ToolSummarizeUserRelationship,
		ToolQueryTemporalTrends,
	}, names)
}

func TestRunWithBudget_FallsBackOnDeadline(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	cfg.RetrievalBudget = 10 * time.Millisecond
	r := New(cfg, zap.NewNop())

	directRan := false
	err := r.RunWithBudget(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(context.Context) error {
			directRan = true
			return nil
		})
	require.NoError(t, err)
	require.True(t, directRan)
}

func TestRunWithBudget_ToolPathErrorNotMasked(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	cfg.RetrievalBudget = time.Second
	r := New(cfg, zap.NewNop())

	boom := errors.New("backend exploded")
	err := r.RunWithBudget(context.Background(),
		func(context.Context) error { return boom },
		func(context.Context) error {
			t.Fatal("direct path must not run on non-budget errors")
			return nil
		})
	require.ErrorIs(t, err, boom)
}

func TestRunWithBudget_CallerCancellationPropagates(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	cfg.RetrievalBudget = time.Second
	r := New(cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RunWithBudget(ctx,
		func(ctx context.Context) error { return ctx.Err() },
		func(context.Context) error {
			t.Fatal("direct path must not run when the caller cancelled")
			return nil
		})
	require.Error(t, err)
}
