package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/types"
)

// AssessmentCache stores recent assessments keyed by message digest.
// Implemented by internal/cache; a nil cache disables caching. Cache
// errors degrade to a fresh assessment, never a failed route.
type AssessmentCache interface {
	GetAssessment(ctx context.Context, key string) (*types.ComplexityAssessment, bool)
	SetAssessment(ctx context.Context, key string, a *types.ComplexityAssessment, ttl time.Duration)
}

// RouteObserver receives routing decisions. Implemented by the metrics
// collector; nil disables reporting.
type RouteObserver interface {
	RouteDecision(useTools bool, score float64)
}

// CacheObserver receives assessment-cache outcomes. Observers that also
// implement it (the metrics collector does) get hit/miss counts; others
// are simply not told.
type CacheObserver interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

const assessmentCacheType = "assessment"

// Router decides between direct semantic retrieval and multi-source
// tool calling for each incoming message. It is a pure decision
// component plus a schema registry: when it selects tool calling, the
// caller invokes the LLM with the catalog schemas and hands resulting
// tool calls to the executor.
type Router struct {
	cfg      config.RouterConfig
	assessor *Assessor
	cache    AssessmentCache
	observer RouteObserver
	logger   *zap.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithCache enables assessment caching.
func WithCache(c AssessmentCache) RouterOption {
	return func(r *Router) { r.cache = c }
}

// WithObserver sets the routing observer.
func WithObserver(o RouteObserver) RouterOption {
	return func(r *Router) { r.observer = o }
}

// New creates a query router.
func New(cfg config.RouterConfig, logger *zap.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		cfg:      cfg,
		assessor: NewAssessor(cfg.ComplexityThreshold, cfg.EnableToolCalling),
		logger:   logger.With(zap.String("component", "query_router")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route assesses one message and decides the retrieval path. A message
// scoring exactly at the threshold routes to tools.
func (r *Router) Route(ctx context.Context, text, userID, characterID string) (bool, types.ComplexityAssessment) {
	var assessment types.ComplexityAssessment

	key := cacheKey(text)
	if r.cfg.CacheEnabled && r.cache != nil {
		if cached, ok := r.cache.GetAssessment(ctx, key); ok {
			r.logger.Debug("assessment cache hit", zap.String("key", key))
			r.observeCache(true)
			r.observe(cached)
			return cached.UseTools, *cached
		}
		r.observeCache(false)
	}

	assessment = r.assessor.Assess(text, userID, characterID)

	if r.cfg.CacheEnabled && r.cache != nil {
		r.cache.SetAssessment(ctx, key, &assessment, r.cfg.CacheTTL)
	}

	if r.cfg.LogAssessments {
		r.logger.Info("query assessed",
			zap.String("user_id", userID),
			zap.String("character_id", characterID),
			zap.Float64("score", assessment.ComplexityScore),
			zap.Bool("use_tools", assessment.UseTools),
			zap.String("reasoning", assessment.Reasoning))
	}
	r.observe(&assessment)

	return assessment.UseTools, assessment
}

func (r *Router) observe(a *types.ComplexityAssessment) {
	if r.observer != nil {
		r.observer.RouteDecision(a.UseTools, a.ComplexityScore)
	}
}

func (r *Router) observeCache(hit bool) {
	co, ok := r.observer.(CacheObserver)
	if !ok {
		return
	}
	if hit {
		co.RecordCacheHit(assessmentCacheType)
	} else {
		co.RecordCacheMiss(assessmentCacheType)
	}
}

// AvailableTools returns the static catalog of callable tool schemas.
func (r *Router) AvailableTools() []types.ToolSchema {
	return Catalog()
}

// RunWithBudget executes the tool-calling retrieval path under the
// configured retrieval budget, falling back to the direct path when the
// budget is exceeded. This is caller-level policy: the executor is not
// aborted mid-call beyond context cancellation.
func (r *Router) RunWithBudget(ctx context.Context, toolPath, directPath func(context.Context) error) error {
	budgetCtx, cancel := context.WithTimeout(ctx, r.cfg.RetrievalBudget)
	defer cancel()

	err := toolPath(budgetCtx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return err
	}

	r.logger.Warn("retrieval budget exceeded, falling back to direct retrieval",
		zap.Duration("budget", r.cfg.RetrievalBudget))
	return directPath(ctx)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
