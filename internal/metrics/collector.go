package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/types"
)

// Collector records retrieval-pipeline metrics. It implements the
// observer interfaces of the router, the tool executor, and the tiered
// store, so one instance can be wired into all three.
type Collector struct {
	routeDecisions  *prometheus.CounterVec
	complexityScore prometheus.Histogram

	toolExecutions   *prometheus.CounterVec
	toolExecDuration *prometheus.HistogramVec

	tierTransitions *prometheus.CounterVec
	decayRemovals   prometheus.Counter

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers all collectors under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.routeDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Total routing decisions by outcome",
		},
		[]string{"path"}, // tool_calling, direct
	)

	c.complexityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "complexity_score",
			Help:      "Distribution of query complexity scores",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	c.toolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Total tool executions",
		},
		[]string{"tool", "status"},
	)

	c.toolExecDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_execution_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"tool"},
	)

	c.tierTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_tier_transitions_total",
			Help:      "Total memory tier transitions",
		},
		[]string{"from_tier", "to_tier"},
	)

	c.decayRemovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_decay_removals_total",
			Help:      "Total memory records removed by decay",
		},
	)

	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RouteDecision implements router.RouteObserver.
func (c *Collector) RouteDecision(useTools bool, score float64) {
	path := "direct"
	if useTools {
		path = "tool_calling"
	}
	c.routeDecisions.WithLabelValues(path).Inc()
	c.complexityScore.Observe(score)
}

// ToolExecution implements tools.ExecObserver.
func (c *Collector) ToolExecution(tool string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.toolExecutions.WithLabelValues(tool, status).Inc()
	c.toolExecDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// TierTransition implements memory.TierObserver. The free-form reason
// lands in logs, not labels, to keep cardinality bounded.
func (c *Collector) TierTransition(from, to types.MemoryTier, _ string) {
	c.tierTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// DecayRemoval implements memory.TierObserver.
func (c *Collector) DecayRemoval(count int) {
	c.decayRemovals.Add(float64(count))
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
