package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/router"
	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/types"
)

// ExecObserver receives execution outcomes. Implemented by the metrics
// collector; nil disables reporting.
type ExecObserver interface {
	ToolExecution(tool string, success bool, elapsed time.Duration)
}

// handlerFunc runs one tool against its backend and returns the payload
// to marshal into the result.
type handlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Executor routes tool calls by name to backend handlers. Backends are
// typed optional dependencies: a nil store means that backend is not
// configured, and the affected handlers degrade to placeholder results
// rather than failing.
type Executor struct {
	facts      storage.FactsStore
	vector     storage.VectorStore
	metrics    storage.MetricsStore
	characters storage.CharacterStore

	cfg      config.ToolsConfig
	limiter  *rate.Limiter
	observer ExecObserver
	tracer   trace.Tracer
	logger   *zap.Logger

	handlers map[string]handlerFunc
}

// Deps carries the executor's backend dependencies. Any field may be
// nil when that backend is not deployed.
type Deps struct {
	Facts      storage.FactsStore
	Vector     storage.VectorStore
	Metrics    storage.MetricsStore
	Characters storage.CharacterStore
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithObserver sets the execution observer.
func WithObserver(o ExecObserver) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

// NewExecutor creates a tool executor over the given backends.
func NewExecutor(cfg config.ToolsConfig, deps Deps, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		facts:      deps.Facts,
		vector:     deps.Vector,
		metrics:    deps.Metrics,
		characters: deps.Characters,
		cfg:        cfg,
		tracer:     otel.Tracer("reverie/tools"),
		logger:     logger.With(zap.String("component", "tool_executor")),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	e.handlers = map[string]handlerFunc{
		router.ToolQueryUserFacts:            e.queryUserFacts,
		router.ToolRecallConversationContext: e.recallConversationContext,
		router.ToolQueryCharacterBackstory:   e.queryCharacterBackstory,
		router.ToolSummarizeUserRelationship: e.summarizeUserRelationship,
		router.ToolQueryTemporalTrends:       e.queryTemporalTrends,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one tool call with the configured per-call timeout. It
// always returns a ToolResult; nothing escapes the executor boundary.
func (e *Executor) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "tools.execute",
		trace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	result := e.execute(ctx, call, start)

	span.SetAttributes(attribute.Bool("tool.success", result.Success))
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	if e.observer != nil {
		e.observer.ToolExecution(call.Name, result.Success, time.Duration(result.ExecutionTimeMS)*time.Millisecond)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, call types.ToolCall, start time.Time) (result types.ToolResult) {
	// A panicking handler must not take down the batch.
	defer func() {
		if r := recover(); r != nil {
			err := types.NewError(types.ErrCodeInternal, fmt.Sprintf("handler panic: %v", r))
			e.logger.Error("tool handler panicked",
				zap.String("tool", call.Name),
				zap.Any("panic", r))
			result = types.FailedToolResult(call.Name, err, time.Since(start))
		}
	}()

	handler, ok := e.handlers[call.Name]
	if !ok {
		err := types.NewError(types.ErrCodeUnknownTool, fmt.Sprintf("unknown tool %q", call.Name))
		e.logger.Warn("unknown tool requested", zap.String("tool", call.Name))
		return types.FailedToolResult(call.Name, err, time.Since(start))
	}

	if len(call.Arguments) > 0 && !json.Valid(call.Arguments) {
		err := types.NewError(types.ErrCodeInvalidArguments, "arguments are not valid JSON")
		return types.FailedToolResult(call.Name, err, time.Since(start))
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			werr := types.NewError(types.ErrCodeTimeout, "rate limit wait cancelled").WithCause(err)
			return types.FailedToolResult(call.Name, werr, time.Since(start))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		data, err := handler(callCtx, call.Arguments)
		select {
		case done <- outcome{data: data, err: err}:
		case <-callCtx.Done():
		}
	}()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			e.logger.Error("tool execution failed",
				zap.String("tool", call.Name),
				zap.Duration("elapsed", elapsed),
				zap.Error(out.err))
			return types.FailedToolResult(call.Name, out.err, elapsed)
		}
		e.logger.Debug("tool executed",
			zap.String("tool", call.Name),
			zap.Duration("elapsed", elapsed))
		return types.NewToolResult(call.Name, out.data, elapsed)

	case <-callCtx.Done():
		elapsed := time.Since(start)
		err := types.NewError(types.ErrCodeTimeout,
			fmt.Sprintf("execution exceeded %s", e.cfg.CallTimeout)).WithRetryable(true)
		e.logger.Warn("tool execution timed out",
			zap.String("tool", call.Name),
			zap.Duration("timeout", e.cfg.CallTimeout))
		return types.FailedToolResult(call.Name, err, elapsed)
	}
}

// ExecuteAll runs a batch of tool calls with bounded concurrency.
// Results are positionally aligned with calls; a failing call never
// aborts the rest of the batch.
func (e *Executor) ExecuteAll(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, len(calls))

	maxConc := int64(e.cfg.MaxConcurrency)
	if maxConc < 1 {
		maxConc = 1
	}
	sem := semaphore.NewWeighted(maxConc)

	for i, call := range calls {
		if err := sem.Acquire(ctx, 1); err != nil {
			werr := types.NewError(types.ErrCodeTimeout, "batch cancelled").WithCause(err)
			for j := i; j < len(calls); j++ {
				results[j] = types.FailedToolResult(calls[j].Name, werr, 0)
			}
			break
		}
		go func(idx int, c types.ToolCall) {
			defer sem.Release(1)
			results[idx] = e.Execute(ctx, c)
		}(i, call)
	}

	// Wait for in-flight calls.
	if err := sem.Acquire(context.Background(), maxConc); err == nil {
		sem.Release(maxConc)
	}
	return results
}
