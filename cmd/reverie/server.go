package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/internal/cache"
	"github.com/reverie-ai/reverie/internal/metrics"
	"github.com/reverie-ai/reverie/internal/telemetry"
	"github.com/reverie-ai/reverie/memory"
	"github.com/reverie-ai/reverie/router"
	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/tools"
	"github.com/reverie-ai/reverie/types"
)

// Server wires the retrieval pipeline together and owns its lifecycle:
// the operational HTTP endpoints, the background tier maintenance loop,
// and graceful shutdown.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *gorm.DB
	cacheMgr  *cache.Manager
	providers *telemetry.Providers

	Store    *memory.TieredStore
	Router   *router.Router
	Executor *tools.Executor

	httpSrv *http.Server
	done    chan struct{}
}

// NewServer builds the full pipeline from configuration. Backends that
// cannot be reached degrade to nil; the executor and store handle
// missing backends per their contracts.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.providers = providers

	collector := metrics.NewCollector("reverie", logger)

	deps := tools.Deps{}
	db, err := openDatabase(cfg.Database, logger)
	if err != nil {
		logger.Warn("Database not available, relational tools degraded", zap.Error(err))
	} else {
		s.db = db
		facts, err := storage.NewGormFactsStore(db, logger)
		if err != nil {
			return nil, fmt.Errorf("build facts store: %w", err)
		}
		chars, err := storage.NewGormCharacterStore(db, logger)
		if err != nil {
			return nil, fmt.Errorf("build character store: %w", err)
		}
		qm, err := storage.NewGormMetricsStore(db, logger)
		if err != nil {
			return nil, fmt.Errorf("build metrics store: %w", err)
		}
		deps.Facts = facts
		deps.Characters = chars
		deps.Metrics = qm
	}

	embedder := storage.NewBagOfWordsEmbedder(0, logger)
	vectorStore := storage.NewInMemoryVectorStore(embedder, logger)
	deps.Vector = vectorStore

	s.Store = memory.NewTieredStore(
		memory.PolicyFromConfig(cfg.Memory),
		logger,
		memory.WithEmbedder(embedder),
		memory.WithObserver(collector),
	)

	routerOpts := []router.RouterOption{router.WithObserver(collector)}
	if cfg.Router.CacheEnabled {
		mgr, err := cache.NewManager(cfg.Redis, cfg.Router.CacheTTL, logger)
		if err != nil {
			logger.Warn("Cache not available, assessments uncached", zap.Error(err))
		} else {
			s.cacheMgr = mgr
			routerOpts = append(routerOpts, router.WithCache(cache.NewAssessmentCache(mgr)))
		}
	}
	s.Router = router.New(cfg.Router, logger, routerOpts...)

	s.Executor = tools.NewExecutor(cfg.Tools, deps, logger, tools.WithObserver(collector))

	return s, nil
}

// Start launches the operational HTTP server and the maintenance loop.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("metrics server listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go s.maintenanceLoop()

	return nil
}

// maintenanceLoop periodically runs tier management and decay for every
// owner. A MAINTENANCE_CONFLICT means another pass is already running
// for that owner; skip and retry on the next tick.
func (s *Server) maintenanceLoop() {
	interval := s.cfg.Memory.MaintenanceInterval
	if interval <= 0 {
		s.logger.Info("tier maintenance disabled")
		return
	}

	// Stagger the first pass so replicas don't maintain in lockstep.
	select {
	case <-s.done:
		return
	case <-time.After(rand.N(interval)):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			for _, owner := range s.Store.Owners() {
				report, err := s.Store.AutoManageTiers(owner)
				if err != nil {
					if types.GetErrorCode(err) == types.ErrCodeMaintenanceConflict {
						s.logger.Debug("maintenance pass already running", zap.String("owner", owner))
						continue
					}
					s.logger.Error("tier maintenance failed", zap.String("owner", owner), zap.Error(err))
					continue
				}
				decay, err := s.Store.ApplyDecay(owner, s.cfg.Memory.DecayRate)
				if err != nil {
					if types.GetErrorCode(err) != types.ErrCodeMaintenanceConflict {
						s.logger.Error("decay pass failed", zap.String("owner", owner), zap.Error(err))
					}
					continue
				}
				if report.Promoted+report.Demoted+decay.Removed > 0 {
					s.logger.Info("maintenance pass complete",
						zap.String("owner", owner),
						zap.Int("promoted", report.Promoted),
						zap.Int("demoted", report.Demoted),
						zap.Int("decay_removed", decay.Removed),
					)
				}
			}
		}
	}
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then shuts everything
// down within the configured timeout.
func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	close(s.done)

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown failed", zap.Error(err))
	}
	if s.cacheMgr != nil {
		if err := s.cacheMgr.Close(); err != nil {
			s.logger.Error("cache shutdown failed", zap.Error(err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := s.providers.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown failed", zap.Error(err))
	}
}
