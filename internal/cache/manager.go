package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/types"
)

// ErrCacheMiss indicates the key was not present.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Manager wraps a Redis client with JSON convenience methods. All
// methods are safe for concurrent use.
type Manager struct {
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *zap.Logger
	mu         sync.RWMutex
	closed     bool
}

// NewManager connects to Redis and verifies the connection before
// returning.
func NewManager(cfg config.RedisConfig, defaultTTL time.Duration, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:      client,
		defaultTTL: defaultTTL,
		logger:     logger.With(zap.String("component", "cache")),
	}

	m.logger.Info("cache manager initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return m, nil
}

// Get returns the raw string value for key.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", fmt.Errorf("cache manager is closed")
	}

	val, err := m.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	return val, nil
}

// Set stores value under key. A zero ttl falls back to the default TTL.
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	if err := m.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// GetJSON unmarshals the cached value for key into dest.
func (m *Manager) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON marshals value and stores it under key.
func (m *Manager) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.Set(ctx, key, string(data), ttl)
}

// Delete removes the given keys.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}
	if len(keys) == 0 {
		return nil
	}

	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	return m.redis.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.logger.Info("closing cache manager")

	return m.redis.Close()
}

// AssessmentCache adapts a Manager to the router's assessment cache.
// Cache failures degrade to misses; a flaky cache never blocks routing.
type AssessmentCache struct {
	manager *Manager
}

// NewAssessmentCache wraps m for use by the query router.
func NewAssessmentCache(m *Manager) *AssessmentCache {
	return &AssessmentCache{manager: m}
}

// GetAssessment implements router.AssessmentCache.
func (c *AssessmentCache) GetAssessment(ctx context.Context, key string) (*types.ComplexityAssessment, bool) {
	var a types.ComplexityAssessment
	if err := c.manager.GetJSON(ctx, "assessment:"+key, &a); err != nil {
		if !IsCacheMiss(err) {
			c.manager.logger.Warn("assessment cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return &a, true
}

// SetAssessment implements router.AssessmentCache.
func (c *AssessmentCache) SetAssessment(ctx context.Context, key string, a *types.ComplexityAssessment, ttl time.Duration) {
	if err := c.manager.SetJSON(ctx, "assessment:"+key, a, ttl); err != nil {
		c.manager.logger.Warn("assessment cache write failed", zap.Error(err))
	}
}
