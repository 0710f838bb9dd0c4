package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete configuration for the memory retrieval
// subsystem. Tier policy thresholds are first-class configuration, not
// hard-coded constants.
type Config struct {
	// Server holds the operational endpoints (metrics, shutdown).
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Router configures query complexity routing.
	Router RouterConfig `yaml:"router" env:"ROUTER"`

	// Tools configures tool execution.
	Tools ToolsConfig `yaml:"tools" env:"TOOLS"`

	// Memory configures the tiered memory store lifecycle policy.
	Memory MemoryConfig `yaml:"memory" env:"MEMORY"`

	// Database configures the relational backend (facts, character
	// data, quality metrics).
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis configures the assessment/result cache.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig holds process-level operational settings.
type ServerConfig struct {
	// Port serving /metrics.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// Graceful shutdown timeout.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// RouterConfig configures the query complexity router.
type RouterConfig struct {
	// Score at or above which a query routes to tool calling.
	ComplexityThreshold float64 `yaml:"complexity_threshold" env:"COMPLEXITY_THRESHOLD"`
	// Master kill switch for staged rollout. When false every query
	// routes to direct retrieval regardless of score.
	EnableToolCalling bool `yaml:"enable_tool_calling" env:"ENABLE_TOOL_CALLING"`
	// Log each assessment at info level.
	LogAssessments bool `yaml:"log_assessments" env:"LOG_ASSESSMENTS"`
	// Total budget for a tool-calling retrieval before the caller
	// falls back to direct semantic retrieval.
	RetrievalBudget time.Duration `yaml:"retrieval_budget" env:"RETRIEVAL_BUDGET"`
	// Assessment cache (Redis) settings.
	CacheEnabled bool          `yaml:"cache_enabled" env:"CACHE_ENABLED"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// ToolsConfig configures the tool executor.
type ToolsConfig struct {
	// Per-call execution timeout.
	CallTimeout time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
	// Maximum concurrent backend calls in one batch.
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
	// Per-tool rate limit (calls per second, 0 disables).
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" env:"RATE_BURST"`
}

// MemoryConfig configures tier lifecycle policy. The numeric thresholds
// are policy, not contract; deployments tune them per character.
type MemoryConfig struct {
	// Records older than this with significance at or above
	// PromotionMinSignificance are promotion candidates.
	PromotionAge             time.Duration `yaml:"promotion_age" env:"PROMOTION_AGE"`
	PromotionMinSignificance float64       `yaml:"promotion_min_significance" env:"PROMOTION_MIN_SIGNIFICANCE"`

	// Records idle longer than DemotionIdleAge with significance below
	// DemotionMaxSignificance are demotion candidates.
	DemotionIdleAge         time.Duration `yaml:"demotion_idle_age" env:"DEMOTION_IDLE_AGE"`
	DemotionMaxSignificance float64       `yaml:"demotion_max_significance" env:"DEMOTION_MAX_SIGNIFICANCE"`

	// Decay pass settings. DecayRate scales the per-pass reduction;
	// records whose decay score crosses RemovalFloor are deleted
	// unless protected.
	DecayRate    float64 `yaml:"decay_rate" env:"DECAY_RATE"`
	RemovalFloor float64 `yaml:"removal_floor" env:"REMOVAL_FLOOR"`

	// Background maintenance cadence.
	MaintenanceInterval time.Duration `yaml:"maintenance_interval" env:"MAINTENANCE_INTERVAL"`
}

// DatabaseConfig configures the relational backend.
type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// DSN returns the postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig configures the cache backend.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig configures zap.
type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Stdout plus optional file paths.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures OTel tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Router.ComplexityThreshold < 0 || c.Router.ComplexityThreshold > 1 {
		errs = append(errs, "complexity_threshold must be between 0 and 1")
	}
	if c.Tools.CallTimeout <= 0 {
		errs = append(errs, "tools call_timeout must be positive")
	}
	if c.Tools.MaxConcurrency <= 0 {
		errs = append(errs, "tools max_concurrency must be positive")
	}
	if c.Memory.PromotionMinSignificance < 0 || c.Memory.PromotionMinSignificance > 1 {
		errs = append(errs, "promotion_min_significance must be between 0 and 1")
	}
	if c.Memory.DemotionMaxSignificance < 0 || c.Memory.DemotionMaxSignificance > 1 {
		errs = append(errs, "demotion_max_significance must be between 0 and 1")
	}
	if c.Memory.DecayRate < 0 || c.Memory.DecayRate > 1 {
		errs = append(errs, "decay_rate must be between 0 and 1")
	}
	if c.Memory.RemovalFloor < 0 {
		errs = append(errs, "removal_floor must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
