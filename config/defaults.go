package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Router:    DefaultRouterConfig(),
		Tools:     DefaultToolsConfig(),
		Memory:    DefaultMemoryConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MetricsPort:     9091,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultRouterConfig returns default routing settings.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ComplexityThreshold: 0.3,
		EnableToolCalling:   true,
		LogAssessments:      false,
		RetrievalBudget:     8 * time.Second,
		CacheEnabled:        false,
		CacheTTL:            10 * time.Minute,
	}
}

// DefaultToolsConfig returns default tool execution settings.
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		CallTimeout:    5 * time.Second,
		MaxConcurrency: 4,
		RateLimit:      0,
		RateBurst:      1,
	}
}

// DefaultMemoryConfig returns the default tier lifecycle policy.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		PromotionAge:             30 * 24 * time.Hour,
		PromotionMinSignificance: 0.7,
		DemotionIdleAge:          14 * 24 * time.Hour,
		DemotionMaxSignificance:  0.3,
		DecayRate:                0.1,
		RemovalFloor:             0.05,
		MaintenanceInterval:      time.Hour,
	}
}

// DefaultDatabaseConfig returns default database settings.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "reverie",
		Password:        "",
		Name:            "reverie",
		SSLMode:         "disable",
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultRedisConfig returns default Redis settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultLogConfig returns default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig returns default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "reverie",
		SampleRate:   1.0,
	}
}
