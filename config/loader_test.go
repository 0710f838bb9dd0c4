package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.InDelta(t, 0.3, cfg.Router.ComplexityThreshold, 1e-9)
	require.True(t, cfg.Router.EnableToolCalling)
	require.Equal(t, 5*time.Second, cfg.Tools.CallTimeout)
	require.Equal(t, 30*24*time.Hour, cfg.Memory.PromotionAge)
	require.InDelta(t, 0.05, cfg.Memory.RemovalFloor, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
router:
  complexity_threshold: 0.5
  enable_tool_calling: false
memory:
  decay_rate: 0.2
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	require.InDelta(t, 0.5, cfg.Router.ComplexityThreshold, 1e-9)
	require.False(t, cfg.Router.EnableToolCalling)
	require.InDelta(t, 0.2, cfg.Memory.DecayRate, 1e-9)
	// Untouched fields keep defaults.
	require.Equal(t, 5*time.Second, cfg.Tools.CallTimeout)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router:\n  complexity_threshold: 0.5\n"), 0o600))

	t.Setenv("REVERIE_ROUTER_COMPLEXITY_THRESHOLD", "0.75")
	t.Setenv("REVERIE_TOOLS_CALL_TIMEOUT", "2s")
	t.Setenv("REVERIE_ROUTER_ENABLE_TOOL_CALLING", "false")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	require.InDelta(t, 0.75, cfg.Router.ComplexityThreshold, 1e-9)
	require.Equal(t, 2*time.Second, cfg.Tools.CallTimeout)
	require.False(t, cfg.Router.EnableToolCalling)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().WithConfigPath("/does/not/exist.yaml").Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router: [not a map"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoad_CustomValidator(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			return c.Validate()
		}).
		WithValidator(func(c *Config) error {
			if c.Server.MetricsPort == 9091 {
				return os.ErrInvalid
			}
			return nil
		}).
		Load()
	require.Error(t, err)
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Router.ComplexityThreshold = 1.5
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Memory.DecayRate = -0.1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.MetricsPort = 0
	require.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	t.Parallel()

	d := DefaultDatabaseConfig()
	d.Host = "db.internal"
	d.Password = "secret"
	dsn := d.DSN()
	require.Contains(t, dsn, "host=db.internal")
	require.Contains(t, dsn, "password=secret")
	require.Contains(t, dsn, "sslmode=disable")
}
