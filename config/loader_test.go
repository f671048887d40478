package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, 3, cfg.Handoff.HourlyLimit)
	assert.Equal(t, 10, cfg.Handoff.DailyLimit)
	assert.Equal(t, 30*time.Minute, cfg.Handoff.CircularWindow)
	assert.Equal(t, "none", cfg.Handoff.Store)
	assert.InDelta(t, 0.70, cfg.Handoff.Thresholds["lead->buyer"], 1e-9)
	assert.InDelta(t, 0.60, cfg.Handoff.Thresholds["seller->buyer"], 1e-9)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 9000
handoff:
  hourly_limit: 5
  circular_window: 15m
  thresholds:
    "lead->buyer": 0.65
    "lead->seller": 0.70
    "buyer->seller": 0.80
    "seller->buyer": 0.60
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 5, cfg.Handoff.HourlyLimit)
	assert.Equal(t, 15*time.Minute, cfg.Handoff.CircularWindow)
	assert.InDelta(t, 0.65, cfg.Handoff.Thresholds["lead->buyer"], 1e-9)
	// Untouched sections keep defaults.
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o600))

	t.Setenv("JORGE_SERVER_HTTP_PORT", "9100")
	t.Setenv("JORGE_HANDOFF_LOCK_TIMEOUT", "45s")
	t.Setenv("JORGE_LOG_LEVEL", "debug")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.Handoff.LockTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("JORGE_SERVER_HTTP_PORT", "not-a-port")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	cfg.Server.MetricsPort = cfg.Server.HTTPPort
	assert.Error(t, cfg.Validate(), "port collision must be rejected")

	cfg = Default()
	cfg.Handoff.Store = "mongodb"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Handoff.Thresholds = map[string]float64{"lead->concierge": 0.5}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Handoff.Thresholds = map[string]float64{"lead->buyer": 1.5}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Coordinator(t *testing.T) {
	cfg := Default()
	cfg.Handoff.Thresholds = map[string]float64{
		"lead->buyer": 0.55,
	}
	cfg.Handoff.ActivationTags = map[string]string{"buyer": "Buyer-Agent"}

	hc, err := cfg.Coordinator()
	require.NoError(t, err)

	assert.InDelta(t, 0.55, hc.Thresholds[handoff.Route{Source: handoff.BotLead, Target: handoff.BotBuyer}], 1e-9)
	assert.Equal(t, "Buyer-Agent", hc.ActivationTags[handoff.BotBuyer])
	assert.Len(t, hc.Thresholds, 1, "explicit thresholds replace, not merge")
}
