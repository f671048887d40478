package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, an optional YAML file, and
// environment variable overrides, in that order.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the default JORGE env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "JORGE"}
}

// WithConfigPath sets the YAML file to load. Without it only defaults and
// environment variables apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the configuration and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides scalar fields from environment variables named
// {PREFIX}_{SECTION}_{FIELD}, e.g. JORGE_SERVER_HTTP_PORT.
func (l *Loader) applyEnv(cfg *Config) error {
	var err error

	setInt := func(key string, dst *int) {
		if err != nil {
			return
		}
		if raw, ok := l.lookup(key); ok {
			v, parseErr := strconv.Atoi(raw)
			if parseErr != nil {
				err = fmt.Errorf("env %s: %w", l.key(key), parseErr)
				return
			}
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) {
		if err != nil {
			return
		}
		if raw, ok := l.lookup(key); ok {
			v, parseErr := strconv.ParseFloat(raw, 64)
			if parseErr != nil {
				err = fmt.Errorf("env %s: %w", l.key(key), parseErr)
				return
			}
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if err != nil {
			return
		}
		if raw, ok := l.lookup(key); ok {
			v, parseErr := time.ParseDuration(raw)
			if parseErr != nil {
				err = fmt.Errorf("env %s: %w", l.key(key), parseErr)
				return
			}
			*dst = v
		}
	}
	setString := func(key string, dst *string) {
		if raw, ok := l.lookup(key); ok {
			*dst = raw
		}
	}

	setInt("SERVER_HTTP_PORT", &cfg.Server.HTTPPort)
	setInt("SERVER_METRICS_PORT", &cfg.Server.MetricsPort)
	setDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setFloat("SERVER_RATE_LIMIT_RPS", &cfg.Server.RateLimitRPS)
	setInt("SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimitBurst)

	setDuration("HANDOFF_CIRCULAR_WINDOW", &cfg.Handoff.CircularWindow)
	setInt("HANDOFF_HOURLY_LIMIT", &cfg.Handoff.HourlyLimit)
	setInt("HANDOFF_DAILY_LIMIT", &cfg.Handoff.DailyLimit)
	setDuration("HANDOFF_HISTORY_RETENTION", &cfg.Handoff.HistoryRetention)
	setDuration("HANDOFF_LOCK_TIMEOUT", &cfg.Handoff.LockTimeout)
	setInt("HANDOFF_MIN_LEARNING_SAMPLES", &cfg.Handoff.MinLearningSamples)
	setString("HANDOFF_STORE", &cfg.Handoff.Store)

	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("REDIS_DB", &cfg.Redis.DB)

	setString("DATABASE_PATH", &cfg.Database.Path)

	setString("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("AUTH_ISSUER", &cfg.Auth.Issuer)
	setString("AUTH_AUDIENCE", &cfg.Auth.Audience)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	return err
}

func (l *Loader) key(suffix string) string {
	return l.envPrefix + "_" + suffix
}

func (l *Loader) lookup(suffix string) (string, bool) {
	raw, ok := os.LookupEnv(l.key(suffix))
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

// splitRoute splits "source->target" into its two halves.
func splitRoute(name string) []string {
	parts := strings.Split(name, "->")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
