package config

import (
	"fmt"
	"time"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff/persistence"
)

// Config is the full service configuration. Precedence: defaults → YAML
// file → environment variables.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Handoff  HandoffConfig           `yaml:"handoff"`
	Redis    persistence.RedisConfig `yaml:"redis"`
	Database DatabaseConfig          `yaml:"database"`
	Auth     AuthConfig              `yaml:"auth"`
	Log      LogConfig               `yaml:"log"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port"`
	MetricsPort     int           `yaml:"metrics_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimitRPS / RateLimitBurst bound per-client-IP request rates.
	// Zero RPS disables the limiter.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// HandoffConfig is the YAML shape of the coordinator tuning. Routes and
// bots are string-keyed here and converted to closed types by Coordinator.
type HandoffConfig struct {
	// Thresholds maps "source->target" route names to base thresholds.
	Thresholds map[string]float64 `yaml:"thresholds"`

	// ActivationTags maps bot names to their external activation tags.
	ActivationTags map[string]string `yaml:"activation_tags"`

	CircularWindow     time.Duration `yaml:"circular_window"`
	HourlyLimit        int           `yaml:"hourly_limit"`
	DailyLimit         int           `yaml:"daily_limit"`
	HistoryRetention   time.Duration `yaml:"history_retention"`
	LockTimeout        time.Duration `yaml:"lock_timeout"`
	MinLearningSamples int           `yaml:"min_learning_samples"`

	// Store selects the durable mirror: "none", "redis", or "sqlite".
	Store string `yaml:"store"`
}

// DatabaseConfig configures the SQLite mirror.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig configures the optional JWT middleware. An empty secret
// disables authentication.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// Default returns the production defaults. Handoff tuning defaults live in
// the handoff package; this mirrors them into their YAML shape.
func Default() *Config {
	hc := handoff.DefaultConfig()

	thresholds := make(map[string]float64, len(hc.Thresholds))
	for route, threshold := range hc.Thresholds {
		thresholds[route.String()] = threshold
	}
	tags := make(map[string]string, len(hc.ActivationTags))
	for bot, tag := range hc.ActivationTags {
		tags[string(bot)] = tag
	}

	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		Handoff: HandoffConfig{
			Thresholds:         thresholds,
			ActivationTags:     tags,
			CircularWindow:     hc.CircularWindow,
			HourlyLimit:        hc.HourlyLimit,
			DailyLimit:         hc.DailyLimit,
			HistoryRetention:   hc.HistoryRetention,
			LockTimeout:        hc.LockTimeout,
			MinLearningSamples: hc.MinLearningSamples,
			Store:              "none",
		},
		Redis: persistence.RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Database: DatabaseConfig{
			Path: "jorge-handoff.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Coordinator converts the YAML shape into the typed handoff.Config.
func (c *Config) Coordinator() (handoff.Config, error) {
	out := handoff.DefaultConfig()

	if len(c.Handoff.Thresholds) > 0 {
		out.Thresholds = make(map[handoff.Route]float64, len(c.Handoff.Thresholds))
		for name, threshold := range c.Handoff.Thresholds {
			route, err := parseRoute(name)
			if err != nil {
				return handoff.Config{}, err
			}
			out.Thresholds[route] = threshold
		}
	}
	if len(c.Handoff.ActivationTags) > 0 {
		out.ActivationTags = make(map[handoff.BotType]string, len(c.Handoff.ActivationTags))
		for name, tag := range c.Handoff.ActivationTags {
			bot, err := handoff.ParseBotType(name)
			if err != nil {
				return handoff.Config{}, fmt.Errorf("activation tag: %w", err)
			}
			out.ActivationTags[bot] = tag
		}
	}

	out.CircularWindow = c.Handoff.CircularWindow
	out.HourlyLimit = c.Handoff.HourlyLimit
	out.DailyLimit = c.Handoff.DailyLimit
	out.HistoryRetention = c.Handoff.HistoryRetention
	out.LockTimeout = c.Handoff.LockTimeout
	out.MinLearningSamples = c.Handoff.MinLearningSamples

	if err := out.Validate(); err != nil {
		return handoff.Config{}, err
	}
	return out, nil
}

// parseRoute parses "source->target" route names.
func parseRoute(name string) (handoff.Route, error) {
	parts := splitRoute(name)
	if len(parts) != 2 {
		return handoff.Route{}, fmt.Errorf("invalid route %q, want \"source->target\"", name)
	}
	source, err := handoff.ParseBotType(parts[0])
	if err != nil {
		return handoff.Route{}, fmt.Errorf("route %q: %w", name, err)
	}
	target, err := handoff.ParseBotType(parts[1])
	if err != nil {
		return handoff.Route{}, fmt.Errorf("route %q: %w", name, err)
	}
	return handoff.Route{Source: source, Target: target}, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port: %d", c.Server.MetricsPort)
	}
	if c.Server.HTTPPort == c.Server.MetricsPort {
		return fmt.Errorf("http_port and metrics_port collide: %d", c.Server.HTTPPort)
	}
	switch c.Handoff.Store {
	case "", "none", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown handoff store %q, want none|redis|sqlite", c.Handoff.Store)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if _, err := c.Coordinator(); err != nil {
		return err
	}
	return nil
}
