package handoff

import (
	"fmt"
	"time"
)

// Config tunes the coordinator's guards and learning behavior. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	// Thresholds maps each allowed route to its base confidence threshold.
	// Routes absent from the map are unreachable.
	Thresholds map[Route]float64

	// ActivationTags maps each bot to the external tag marking it as the
	// owner of the conversation. Bots without a mapping produce no
	// remove/add action for their side of a handoff.
	ActivationTags map[BotType]string

	// CircularWindow is how long an identical (source, target) handoff for
	// the same contact stays blocked after a successful transfer.
	CircularWindow time.Duration

	// HourlyLimit and DailyLimit bound handoffs per contact in rolling
	// 1-hour and 24-hour windows.
	HourlyLimit int
	DailyLimit  int

	// HistoryRetention is how long per-contact history entries are kept
	// before lazy cleanup discards them.
	HistoryRetention time.Duration

	// LockTimeout is the age past which a held per-contact lock is
	// considered stale and may be overwritten at acquire time.
	LockTimeout time.Duration

	// MinLearningSamples is how many outcomes a route needs before the
	// learner produces a non-zero adjustment.
	MinLearningSamples int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Thresholds: map[Route]float64{
			{Source: BotLead, Target: BotBuyer}:   0.70,
			{Source: BotLead, Target: BotSeller}:  0.70,
			{Source: BotBuyer, Target: BotSeller}: 0.80,
			{Source: BotSeller, Target: BotBuyer}: 0.60,
		},
		ActivationTags: map[BotType]string{
			BotLead:   "Jorge-Lead-Bot",
			BotBuyer:  "Jorge-Buyer-Bot",
			BotSeller: "Jorge-Seller-Bot",
		},
		CircularWindow:     30 * time.Minute,
		HourlyLimit:        3,
		DailyLimit:         10,
		HistoryRetention:   24 * time.Hour,
		LockTimeout:        30 * time.Second,
		MinLearningSamples: 10,
	}
}

// Validate checks the configuration for values the coordinator cannot run
// with.
func (c Config) Validate() error {
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("handoff config: no routes configured")
	}
	for route, threshold := range c.Thresholds {
		if !route.Source.Valid() || !route.Target.Valid() {
			return fmt.Errorf("handoff config: invalid route %s", route)
		}
		if route.Source == route.Target {
			return fmt.Errorf("handoff config: self-route %s", route)
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("handoff config: threshold %.2f for %s outside [0,1]", threshold, route)
		}
	}
	if c.HourlyLimit <= 0 || c.DailyLimit <= 0 {
		return fmt.Errorf("handoff config: rate limits must be positive")
	}
	if c.CircularWindow <= 0 || c.HistoryRetention <= 0 || c.LockTimeout <= 0 {
		return fmt.Errorf("handoff config: windows must be positive")
	}
	if c.MinLearningSamples <= 0 {
		return fmt.Errorf("handoff config: min learning samples must be positive")
	}
	return nil
}
