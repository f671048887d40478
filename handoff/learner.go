package handoff

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Learning constants. Success-rate bands and their threshold deltas are
// production-tuned values.
const (
	highSuccessRate = 0.8
	lowSuccessRate  = 0.5

	adjustEasier = -0.05
	adjustHarder = 0.10
)

// Learner converts per-route outcome history into threshold adjustments.
// The outcome window is unbounded: no decay, no pruning.
type Learner struct {
	minSamples int
	logger     *zap.Logger
	mu         sync.Mutex
	outcomes   map[Route][]OutcomeRecord
}

// NewLearner creates a learner that stays neutral until a route has at
// least minSamples recorded outcomes.
func NewLearner(minSamples int, logger *zap.Logger) *Learner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{
		minSamples: minSamples,
		logger:     logger.With(zap.String("component", "threshold_learner")),
		outcomes:   make(map[Route][]OutcomeRecord),
	}
}

// Record appends one outcome for a route. Invalid outcome labels and
// malformed routes are logged and dropped, never propagated.
func (l *Learner) Record(contactID string, source, target BotType, outcome Outcome, metadata map[string]any) {
	if !outcome.Valid() {
		l.logger.Warn("dropping outcome with unknown label",
			zap.String("contact_id", contactID),
			zap.String("outcome", string(outcome)),
		)
		return
	}
	if !source.Valid() || !target.Valid() || source == target {
		l.logger.Warn("dropping outcome with invalid route",
			zap.String("contact_id", contactID),
			zap.String("source", string(source)),
			zap.String("target", string(target)),
		)
		return
	}

	rec := OutcomeRecord{
		ContactID: contactID,
		Route:     Route{Source: source, Target: target},
		Outcome:   outcome,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}

	l.mu.Lock()
	l.outcomes[rec.Route] = append(l.outcomes[rec.Route], rec)
	sampleSize := len(l.outcomes[rec.Route])
	l.mu.Unlock()

	l.logger.Debug("recorded handoff outcome",
		zap.String("contact_id", contactID),
		zap.String("route", rec.Route.String()),
		zap.String("outcome", string(outcome)),
		zap.Int("sample_size", sampleSize),
	)
}

// Adjustment returns the learned threshold delta for a route. Below the
// sample minimum it returns the zero sentinel.
func (l *Learner) Adjustment(source, target BotType) LearnedAdjustment {
	route := Route{Source: source, Target: target}

	l.mu.Lock()
	records := l.outcomes[route]
	sampleSize := len(records)
	successes := 0
	for _, rec := range records {
		if rec.Outcome == OutcomeSuccessful {
			successes++
		}
	}
	l.mu.Unlock()

	if sampleSize < l.minSamples {
		return LearnedAdjustment{SampleSize: sampleSize}
	}

	result := LearnedAdjustment{
		SuccessRate: float64(successes) / float64(sampleSize),
		SampleSize:  sampleSize,
	}
	switch {
	case result.SuccessRate > highSuccessRate:
		result.Adjustment = adjustEasier
	case result.SuccessRate < lowSuccessRate:
		result.Adjustment = adjustHarder
	}
	return result
}

// SampleSize returns how many outcomes a route has accumulated.
func (l *Learner) SampleSize(source, target BotType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes[Route{Source: source, Target: target}])
}

// restore replaces the ledger wholesale when rebuilding from a mirror.
func (l *Learner) restore(records []OutcomeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = make(map[Route][]OutcomeRecord, len(records))
	for _, rec := range records {
		if !rec.Outcome.Valid() {
			continue
		}
		l.outcomes[rec.Route] = append(l.outcomes[rec.Route], rec)
	}
}
