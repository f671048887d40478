package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Input validation errors. Policy rejections are never errors; these cover
// malformed decisions only.
var (
	ErrNilDecision  = errors.New("handoff: nil decision")
	ErrSelfHandoff  = errors.New("handoff: source and target bot are identical")
	ErrUnknownBot   = errors.New("handoff: unknown bot type")
	ErrUnknownRoute = errors.New("handoff: no such route configured")
)

// Rejection reason prefixes reported to callers on policy rejections.
const (
	reasonConcurrent = "concurrent handoff in progress"
	reasonCircular   = "circular handoff prevention"
)

// EventSink receives best-effort analytics events. A failing or slow sink
// must never fail or stall a handoff, so implementations should return
// quickly; errors are logged and swallowed by the service.
type EventSink interface {
	TrackEvent(ctx context.Context, eventType, locationID, contactID string, data map[string]any) error
}

// Store is an optional durable mirror for the coordinator's in-memory
// state. Writes are best-effort; reads are used only to rebuild state at
// startup.
type Store interface {
	AppendHistory(ctx context.Context, contactID string, entry HistoryEntry) error
	AppendOutcome(ctx context.Context, rec OutcomeRecord) error
	LoadHistory(ctx context.Context, since time.Time) (map[string][]HistoryEntry, error)
	LoadOutcomes(ctx context.Context) ([]OutcomeRecord, error)
}

// MetricsRecorder receives execution-path measurements, typically exported
// to Prometheus. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordHandoff(route Route, status string, d time.Duration)
	RecordBlocked(reason string)
	RecordOutcome(route Route, outcome Outcome)
}

// Service is the cross-bot handoff coordinator. It owns all mutable state
// (history, outcomes, locks, analytics) behind synchronized accessors;
// construct a fresh instance per test for clean isolation.
type Service struct {
	cfg       Config
	extractor *IntentExtractor
	history   *historyLog
	learner   *Learner
	locks     *LockManager
	analytics *Analytics
	sink      EventSink
	store     Store
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// Option configures optional collaborators on a Service.
type Option func(*Service)

// WithEventSink attaches a best-effort analytics event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithStore attaches a durable mirror for history and outcomes.
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a coordinator from the given configuration. A nil
// logger is replaced with a no-op logger.
func NewService(cfg Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		extractor: NewIntentExtractor(),
		history:   newHistoryLog(cfg.HistoryRetention),
		learner:   NewLearner(cfg.MinLearningSamples, logger),
		locks:     NewLockManager(cfg.LockTimeout),
		analytics: NewAnalytics(),
		logger:    logger.With(zap.String("component", "handoff_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Extractor exposes the intent extractor for callers that score messages
// before evaluating.
func (s *Service) Extractor() *IntentExtractor {
	return s.extractor
}

// ExecuteHandoff validates a decision against the lock, circular, and rate
// guards, and on success returns the tag-mutation action list the caller
// must apply. Policy rejections come back as a result with Executed=false
// and a specific reason; errors cover malformed input only.
func (s *Service) ExecuteHandoff(ctx context.Context, decision *Decision, contactID, locationID string) (*ExecutionResult, error) {
	start := time.Now()

	if decision == nil {
		return nil, ErrNilDecision
	}
	if !decision.SourceBot.Valid() || !decision.TargetBot.Valid() {
		return nil, ErrUnknownBot
	}
	if decision.SourceBot == decision.TargetBot {
		return nil, ErrSelfHandoff
	}
	route := decision.Route()
	if _, ok := s.cfg.Thresholds[route]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}

	if !s.locks.TryAcquire(contactID) {
		s.analytics.RecordBlocked(blockedByLock)
		s.recordBlockedMetric("lock")
		s.logger.Info("handoff rejected: lock held",
			zap.String("contact_id", contactID),
			zap.String("route", route.String()),
		)
		return &ExecutionResult{Reason: reasonConcurrent, Duration: time.Since(start)}, nil
	}
	// Release on every exit path so a contact is never left locked.
	defer s.locks.Release(contactID)

	s.history.Prune(contactID)

	if s.history.HasRecentRoute(contactID, route, s.cfg.CircularWindow) {
		s.analytics.RecordBlocked(blockedByCircular)
		s.recordBlockedMetric("circular")
		s.emitEvent(ctx, "handoff_blocked_circular", locationID, contactID, map[string]any{
			"route": route.String(),
		})
		s.logger.Info("handoff rejected: circular prevention",
			zap.String("contact_id", contactID),
			zap.String("route", route.String()),
		)
		return &ExecutionResult{Reason: reasonCircular, Duration: time.Since(start)}, nil
	}

	if n := s.history.CountSince(contactID, time.Hour); n >= s.cfg.HourlyLimit {
		return s.rejectRateLimited(ctx, contactID, locationID, route, start,
			fmt.Sprintf("hourly rate limit exceeded (%d per hour)", s.cfg.HourlyLimit), n), nil
	}
	if n := s.history.CountSince(contactID, 24*time.Hour); n >= s.cfg.DailyLimit {
		return s.rejectRateLimited(ctx, contactID, locationID, route, start,
			fmt.Sprintf("daily rate limit exceeded (%d per 24h)", s.cfg.DailyLimit), n), nil
	}

	actions := s.buildActions(decision.SourceBot, decision.TargetBot)

	s.emitEvent(ctx, "handoff_executed", locationID, contactID, map[string]any{
		"decision_id": decision.ID,
		"route":       route.String(),
		"reason":      decision.Reason,
		"confidence":  decision.Confidence,
	})

	entry := HistoryEntry{From: decision.SourceBot, To: decision.TargetBot, Timestamp: time.Now()}
	s.history.Append(contactID, entry)
	s.mirrorHistory(ctx, contactID, entry)

	elapsed := time.Since(start)
	s.analytics.RecordSuccess(route, entry.Timestamp.Hour(), elapsed)
	if s.metrics != nil {
		s.metrics.RecordHandoff(route, "success", elapsed)
	}

	s.logger.Info("handoff executed",
		zap.String("contact_id", contactID),
		zap.String("route", route.String()),
		zap.Float64("confidence", decision.Confidence),
		zap.Duration("elapsed", elapsed),
	)

	return &ExecutionResult{Executed: true, Actions: actions, Duration: elapsed}, nil
}

func (s *Service) rejectRateLimited(ctx context.Context, contactID, locationID string, route Route, start time.Time, reason string, count int) *ExecutionResult {
	s.analytics.RecordBlocked(blockedByRateLimit)
	s.recordBlockedMetric("rate_limit")
	s.emitEvent(ctx, "handoff_blocked_rate_limit", locationID, contactID, map[string]any{
		"route":  route.String(),
		"reason": reason,
		"count":  count,
	})
	s.logger.Info("handoff rejected: rate limit",
		zap.String("contact_id", contactID),
		zap.String("route", route.String()),
		zap.String("reason", reason),
	)
	return &ExecutionResult{Reason: reason, Duration: time.Since(start)}
}

// buildActions produces the tag mutations for a transfer: drop the source
// bot's activation tag, add the target's, and add the tracking tag.
func (s *Service) buildActions(source, target BotType) []TagAction {
	actions := make([]TagAction, 0, 3)
	if tag, ok := s.cfg.ActivationTags[source]; ok {
		actions = append(actions, TagAction{Type: ActionRemoveTag, Tag: tag})
	}
	if tag, ok := s.cfg.ActivationTags[target]; ok {
		actions = append(actions, TagAction{Type: ActionAddTag, Tag: tag})
	}
	actions = append(actions, TagAction{
		Type: ActionAddTag,
		Tag:  fmt.Sprintf("Handoff-%s-to-%s", source.Title(), target.Title()),
	})
	return actions
}

// RecordOutcome feeds one post-hoc outcome label into the learner. Invalid
// labels are logged and dropped inside the learner; callers never see an
// error for them.
func (s *Service) RecordOutcome(ctx context.Context, contactID string, source, target BotType, outcome Outcome, metadata map[string]any) {
	s.learner.Record(contactID, source, target, outcome, metadata)

	if outcome.Valid() && source.Valid() && target.Valid() && source != target {
		route := Route{Source: source, Target: target}
		if s.metrics != nil {
			s.metrics.RecordOutcome(route, outcome)
		}
		s.mirrorOutcome(ctx, OutcomeRecord{
			ContactID: contactID,
			Route:     route,
			Outcome:   outcome,
			Timestamp: time.Now(),
			Metadata:  metadata,
		})
	}
}

// LearnedAdjustment exposes the learner's verdict for a route.
func (s *Service) LearnedAdjustment(source, target BotType) LearnedAdjustment {
	return s.learner.Adjustment(source, target)
}

// RecordExecutionFailure counts a handoff whose action list could not be
// applied downstream. ExecuteHandoff has no failing step after its guards
// pass, so the failed totals are fed by the caller that owns tag application.
func (s *Service) RecordExecutionFailure(route Route) {
	if !route.Source.Valid() || !route.Target.Valid() || route.Source == route.Target {
		s.logger.Warn("dropping execution failure with invalid route",
			zap.String("route", route.String()),
		)
		return
	}

	s.analytics.RecordFailure(route)
	if s.metrics != nil {
		s.metrics.RecordHandoff(route, "failed", 0)
	}
	s.logger.Warn("handoff failed downstream",
		zap.String("route", route.String()),
	)
}

// AnalyticsSummary returns a point-in-time view of the analytics ledger.
func (s *Service) AnalyticsSummary() Summary {
	return s.analytics.Summary()
}

// Restore rebuilds the in-memory history and outcome ledgers from the
// attached store. Without a store it is a no-op.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	histories, err := s.store.LoadHistory(ctx, time.Now().Add(-s.cfg.HistoryRetention))
	if err != nil {
		return fmt.Errorf("restore history: %w", err)
	}
	for contactID, entries := range histories {
		s.history.Restore(contactID, entries)
	}

	outcomes, err := s.store.LoadOutcomes(ctx)
	if err != nil {
		return fmt.Errorf("restore outcomes: %w", err)
	}
	s.learner.restore(outcomes)

	s.logger.Info("restored state from store",
		zap.Int("contacts", len(histories)),
		zap.Int("outcomes", len(outcomes)),
	)
	return nil
}

// emitEvent fires a best-effort event to the external sink. Errors are
// logged and swallowed: telemetry must never invalidate a handoff.
func (s *Service) emitEvent(ctx context.Context, eventType, locationID, contactID string, data map[string]any) {
	if s.sink == nil {
		return
	}
	if err := s.sink.TrackEvent(ctx, eventType, locationID, contactID, data); err != nil {
		s.logger.Warn("event sink failed",
			zap.String("event_type", eventType),
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
	}
}

func (s *Service) mirrorHistory(ctx context.Context, contactID string, entry HistoryEntry) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendHistory(ctx, contactID, entry); err != nil {
		s.logger.Warn("history mirror failed", zap.String("contact_id", contactID), zap.Error(err))
	}
}

func (s *Service) mirrorOutcome(ctx context.Context, rec OutcomeRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendOutcome(ctx, rec); err != nil {
		s.logger.Warn("outcome mirror failed", zap.String("contact_id", rec.ContactID), zap.Error(err))
	}
}

func (s *Service) recordBlockedMetric(reason string) {
	if s.metrics != nil {
		s.metrics.RecordBlocked(reason)
	}
}
