package handoff

import (
	"fmt"
	"strings"
	"time"
)

// BotType identifies one of the three conversation personas.
type BotType string

const (
	BotLead   BotType = "lead"
	BotBuyer  BotType = "buyer"
	BotSeller BotType = "seller"
)

// Valid reports whether b is one of the known personas.
func (b BotType) Valid() bool {
	switch b {
	case BotLead, BotBuyer, BotSeller:
		return true
	}
	return false
}

func (b BotType) String() string { return string(b) }

// Title returns the persona name with a leading capital, as used in
// tracking tags ("Handoff-Lead-to-Buyer").
func (b BotType) Title() string {
	s := string(b)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseBotType converts an external string into a BotType.
func ParseBotType(s string) (BotType, error) {
	b := BotType(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("unknown bot type: %q", s)
	}
	return b, nil
}

// Outcome labels a completed handoff after the fact.
type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeReverted   Outcome = "reverted"
	OutcomeTimeout    Outcome = "timeout"
)

// Valid reports whether o is one of the known outcome labels.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccessful, OutcomeFailed, OutcomeReverted, OutcomeTimeout:
		return true
	}
	return false
}

func (o Outcome) String() string { return string(o) }

// ParseOutcome converts an external string into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome: %q", s)
	}
	return o, nil
}

// Route is an ordered (source, target) pair. It is the unit of threshold
// learning and of circular-handoff detection.
type Route struct {
	Source BotType `json:"source"`
	Target BotType `json:"target"`
}

func (r Route) String() string {
	return string(r.Source) + "->" + string(r.Target)
}

// ActionType is the kind of tag mutation the caller must apply.
type ActionType string

const (
	ActionAddTag    ActionType = "add_tag"
	ActionRemoveTag ActionType = "remove_tag"
)

// TagAction is one mutation of the contact record's tag set. Applying the
// action list is the caller's responsibility; the coordinator never touches
// the contact record itself.
type TagAction struct {
	Type ActionType `json:"type"`
	Tag  string     `json:"tag"`
}

// DecisionContext carries the evidence behind a Decision: what was matched,
// how long the conversation is, and the learning state consulted.
type DecisionContext struct {
	DetectedPhrases    []string            `json:"detected_phrases,omitempty"`
	ConversationTurns  int                 `json:"conversation_turns"`
	LearnedAdjustment  float64             `json:"learned_adjustment"`
	LearnedSuccessRate float64             `json:"learned_success_rate"`
	LearnedSampleSize  int                 `json:"learned_sample_size"`
	HistorySignals     map[BotType]float64 `json:"history_signals,omitempty"`

	// Extra holds forward-compatible extension fields.
	Extra map[string]any `json:"extra,omitempty"`
}

// Decision is a proposed transfer from one bot to another. It is created by
// EvaluateHandoff, is immutable, and is consumed once by ExecuteHandoff.
type Decision struct {
	ID         string          `json:"id"`
	SourceBot  BotType         `json:"source_bot"`
	TargetBot  BotType         `json:"target_bot"`
	Reason     string          `json:"reason"`
	Confidence float64         `json:"confidence"`
	Context    DecisionContext `json:"context"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Route returns the directed route this decision proposes.
func (d *Decision) Route() Route {
	return Route{Source: d.SourceBot, Target: d.TargetBot}
}

// HistoryEntry records one completed handoff for a contact.
type HistoryEntry struct {
	From      BotType   `json:"from"`
	To        BotType   `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// OutcomeRecord is one post-hoc outcome label for a completed handoff.
// Records are append-only and read only in aggregate by the learner.
type OutcomeRecord struct {
	ContactID string         `json:"contact_id"`
	Route     Route          `json:"route"`
	Outcome   Outcome        `json:"outcome"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LearnedAdjustment is the learner's verdict for one route. When SampleSize
// is below the learning minimum, Adjustment and SuccessRate are both zero
// (insufficient-data sentinel, not a true rate).
type LearnedAdjustment struct {
	Adjustment  float64 `json:"adjustment"`
	SuccessRate float64 `json:"success_rate"`
	SampleSize  int     `json:"sample_size"`
}

// ExecutionResult is the outcome of one ExecuteHandoff call. Policy
// rejections are normal results: Executed is false and Reason names the
// specific guard that fired.
type ExecutionResult struct {
	Executed bool          `json:"executed"`
	Reason   string        `json:"reason,omitempty"`
	Actions  []TagAction   `json:"actions,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}
