package handoff

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvaluateHandoff decides whether the conversation should transfer away
// from currentBot. It is a pure decision: no state is mutated, and a nil
// return means "stay put". The decision carries the evidence that produced
// it so execution and later audits can see what was consulted.
func (s *Service) EvaluateHandoff(currentBot BotType, contactID string, conversationHistory []string, signals IntentSignals) *Decision {
	if !currentBot.Valid() {
		return nil
	}

	buyerScore := signals.BuyerScore
	sellerScore := signals.SellerScore

	// Conversation history reinforces, but never dominates, the current
	// message: history signal enters at half weight, capped per direction.
	var historySignals map[BotType]float64
	if len(conversationHistory) > 0 {
		historySignals = s.extractor.ExtractFromHistory(conversationHistory)
		buyerScore = capScore(buyerScore + historySignals[BotBuyer]*historyBlendWeight)
		sellerScore = capScore(sellerScore + historySignals[BotSeller]*historyBlendWeight)
	}

	// Strict > comparison: exactly tied scores never trigger a handoff.
	var target BotType
	var score float64
	switch {
	case (currentBot == BotLead || currentBot == BotSeller) && buyerScore > sellerScore:
		target = BotBuyer
		score = buyerScore
	case (currentBot == BotLead || currentBot == BotBuyer) && sellerScore > buyerScore:
		target = BotSeller
		score = sellerScore
	default:
		return nil
	}

	if target == currentBot {
		return nil
	}

	route := Route{Source: currentBot, Target: target}
	base, ok := s.cfg.Thresholds[route]
	if !ok {
		return nil
	}

	learned := s.learner.Adjustment(currentBot, target)
	effective := clamp01(base + learned.Adjustment)

	if score < effective {
		s.logger.Debug("handoff below threshold",
			zap.String("contact_id", contactID),
			zap.String("route", route.String()),
			zap.Float64("score", score),
			zap.Float64("effective_threshold", effective),
		)
		return nil
	}

	decision := &Decision{
		ID:         uuid.New().String(),
		SourceBot:  currentBot,
		TargetBot:  target,
		Reason:     fmt.Sprintf("%s_intent_detected", target),
		Confidence: score,
		Context: DecisionContext{
			DetectedPhrases:    signals.DetectedPhrases,
			ConversationTurns:  len(conversationHistory),
			LearnedAdjustment:  learned.Adjustment,
			LearnedSuccessRate: learned.SuccessRate,
			LearnedSampleSize:  learned.SampleSize,
			HistorySignals:     historySignals,
		},
		CreatedAt: time.Now(),
	}

	s.logger.Info("handoff decision",
		zap.String("contact_id", contactID),
		zap.String("route", route.String()),
		zap.Float64("confidence", score),
		zap.Float64("effective_threshold", effective),
	)
	return decision
}

// EvaluateMessage scores a raw message through the intent extractor and
// then evaluates it, as a convenience for callers holding free text rather
// than precomputed signals.
func (s *Service) EvaluateMessage(currentBot BotType, contactID string, conversationHistory []string, message string) *Decision {
	return s.EvaluateHandoff(currentBot, contactID, conversationHistory, s.extractor.Extract(message))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
