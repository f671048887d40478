package handoff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(DefaultConfig(), zap.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func TestEvaluateHandoff_BuyerIntentFromLead(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotLead, "c1", nil, IntentSignals{BuyerScore: 0.8, SellerScore: 0.1})

	require.NotNil(t, d)
	assert.Equal(t, BotLead, d.SourceBot)
	assert.Equal(t, BotBuyer, d.TargetBot)
	assert.Equal(t, "buyer_intent_detected", d.Reason)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
	assert.NotEmpty(t, d.ID)
	assert.Zero(t, d.Context.LearnedSampleSize)
}

func TestEvaluateHandoff_BelowThreshold(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotLead, "c1", nil, IntentSignals{BuyerScore: 0.65, SellerScore: 0.1})

	assert.Nil(t, d, "0.65 is below the 0.70 lead->buyer threshold")
}

func TestEvaluateHandoff_TiedScoresStay(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotLead, "c1", nil, IntentSignals{BuyerScore: 0.9, SellerScore: 0.9})

	assert.Nil(t, d, "exactly tied scores must not trigger a handoff")
}

func TestEvaluateHandoff_SelfHandoffImpossible(t *testing.T) {
	s := newTestService(t)

	// A buyer-direction signal while the buyer bot already owns the
	// conversation has no edge to follow.
	d := s.EvaluateHandoff(BotBuyer, "c1", nil, IntentSignals{BuyerScore: 1.0})
	assert.Nil(t, d)

	d = s.EvaluateHandoff(BotSeller, "c1", nil, IntentSignals{SellerScore: 1.0})
	assert.Nil(t, d)
}

func TestEvaluateHandoff_BuyerToSellerNeedsHigherBar(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotBuyer, "c1", nil, IntentSignals{SellerScore: 0.75})
	assert.Nil(t, d, "0.75 is below the 0.80 buyer->seller threshold")

	d = s.EvaluateHandoff(BotBuyer, "c1", nil, IntentSignals{SellerScore: 0.85})
	require.NotNil(t, d)
	assert.Equal(t, BotSeller, d.TargetBot)
}

func TestEvaluateHandoff_SellerToBuyerLowerBar(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotSeller, "c1", nil, IntentSignals{BuyerScore: 0.65})

	require.NotNil(t, d)
	assert.Equal(t, BotSeller, d.SourceBot)
	assert.Equal(t, BotBuyer, d.TargetBot)
}

func TestEvaluateHandoff_HistoryBlending(t *testing.T) {
	s := newTestService(t)

	history := []string{"we are house hunting", "want to buy soon"}

	// Message signal alone (0.6) misses the 0.70 bar; blended history
	// signal (2 matches * 0.2 * 0.5 = 0.2) lifts it over.
	d := s.EvaluateHandoff(BotLead, "c1", history, IntentSignals{BuyerScore: 0.6})

	require.NotNil(t, d)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
	assert.InDelta(t, 0.4, d.Context.HistorySignals[BotBuyer], 1e-9)
	assert.Equal(t, 2, d.Context.ConversationTurns)
}

func TestEvaluateHandoff_BlendedScoreCapped(t *testing.T) {
	s := newTestService(t)

	history := []string{
		"sell my house", "list my home", "thinking of selling",
		"ready to sell", "home value please",
	}
	d := s.EvaluateHandoff(BotLead, "c1", history, IntentSignals{SellerScore: 0.9})

	require.NotNil(t, d)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestEvaluateHandoff_UnknownBot(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateHandoff(BotType("concierge"), "c1", nil, IntentSignals{BuyerScore: 1.0})

	assert.Nil(t, d)
}

func TestEvaluateHandoff_LearnedAdjustmentRaisesBar(t *testing.T) {
	s := newTestService(t)

	// A struggling route (<0.5 success) adds +0.10 to the base threshold.
	for i := 0; i < 10; i++ {
		s.RecordOutcome(context.Background(), "c1", BotLead, BotBuyer, OutcomeFailed, nil)
	}

	d := s.EvaluateHandoff(BotLead, "c1", nil, IntentSignals{BuyerScore: 0.75})
	assert.Nil(t, d, "0.75 is below the adjusted 0.80 threshold")

	d = s.EvaluateHandoff(BotLead, "c1", nil, IntentSignals{BuyerScore: 0.85})
	require.NotNil(t, d)
	assert.InDelta(t, 0.10, d.Context.LearnedAdjustment, 1e-9)
	assert.Equal(t, 10, d.Context.LearnedSampleSize)
}

func TestEvaluateHandoff_LearnedAdjustmentLowersBar(t *testing.T) {
	s := newTestService(t)

	for i := 0; i < 10; i++ {
		s.RecordOutcome(context.Background(), "c1", BotSeller, BotBuyer, OutcomeSuccessful, nil)
	}

	// 0.58 is below the 0.60 base but above the adjusted 0.55.
	d := s.EvaluateHandoff(BotSeller, "c1", nil, IntentSignals{BuyerScore: 0.58})

	require.NotNil(t, d)
	assert.InDelta(t, -0.05, d.Context.LearnedAdjustment, 1e-9)
	assert.InDelta(t, 1.0, d.Context.LearnedSuccessRate, 1e-9)
}

func TestEvaluateMessage_EndToEnd(t *testing.T) {
	s := newTestService(t)

	d := s.EvaluateMessage(BotLead, "c1", nil,
		"we're pre-approved for a mortgage and want to buy a house")

	require.NotNil(t, d)
	assert.Equal(t, BotBuyer, d.TargetBot)
	assert.Contains(t, d.Context.DetectedPhrases, "buyer intent detected")
}
