package handoff

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// Property: the learner's adjustment is fully determined by the sample
// count and success rate bands — zero below the minimum, −0.05 above the
// high band, +0.10 below the low band, zero in between.
func TestLearner_AdjustmentBands_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := NewLearner(10, zap.NewNop())

		total := rapid.IntRange(0, 60).Draw(t, "total")
		successes := rapid.IntRange(0, total).Draw(t, "successes")

		for i := 0; i < successes; i++ {
			l.Record("c1", BotLead, BotBuyer, OutcomeSuccessful, nil)
		}
		for i := 0; i < total-successes; i++ {
			l.Record("c1", BotLead, BotBuyer, OutcomeFailed, nil)
		}

		got := l.Adjustment(BotLead, BotBuyer)
		require.Equal(t, total, got.SampleSize)

		if total < 10 {
			require.Zero(t, got.Adjustment)
			require.Zero(t, got.SuccessRate)
			return
		}

		rate := float64(successes) / float64(total)
		require.InDelta(t, rate, got.SuccessRate, 1e-9)
		switch {
		case rate > highSuccessRate:
			require.InDelta(t, adjustEasier, got.Adjustment, 1e-9)
		case rate < lowSuccessRate:
			require.InDelta(t, adjustHarder, got.Adjustment, 1e-9)
		default:
			require.Zero(t, got.Adjustment)
		}
	})
}

// Property: for arbitrary signals, a non-nil decision always names a
// configured route, never a self-handoff, and its confidence meets the
// effective threshold for that route.
func TestEvaluateHandoff_DecisionSafety_Property(t *testing.T) {
	cfg := DefaultConfig()
	s, err := NewService(cfg, zap.NewNop())
	require.NoError(t, err)

	bots := []BotType{BotLead, BotBuyer, BotSeller}

	rapid.Check(t, func(t *rapid.T) {
		current := rapid.SampledFrom(bots).Draw(t, "current")
		signals := IntentSignals{
			BuyerScore:  rapid.Float64Range(0, 1).Draw(t, "buyer"),
			SellerScore: rapid.Float64Range(0, 1).Draw(t, "seller"),
		}

		d := s.EvaluateHandoff(current, "c1", nil, signals)
		if d == nil {
			return
		}

		require.Equal(t, current, d.SourceBot)
		require.NotEqual(t, d.SourceBot, d.TargetBot)

		base, known := cfg.Thresholds[d.Route()]
		require.True(t, known, "decision must use a configured route")
		require.GreaterOrEqual(t, d.Confidence, base)
		require.LessOrEqual(t, d.Confidence, 1.0)
	})
}

// Property: equal buyer and seller scores never produce a decision, from
// any bot.
func TestEvaluateHandoff_TieNeverTransfers_Property(t *testing.T) {
	s, err := NewService(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	bots := []BotType{BotLead, BotBuyer, BotSeller}

	rapid.Check(t, func(t *rapid.T) {
		current := rapid.SampledFrom(bots).Draw(t, "current")
		score := rapid.Float64Range(0, 1).Draw(t, "score")

		d := s.EvaluateHandoff(current, "c1", nil, IntentSignals{BuyerScore: score, SellerScore: score})
		require.Nil(t, d)
	})
}
