package handoff

import "strings"

// Scoring constants. The per-match increments and the history blend weight
// are empirically tuned values carried over from production; treat them as
// configuration constants, not derived quantities.
const (
	messageMatchWeight = 0.3
	historyMatchWeight = 0.2
	historyBlendWeight = 0.5
	historyWindow      = 5
)

// buyerIntentPhrases and sellerIntentPhrases are the fixed, case-insensitive
// pattern sets the extractor scans for. Stored lowercase.
var buyerIntentPhrases = []string{
	"looking to buy",
	"want to buy",
	"buy a house",
	"buy a home",
	"purchase a home",
	"pre-approved",
	"pre-approval",
	"preapproved",
	"mortgage",
	"down payment",
	"first time buyer",
	"house hunting",
	"looking for a home",
	"schedule a showing",
	"schedule a tour",
	"see the property",
	"make an offer",
}

var sellerIntentPhrases = []string{
	"sell my house",
	"sell my home",
	"selling my house",
	"selling my home",
	"list my house",
	"list my home",
	"listing agent",
	"home value",
	"what is my house worth",
	"what's my house worth",
	"market analysis",
	"comparative market",
	"thinking of selling",
	"ready to sell",
	"downsizing",
	"relocating",
}

// IntentSignals is the message-level output of the extractor: bounded
// confidence scores per direction plus human-readable match notes.
type IntentSignals struct {
	BuyerScore      float64  `json:"buyer_intent_score"`
	SellerScore     float64  `json:"seller_intent_score"`
	DetectedPhrases []string `json:"detected_phrases,omitempty"`
}

// IntentExtractor scores free text against the fixed buyer/seller phrase
// sets. It is a pure function holder: no side effects, no I/O.
type IntentExtractor struct{}

// NewIntentExtractor returns an extractor over the fixed pattern sets.
func NewIntentExtractor() *IntentExtractor {
	return &IntentExtractor{}
}

// Extract scores a single message. Each matched pattern contributes a fixed
// increment per direction, capped at 1.0.
func (e *IntentExtractor) Extract(message string) IntentSignals {
	lower := strings.ToLower(message)

	var out IntentSignals
	if n := countMatches(lower, buyerIntentPhrases); n > 0 {
		out.BuyerScore = capScore(float64(n) * messageMatchWeight)
		out.DetectedPhrases = append(out.DetectedPhrases, "buyer intent detected")
	}
	if n := countMatches(lower, sellerIntentPhrases); n > 0 {
		out.SellerScore = capScore(float64(n) * messageMatchWeight)
		out.DetectedPhrases = append(out.DetectedPhrases, "seller intent detected")
	}
	return out
}

// ExtractFromHistory scores at most the historyWindow most recent non-empty
// messages. Each match contributes historyMatchWeight, capped at 1.0. The
// result is sparse: only directions with a non-zero score are present.
func (e *IntentExtractor) ExtractFromHistory(messages []string) map[BotType]float64 {
	recent := make([]string, 0, historyWindow)
	for i := len(messages) - 1; i >= 0 && len(recent) < historyWindow; i-- {
		if strings.TrimSpace(messages[i]) == "" {
			continue
		}
		recent = append(recent, strings.ToLower(messages[i]))
	}

	var buyer, seller int
	for _, msg := range recent {
		buyer += countMatches(msg, buyerIntentPhrases)
		seller += countMatches(msg, sellerIntentPhrases)
	}

	signals := make(map[BotType]float64, 2)
	if buyer > 0 {
		signals[BotBuyer] = capScore(float64(buyer) * historyMatchWeight)
	}
	if seller > 0 {
		signals[BotSeller] = capScore(float64(seller) * historyMatchWeight)
	}
	return signals
}

func countMatches(lower string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

func capScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}
