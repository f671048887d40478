package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

// HandoffHandler exposes the handoff coordinator over HTTP.
type HandoffHandler struct {
	service *handoff.Service
	logger  *zap.Logger
}

// NewHandoffHandler creates a handler backed by the given service.
func NewHandoffHandler(service *handoff.Service, logger *zap.Logger) *HandoffHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandoffHandler{
		service: service,
		logger:  logger.With(zap.String("component", "handoff_handler")),
	}
}

// RegisterRoutes attaches the handoff endpoints to mux.
func (h *HandoffHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/handoff/evaluate", MethodGuard(http.MethodPost, h.Evaluate))
	mux.HandleFunc("/v1/handoff/execute", MethodGuard(http.MethodPost, h.Execute))
	mux.HandleFunc("/v1/handoff/outcome", MethodGuard(http.MethodPost, h.Outcome))
	mux.HandleFunc("/v1/handoff/analytics", MethodGuard(http.MethodGet, h.Analytics))
	mux.HandleFunc("/v1/handoff/adjustment", MethodGuard(http.MethodGet, h.Adjustment))
}

// EvaluateRequest is the payload for POST /v1/handoff/evaluate. Either a raw
// message or precomputed signals may be supplied; a message wins when both
// are present.
type EvaluateRequest struct {
	CurrentBot          string   `json:"current_bot"`
	ContactID           string   `json:"contact_id"`
	Message             string   `json:"message,omitempty"`
	ConversationHistory []string `json:"conversation_history,omitempty"`

	Signals *handoff.IntentSignals `json:"signals,omitempty"`
}

// EvaluateResponse reports whether a handoff was recommended.
type EvaluateResponse struct {
	HandoffRecommended bool              `json:"handoff_recommended"`
	Decision           *handoff.Decision `json:"decision,omitempty"`
}

// Evaluate runs intent extraction and the decision engine for one message.
func (h *HandoffHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := DecodeJSON(r, &req); err != nil {
		logDecodeFailure(h.logger, r, err)
		WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	bot, err := handoff.ParseBotType(req.CurrentBot)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ContactID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "contact_id is required")
		return
	}

	var decision *handoff.Decision
	switch {
	case req.Message != "":
		decision = h.service.EvaluateMessage(bot, req.ContactID, req.ConversationHistory, req.Message)
	case req.Signals != nil:
		decision = h.service.EvaluateHandoff(bot, req.ContactID, req.ConversationHistory, *req.Signals)
	default:
		WriteError(w, http.StatusBadRequest, "invalid_request", "either message or signals must be set")
		return
	}

	WriteJSON(w, http.StatusOK, EvaluateResponse{
		HandoffRecommended: decision != nil,
		Decision:           decision,
	})
}

// ExecuteRequest is the payload for POST /v1/handoff/execute.
type ExecuteRequest struct {
	Decision   *handoff.Decision `json:"decision"`
	ContactID  string            `json:"contact_id"`
	LocationID string            `json:"location_id"`
}

// Execute applies a previously evaluated decision. Rejections from safety
// checks come back as a 200 with executed=false; only invalid input is an
// error status.
func (h *HandoffHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := DecodeJSON(r, &req); err != nil {
		logDecodeFailure(h.logger, r, err)
		WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.ContactID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "contact_id is required")
		return
	}

	result, err := h.service.ExecuteHandoff(r.Context(), req.Decision, req.ContactID, req.LocationID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_decision", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// OutcomeRequest is the payload for POST /v1/handoff/outcome.
type OutcomeRequest struct {
	ContactID string         `json:"contact_id"`
	Source    string         `json:"source_bot"`
	Target    string         `json:"target_bot"`
	Outcome   string         `json:"outcome"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OutcomeResponse acknowledges an outcome report.
type OutcomeResponse struct {
	Recorded bool `json:"recorded"`
}

// Outcome records the result of a past handoff for threshold learning.
// Unknown outcome labels are logged and dropped without failing the request.
func (h *HandoffHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if err := DecodeJSON(r, &req); err != nil {
		logDecodeFailure(h.logger, r, err)
		WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	source, err := handoff.ParseBotType(req.Source)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	target, err := handoff.ParseBotType(req.Target)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	outcome, err := handoff.ParseOutcome(req.Outcome)
	if err != nil {
		h.logger.Warn("dropping outcome with unknown label",
			zap.String("contact_id", req.ContactID),
			zap.String("outcome", req.Outcome),
		)
		WriteJSON(w, http.StatusAccepted, OutcomeResponse{Recorded: false})
		return
	}

	h.service.RecordOutcome(r.Context(), req.ContactID, source, target, outcome, req.Metadata)
	WriteJSON(w, http.StatusOK, OutcomeResponse{Recorded: true})
}

// Analytics returns the aggregated handoff summary.
func (h *HandoffHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.service.AnalyticsSummary())
}

// AdjustmentResponse reports the learned threshold adjustment for one route.
type AdjustmentResponse struct {
	Route       string  `json:"route"`
	Adjustment  float64 `json:"adjustment"`
	SuccessRate float64 `json:"success_rate"`
	SampleSize  int     `json:"sample_size"`
}

// Adjustment returns the current learned adjustment for a route, read from
// the source and target query parameters.
func (h *HandoffHandler) Adjustment(w http.ResponseWriter, r *http.Request) {
	source, err := handoff.ParseBotType(r.URL.Query().Get("source"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "source query parameter: "+err.Error())
		return
	}
	target, err := handoff.ParseBotType(r.URL.Query().Get("target"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "target query parameter: "+err.Error())
		return
	}

	adj := h.service.LearnedAdjustment(source, target)
	WriteJSON(w, http.StatusOK, AdjustmentResponse{
		Route:       handoff.Route{Source: source, Target: target}.String(),
		Adjustment:  adj.Adjustment,
		SuccessRate: adj.SuccessRate,
		SampleSize:  adj.SampleSize,
	})
}
