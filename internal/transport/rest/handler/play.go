package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
)

// PlaybackService is what the player endpoints need from the playback service
type PlaybackService interface {
	Funnel(ctx context.Context, funnelID string) (*model.PublicFunnel, error)
	Start(ctx context.Context, funnelID string) (*model.PlayView, error)
	Get(ctx context.Context, sessionID string) (*model.PlayView, error)
	Answer(ctx context.Context, sessionID, answerID string) (*model.PlayView, error)
	SubmitLead(ctx context.Context, sessionID, name, email string) (*model.PlayView, error)
}

// AnswerRequest is the request body for answering the current question
type AnswerRequest struct {
	AnswerID string `json:"answerId"`
}

// LeadRequest is the request body for the lead capture form
type LeadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PlayHandler handles the public player endpoints
type PlayHandler struct {
	playSvc PlaybackService
	logger  *zap.Logger
}

// NewPlayHandler creates a new play handler
func NewPlayHandler(playSvc PlaybackService, logger *zap.Logger) *PlayHandler {
	return &PlayHandler{
		playSvc: playSvc,
		logger:  logger,
	}
}

// Funnel handles GET /v1/play/{funnelId}
func (h *PlayHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.playSvc.Funnel(r.Context(), mux.Vars(r)["funnelId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, funnel)
}

// Start handles POST /v1/play/{funnelId}/sessions
func (h *PlayHandler) Start(w http.ResponseWriter, r *http.Request) {
	view, err := h.playSvc.Start(r.Context(), mux.Vars(r)["funnelId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// Session handles GET /v1/play/sessions/{sessionId}
func (h *PlayHandler) Session(w http.ResponseWriter, r *http.Request) {
	view, err := h.playSvc.Get(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Answer handles POST /v1/play/sessions/{sessionId}/answers.
// A funnel without a reachable outcome still answers 200; the view carries
// the configuration_error phase and a message for the player.
func (h *PlayHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AnswerID == "" {
		writeError(w, http.StatusBadRequest, "answerId is required")
		return
	}

	view, err := h.playSvc.Answer(r.Context(), mux.Vars(r)["sessionId"], req.AnswerID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SubmitLead handles POST /v1/play/sessions/{sessionId}/lead
func (h *PlayHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.playSvc.SubmitLead(r.Context(), mux.Vars(r)["sessionId"], req.Name, req.Email)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
