package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
)

type clickRecorder interface {
	RecordClick(ctx context.Context, ev model.ClickEvent) error
}

// TrackHandler handles click tracking from embedded players
type TrackHandler struct {
	trackingSvc clickRecorder
	logger      *zap.Logger
}

// NewTrackHandler creates a new tracking handler
func NewTrackHandler(trackingSvc clickRecorder, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		trackingSvc: trackingSvc,
		logger:      logger,
	}
}

// Click handles POST /v1/track/click
func (h *TrackHandler) Click(w http.ResponseWriter, r *http.Request) {
	var ev model.ClickEvent
	if !decodeJSON(w, r, &ev) {
		return
	}

	if err := h.trackingSvc.RecordClick(r.Context(), ev); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
