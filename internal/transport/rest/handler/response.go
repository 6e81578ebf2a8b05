package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/importer"
	"github.com/junes231/funnel-editor/internal/quiz"
	"github.com/junes231/funnel-editor/internal/service"
)

// maxBodySize caps request bodies, question imports included
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors to HTTP statuses. Anything unknown
// is logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var formatErr *importer.FormatError
	switch {
	case errors.As(err, &formatErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": formatErr.Error(),
			"index": formatErr.Index,
		})
	case errors.Is(err, service.ErrFunnelNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidFunnel),
		errors.Is(err, service.ErrInvalidLead),
		errors.Is(err, service.ErrInvalidClick):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quiz.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
