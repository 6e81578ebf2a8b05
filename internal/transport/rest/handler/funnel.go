package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/templates"
	"github.com/junes231/funnel-editor/internal/transport/rest/middleware"
)

const defaultLeadLimit = 100

// FunnelService is what the editor endpoints need from the funnel service
type FunnelService interface {
	Create(ctx context.Context, ownerID string, funnel *model.Funnel) (string, error)
	Get(ctx context.Context, id, ownerID string) (*model.Funnel, error)
	List(ctx context.Context, ownerID string) ([]*model.Funnel, error)
	Update(ctx context.Context, ownerID string, funnel *model.Funnel) error
	Delete(ctx context.Context, id, ownerID string) error
	ImportQuestions(ctx context.Context, id, ownerID string, data []byte) ([]model.Question, error)
	ApplyTemplate(ctx context.Context, id, ownerID, name string) (*model.Funnel, error)
	Templates() []templates.Summary
	Stats(ctx context.Context, id, ownerID string) (*model.FunnelStats, error)
	Leads(ctx context.Context, id, ownerID string, limit int64) ([]*model.Lead, error)
}

// FunnelHandler handles editor funnel endpoints
type FunnelHandler struct {
	funnelSvc FunnelService
	logger    *zap.Logger
}

// NewFunnelHandler creates a new funnel handler
func NewFunnelHandler(funnelSvc FunnelService, logger *zap.Logger) *FunnelHandler {
	return &FunnelHandler{
		funnelSvc: funnelSvc,
		logger:    logger,
	}
}

// Create handles POST /v1/funnels
func (h *FunnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	editorID := middleware.GetEditorID(r.Context())

	var funnel model.Funnel
	if !decodeJSON(w, r, &funnel) {
		return
	}
	funnel.ID = ""

	id, err := h.funnelSvc.Create(r.Context(), editorID, &funnel)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"funnelId": id})
}

// List handles GET /v1/funnels
func (h *FunnelHandler) List(w http.ResponseWriter, r *http.Request) {
	funnels, err := h.funnelSvc.List(r.Context(), middleware.GetEditorID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if funnels == nil {
		funnels = []*model.Funnel{}
	}

	writeJSON(w, http.StatusOK, funnels)
}

// Get handles GET /v1/funnels/{id}
func (h *FunnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.funnelSvc.Get(r.Context(), mux.Vars(r)["id"], middleware.GetEditorID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, funnel)
}

// Update handles PUT /v1/funnels/{id}
func (h *FunnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var funnel model.Funnel
	if !decodeJSON(w, r, &funnel) {
		return
	}
	funnel.ID = mux.Vars(r)["id"]

	if err := h.funnelSvc.Update(r.Context(), middleware.GetEditorID(r.Context()), &funnel); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &funnel)
}

// Delete handles DELETE /v1/funnels/{id}
func (h *FunnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.funnelSvc.Delete(r.Context(), mux.Vars(r)["id"], middleware.GetEditorID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /v1/funnels/{id}/import. The body is the raw JSON
// question list.
func (h *FunnelHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import file too large")
		return
	}

	questions, err := h.funnelSvc.ImportQuestions(r.Context(), mux.Vars(r)["id"], middleware.GetEditorID(r.Context()), data)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported":  len(questions),
		"questions": questions,
	})
}

// ApplyTemplate handles POST /v1/funnels/{id}/templates/{name}
func (h *FunnelHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	funnel, err := h.funnelSvc.ApplyTemplate(r.Context(), vars["id"], middleware.GetEditorID(r.Context()), vars["name"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, funnel)
}

// Templates handles GET /v1/templates
func (h *FunnelHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.funnelSvc.Templates())
}

// Stats handles GET /v1/funnels/{id}/stats
func (h *FunnelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.funnelSvc.Stats(r.Context(), mux.Vars(r)["id"], middleware.GetEditorID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Leads handles GET /v1/funnels/{id}/leads?limit=
func (h *FunnelHandler) Leads(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLeadLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	leads, err := h.funnelSvc.Leads(r.Context(), mux.Vars(r)["id"], middleware.GetEditorID(r.Context()), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if leads == nil {
		leads = []*model.Lead{}
	}

	writeJSON(w, http.StatusOK, leads)
}
