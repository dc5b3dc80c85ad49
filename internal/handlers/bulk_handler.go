package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/models"
	"github.com/ternarybob/adlaunch/internal/services/bulk"
)

// BulkHandler handles bulk execution submission and polling
type BulkHandler struct {
	orchestrator *bulk.Orchestrator
	validate     *validator.Validate
	logger       arbor.ILogger
}

// NewBulkHandler creates a new BulkHandler
func NewBulkHandler(orchestrator *bulk.Orchestrator, logger arbor.ILogger) *BulkHandler {
	return &BulkHandler{
		orchestrator: orchestrator,
		validate:     validator.New(),
		logger:       logger,
	}
}

// SubmitHandler handles POST /api/bulk. The job is validated and defaulted
// once here; a 202 with the execution id is returned before any remote
// work starts.
func (h *BulkHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var spec models.BulkJobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	spec.ApplyDefaults()
	if err := h.validate.Struct(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job spec: "+err.Error())
		return
	}

	id := h.orchestrator.Submit(&spec)
	h.logger.Info().
		Str("execution_id", id).
		Str("campaign", spec.CampaignName).
		Msg("Bulk execution submitted")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"execution_id": id,
		"status":       "started",
	})
}

// GetExecutionHandler handles GET /api/bulk/executions/{id}
func (h *BulkHandler) GetExecutionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/bulk/executions/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Execution id required")
		return
	}

	exec := h.orchestrator.Registry().Get(id)
	if exec == nil {
		WriteError(w, http.StatusNotFound, "Execution not found: "+id)
		return
	}

	WriteJSON(w, http.StatusOK, exec)
}
