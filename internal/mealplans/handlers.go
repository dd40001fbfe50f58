package mealplans

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/exports"
	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreateSession opens a builder session.
// POST /v1/meals/sessions
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	resp, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleGetSession returns the session view.
// GET /v1/meals/sessions/{id}
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCommand applies one edit command.
// POST /v1/meals/sessions/{id}/commands
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}
	if strings.TrimSpace(cmd.Op) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "op is required")
		return
	}

	resp, err := h.service.ApplyCommand(r.Context(), r.PathValue("id"), cmd)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSubmit saves the session's plan.
// POST /v1/meals/sessions/{id}/submit
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	resp, err := h.service.Submit(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteSession discards a session.
// DELETE /v1/meals/sessions/{id}
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPlans lists saved plans.
// GET /v1/meals/plans?client_id=<uuid>
func (h *Handlers) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	var clientID *uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("client_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid client_id")
			return
		}
		clientID = &id
	}

	resp, err := h.service.ListPlans(r.Context(), clientID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetPlan returns one saved plan with its payload.
// GET /v1/meals/plans/{id}
func (h *Handlers) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeletePlan deletes a saved plan.
// DELETE /v1/meals/plans/{id}
func (h *Handlers) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportPlan streams a PDF or CSV rendering of a saved plan.
// GET /v1/meals/plans/{id}/export?format=pdf|csv
func (h *Handlers) HandleExportPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := planIDFromPath(w, r)
	if !ok {
		return
	}
	format, err := exports.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "format must be pdf or csv")
		return
	}

	data, filename, err := h.service.ExportPlan(r.Context(), id, format)
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ============================================================================
// Error handling
// ============================================================================

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "builder session not found")
	case errors.Is(err, ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan_not_found", "meal plan not found")
	case errors.Is(err, ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", "client not found")
	case errors.Is(err, ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "submit_in_flight", "plan is being saved, try again shortly")
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrSaveFailed):
		writeError(w, http.StatusBadGateway, "save_failed", "plan could not be saved, your changes are kept")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// ============================================================================
// Helpers
// ============================================================================

// decodeOptional accepts an empty body as the zero request.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return false
	}
	return true
}

func planIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid plan id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
