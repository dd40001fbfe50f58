package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleDevAuth handles POST /v1/auth/dev
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	var req DevAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.SignInDev(r.Context(), req)
	switch {
	case errors.Is(err, ErrDevAuthOff):
		writeError(w, http.StatusNotFound, "not_found", "Dev auth is disabled")
		return
	case errors.Is(err, ErrInvalidCoachID):
		writeError(w, http.StatusBadRequest, "invalid_request", "coach_id must be 1-64 chars of [a-zA-Z0-9._-]")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
