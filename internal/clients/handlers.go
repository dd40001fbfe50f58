package clients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Handler содержит HTTP обработчики для клиентов
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList обрабатывает GET /v1/clients
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, ClientsResponse{Clients: clients})
}

// HandleGet обрабатывает GET /v1/clients/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid client ID")
		return
	}

	client, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, client)
}

// HandleCreate обрабатывает POST /v1/clients
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	client, err := h.service.CreateClient(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, client)
}

// HandleUpdate обрабатывает PATCH /v1/clients/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid client ID")
		return
	}

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	client, err := h.service.UpdateClient(r.Context(), id, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, client)
}

// HandleDelete обрабатывает DELETE /v1/clients/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid client ID")
		return
	}

	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyName):
		h.sendError(w, http.StatusBadRequest, "empty_name", "Name cannot be empty")
	case errors.Is(err, ErrInvalidEmail):
		h.sendError(w, http.StatusBadRequest, "invalid_email", "Email is not valid")
	case errors.Is(err, ErrNotFound):
		h.sendError(w, http.StatusNotFound, "not_found", "Client not found")
	default:
		log.WithError(err).Error("clients: request failed")
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
