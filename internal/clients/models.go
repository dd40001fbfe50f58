package clients

import (
	"time"

	"github.com/google/uuid"
)

// ClientDTO: DTO для API
type ClientDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientsResponse: ответ для GET /v1/clients
type ClientsResponse struct {
	Clients []ClientDTO `json:"clients"`
}

// CreateClientRequest: запрос для POST /v1/clients
type CreateClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateClientRequest: запрос для PATCH /v1/clients/{id}.
// Пустые поля не меняются.
type UpdateClientRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
