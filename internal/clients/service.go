package clients

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidEmail = errors.New("invalid email")
	ErrNotFound     = errors.New("client not found")
)

const maxNameLen = 200

// Service содержит бизнес-логику клиентов тренера
type Service struct {
	storage storage.ClientsStorage
}

// NewService создаёт новый сервис
func NewService(st storage.ClientsStorage) *Service {
	return &Service{storage: st}
}

// ListClients возвращает клиентов текущего тренера
func (s *Service) ListClients(ctx context.Context) ([]ClientDTO, error) {
	clients, err := s.storage.ListClients(ctx, ownerFromContext(ctx))
	if err != nil {
		return nil, err
	}

	dtos := make([]ClientDTO, 0, len(clients))
	for _, c := range clients {
		dtos = append(dtos, toDTO(c))
	}
	return dtos, nil
}

// GetClient возвращает клиента по ID
func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*ClientDTO, error) {
	client, err := s.storage.GetClient(ctx, ownerFromContext(ctx), id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	dto := toDTO(*client)
	return &dto, nil
}

// CreateClient создаёт клиента
func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientDTO, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	client := &storage.Client{
		OwnerUserID: ownerFromContext(ctx),
		Name:        name,
		Email:       email,
	}
	if err := s.storage.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"client": client.ID, "owner": client.OwnerUserID}).Debug("clients: created")

	dto := toDTO(*client)
	return &dto, nil
}

// UpdateClient меняет имя и/или email
func (s *Service) UpdateClient(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientDTO, error) {
	client, err := s.storage.GetClient(ctx, ownerFromContext(ctx), id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if req.Name != nil {
		if client.Name, err = normalizeName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if client.Email, err = normalizeEmail(*req.Email); err != nil {
			return nil, err
		}
	}

	if err := s.storage.UpdateClient(ctx, client); err != nil {
		return nil, mapNotFound(err)
	}

	dto := toDTO(*client)
	return &dto, nil
}

// DeleteClient удаляет клиента; назначенные ему планы остаются у тренера
func (s *Service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	if err := s.storage.DeleteClient(ctx, ownerFromContext(ctx), id); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return "", ErrEmptyName
	}
	return name, nil
}

// normalizeEmail допускает пустой email: такому клиенту письма не уходят.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func toDTO(c storage.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ownerFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return auth.DefaultUserID
}
