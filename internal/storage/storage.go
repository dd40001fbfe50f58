package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается, когда запись не найдена или принадлежит другому тренеру
var ErrNotFound = errors.New("not found")

// Client: клиент тренера, которому назначаются планы
type Client struct {
	ID          uuid.UUID
	OwnerUserID string // JWT subject тренера, "default" без авторизации
	Name        string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkoutPlan: сохранённый план тренировок. Payload хранит документ
// workoutbuilder.Payload как есть (jsonb).
type WorkoutPlan struct {
	ID          uuid.UUID
	OwnerUserID string
	ClientID    *uuid.UUID
	Name        string
	BuilderMode string // "week" | "day"
	DaysPerWeek int
	Payload     []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MealPlan: сохранённый план питания (mealbuilder.Payload в jsonb)
type MealPlan struct {
	ID          uuid.UUID
	OwnerUserID string
	ClientID    *uuid.UUID
	Title       string
	Description string
	Payload     []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientsStorage: CRUD клиентов
type ClientsStorage interface {
	// ListClients возвращает клиентов тренера
	ListClients(ctx context.Context, ownerUserID string) ([]Client, error)

	// GetClient возвращает клиента по ID
	GetClient(ctx context.Context, ownerUserID string, id uuid.UUID) (*Client, error)

	// CreateClient создаёт клиента (ID и время проставляются хранилищем)
	CreateClient(ctx context.Context, client *Client) error

	// UpdateClient обновляет имя и email
	UpdateClient(ctx context.Context, client *Client) error

	// DeleteClient удаляет клиента; его планы остаются без назначения
	DeleteClient(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// WorkoutPlansStorage: коллаборатор сохранения для конструктора тренировок
type WorkoutPlansStorage interface {
	CreateWorkoutPlan(ctx context.Context, plan *WorkoutPlan) error
	UpdateWorkoutPlan(ctx context.Context, plan *WorkoutPlan) error
	GetWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*WorkoutPlan, error)
	// ListWorkoutPlans фильтрует по клиенту, если clientID != nil
	ListWorkoutPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]WorkoutPlan, error)
	DeleteWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// MealPlansStorage: коллаборатор сохранения для конструктора питания
type MealPlansStorage interface {
	CreateMealPlan(ctx context.Context, plan *MealPlan) error
	UpdateMealPlan(ctx context.Context, plan *MealPlan) error
	GetMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*MealPlan, error)
	ListMealPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]MealPlan, error)
	DeleteMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// Storage объединяет все хранилища
type Storage interface {
	ClientsStorage
	WorkoutPlansStorage
	MealPlansStorage

	// Ping проверяет соединение (для /healthz)
	Ping(ctx context.Context) error

	// Close закрывает соединение (для Postgres)
	Close() error
}
