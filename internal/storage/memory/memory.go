package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage: in-memory реализация storage.Storage
type MemoryStorage struct {
	mu           sync.RWMutex
	clients      map[uuid.UUID]storage.Client
	workoutPlans *workoutPlansStorage
	mealPlans    *mealPlansStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		clients:      make(map[uuid.UUID]storage.Client),
		workoutPlans: newWorkoutPlansStorage(),
		mealPlans:    newMealPlansStorage(),
	}
}

func (m *MemoryStorage) ListClients(ctx context.Context, ownerUserID string) ([]storage.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := make([]storage.Client, 0)
	for _, c := range m.clients {
		if c.OwnerUserID == ownerUserID {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})

	return clients, nil
}

func (m *MemoryStorage) GetClient(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok || c.OwnerUserID != ownerUserID {
		return nil, storage.ErrNotFound
	}

	return &c, nil
}

func (m *MemoryStorage) CreateClient(ctx context.Context, client *storage.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	m.clients[client.ID] = *client

	return nil
}

func (m *MemoryStorage) UpdateClient(ctx context.Context, client *storage.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.clients[client.ID]
	if !ok || existing.OwnerUserID != client.OwnerUserID {
		return storage.ErrNotFound
	}

	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = time.Now().UTC()
	m.clients[client.ID] = *client

	return nil
}

func (m *MemoryStorage) DeleteClient(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	m.mu.Lock()
	c, ok := m.clients[id]
	if !ok || c.OwnerUserID != ownerUserID {
		m.mu.Unlock()
		return storage.ErrNotFound
	}
	delete(m.clients, id)
	m.mu.Unlock()

	// как ON DELETE SET NULL в Postgres
	m.workoutPlans.unassignClient(id)
	m.mealPlans.unassignClient(id)

	return nil
}

func (m *MemoryStorage) CreateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	return m.workoutPlans.create(plan)
}

func (m *MemoryStorage) UpdateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	return m.workoutPlans.update(plan)
}

func (m *MemoryStorage) GetWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.WorkoutPlan, error) {
	return m.workoutPlans.get(ownerUserID, id)
}

func (m *MemoryStorage) ListWorkoutPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.WorkoutPlan, error) {
	return m.workoutPlans.list(ownerUserID, clientID), nil
}

func (m *MemoryStorage) DeleteWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return m.workoutPlans.delete(ownerUserID, id)
}

func (m *MemoryStorage) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	return m.mealPlans.create(plan)
}

func (m *MemoryStorage) UpdateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	return m.mealPlans.update(plan)
}

func (m *MemoryStorage) GetMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.MealPlan, error) {
	return m.mealPlans.get(ownerUserID, id)
}

func (m *MemoryStorage) ListMealPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.MealPlan, error) {
	return m.mealPlans.list(ownerUserID, clientID), nil
}

func (m *MemoryStorage) DeleteMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return m.mealPlans.delete(ownerUserID, id)
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close: no-op для in-memory
func (m *MemoryStorage) Close() error {
	return nil
}

func sameClient(a, b *uuid.UUID) bool {
	if b == nil {
		return true
	}
	return a != nil && *a == *b
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
