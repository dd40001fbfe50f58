package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]storage.MealPlan
}

func newMealPlansStorage() *mealPlansStorage {
	return &mealPlansStorage{plans: make(map[uuid.UUID]storage.MealPlan)}
}

func (s *mealPlansStorage) create(plan *storage.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	stored := *plan
	stored.Payload = copyBytes(plan.Payload)
	s.plans[plan.ID] = stored

	return nil
}

func (s *mealPlansStorage) update(plan *storage.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.plans[plan.ID]
	if !ok || existing.OwnerUserID != plan.OwnerUserID {
		return storage.ErrNotFound
	}

	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now().UTC()

	stored := *plan
	stored.Payload = copyBytes(plan.Payload)
	s.plans[plan.ID] = stored

	return nil
}

func (s *mealPlansStorage) get(ownerUserID string, id uuid.UUID) (*storage.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok || p.OwnerUserID != ownerUserID {
		return nil, storage.ErrNotFound
	}
	p.Payload = copyBytes(p.Payload)

	return &p, nil
}

// list returns newest first, matching the Postgres ORDER BY.
func (s *mealPlansStorage) list(ownerUserID string, clientID *uuid.UUID) []storage.MealPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.MealPlan, 0)
	for _, p := range s.plans {
		if p.OwnerUserID != ownerUserID || !sameClient(p.ClientID, clientID) {
			continue
		}
		p.Payload = copyBytes(p.Payload)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out
}

func (s *mealPlansStorage) delete(ownerUserID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok || p.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	delete(s.plans, id)

	return nil
}

func (s *mealPlansStorage) unassignClient(clientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.plans {
		if p.ClientID != nil && *p.ClientID == clientID {
			p.ClientID = nil
			s.plans[id] = p
		}
	}
}
