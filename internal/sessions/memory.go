package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	gocache "github.com/patrickmn/go-cache"
)

const megabyte = 1024 * 1024

// MemoryStore keeps sessions in a process-local freecache. freecache rejects
// entries larger than 1/1024 of its size; those sessions live in the
// overflow cache instead, so a plan with long notes is never refused.
type MemoryStore struct {
	cache    *freecache.Cache
	overflow *gocache.Cache
	ttl      time.Duration
}

func NewMemoryStore(cacheSizeMegabytes int, ttl time.Duration) *MemoryStore {
	if cacheSizeMegabytes <= 0 {
		cacheSizeMegabytes = 32
	}
	// no janitor goroutine: expired overflow entries are dropped on Put
	return &MemoryStore{
		cache:    freecache.NewCache(cacheSizeMegabytes * megabyte),
		overflow: gocache.New(gocache.NoExpiration, -1),
		ttl:      ttl,
	}
}

func (s *MemoryStore) Get(_ context.Context, kind, id string) ([]byte, error) {
	k := key(kind, id)
	data, err := s.cache.Get([]byte(k))
	if errors.Is(err, freecache.ErrNotFound) {
		return s.getOverflow(k)
	}
	if err != nil {
		return nil, err
	}
	// sliding expiration
	_ = s.cache.Touch([]byte(k), s.expireSeconds())
	return data, nil
}

func (s *MemoryStore) Put(_ context.Context, kind, id string, data []byte) error {
	k := key(kind, id)
	err := s.cache.Set([]byte(k), data, s.expireSeconds())
	if errors.Is(err, freecache.ErrLargeEntry) {
		s.cache.Del([]byte(k))
		s.overflow.DeleteExpired()
		s.overflow.Set(k, data, s.overflowTTL())
		return nil
	}
	if err != nil {
		return fmt.Errorf("store %s session: %w", kind, err)
	}
	// the session may have shrunk back under the limit
	s.overflow.Delete(k)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, kind, id string) error {
	k := key(kind, id)
	s.cache.Del([]byte(k))
	s.overflow.Delete(k)
	return nil
}

func (s *MemoryStore) EntryCount() int64 {
	return s.cache.EntryCount() + int64(s.overflow.ItemCount())
}

func (s *MemoryStore) getOverflow(k string) ([]byte, error) {
	v, ok := s.overflow.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	data := v.([]byte)
	s.overflow.Set(k, data, s.overflowTTL())
	return data, nil
}

func (s *MemoryStore) expireSeconds() int {
	if s.ttl <= 0 {
		return 0
	}
	return int(s.ttl / time.Second)
}

func (s *MemoryStore) overflowTTL() time.Duration {
	if s.ttl <= 0 {
		return gocache.NoExpiration
	}
	return s.ttl
}
