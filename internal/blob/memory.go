package blob

import (
	"context"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore держит объекты в памяти процесса (BLOB_MODE=local).
// Presign не поддерживается: видео отдаются через API.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()

	return int64(len(buf)), nil
}

func (s *MemoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}

	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// ContentType returns the type recorded on upload, or "" for unknown keys.
func (s *MemoryStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}

func (s *MemoryStore) PresignGet(ctx context.Context, key string, ttlSeconds int) (string, error) {
	return "", ErrPresignUnsupported
}

func (s *MemoryStore) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}
