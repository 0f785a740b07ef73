package memory

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.SnapshotStorage = (*SnapshotStorage)(nil)

// A SnapshotStorage is a process local key-value store.
type SnapshotStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewSnapshotStorage() *SnapshotStorage {
	return &SnapshotStorage{data: make(map[string]string)}
}

func (s *SnapshotStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *SnapshotStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
