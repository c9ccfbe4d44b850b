package registry

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-process Registry. Suitable for single-instance
// deployments and tests.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]string)}
}

func (r *MemoryRegistry) RecordActivity(_ context.Context, entityID, activityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entityID] = activityID
	return nil
}

func (r *MemoryRegistry) GetActivity(_ context.Context, entityID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.entries[entityID]
	if !ok {
		return "", ErrNotTracked
	}
	return id, nil
}

func (r *MemoryRegistry) Forget(_ context.Context, entityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, entityID)
	return nil
}
