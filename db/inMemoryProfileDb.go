package db

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// InMemoryProfileRepository keeps documents in a map. Used for local runs
// without a document store and in tests.
type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]map[string]any
}

func NewInMemoryProfileRepository(seed map[string]map[string]any) *InMemoryProfileRepository {
	repo := &InMemoryProfileRepository{profiles: make(map[string]map[string]any)}
	for id, data := range seed {
		repo.profiles[id] = maps.Clone(data)
	}
	return repo
}

func (r *InMemoryProfileRepository) GetProfile(_ context.Context, id string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("student with id %s: %w", id, ErrProfileNotFound)
	}
	return maps.Clone(data), nil
}

func (r *InMemoryProfileRepository) SaveProfile(_ context.Context, id string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[id] = maps.Clone(data)
	return nil
}

func (r *InMemoryProfileRepository) Close() error {
	return nil
}
