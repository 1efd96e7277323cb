package settings

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Settings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Settings)}
}

func (r *MemoryRepo) Get(_ context.Context, userID string) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[userID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) Upsert(_ context.Context, s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.UserID] = s
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

var _ SettingsRepo = (*MemoryRepo)(nil)
