package users

import (
	"context"
	"strings"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == needle {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) Update(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	u.Email = existing.Email
	u.CreatedAt = existing.CreatedAt
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

var _ UsersRepo = (*MemoryRepo)(nil)
