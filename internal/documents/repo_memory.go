package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory DocumentsRepo used for local development and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, userID, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID, search string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	r.mu.RLock()
	matched := make([]Document, 0)
	for _, doc := range r.docs {
		if doc.UserID != userID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(doc.Name), needle) {
			continue
		}
		matched = append(matched, doc)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []Document{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID, id string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	delete(r.docs, id)
	return doc, nil
}

func (r *MemoryRepo) DeleteByUser(_ context.Context, userID string) ([]Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := make([]Document, 0)
	for id, doc := range r.docs {
		if doc.UserID == userID {
			deleted = append(deleted, doc)
			delete(r.docs, id)
		}
	}
	return deleted, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
