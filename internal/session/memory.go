package session

import (
	"context"
	"sync"
)

// MemoryRepository is a map-backed repository for dev mode and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Session
	ordered []string
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]Session)}
}

func (r *MemoryRepository) Insert(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return ErrDuplicateID
	}
	r.byID[s.ID] = s
	r.ordered = append(r.ordered, s.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.ordered))
	for _, id := range r.ordered {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *MemoryRepository) ListActive(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Session
	for _, id := range r.ordered {
		if s := r.byID[id]; s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepository) SetInactive(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.IsActive = false
	r.byID[id] = s
	return nil
}
