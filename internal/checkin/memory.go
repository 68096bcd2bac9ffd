package checkin

import (
	"context"
	"sync"
)

// MemoryRepository keeps records in insertion order, for dev mode and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []Record
	keys    map[string]struct{}
}

// NewMemoryRepository creates an empty in-memory record store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{keys: make(map[string]struct{})}
}

func recordKey(sessionID, studentID string) string {
	return sessionID + "\x00" + studentID
}

func (r *MemoryRepository) Insert(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey(rec.SessionID, rec.StudentID)
	if _, ok := r.keys[key]; ok {
		return nil
	}
	r.keys[key] = struct{}{}
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, sessionID, studentID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.records {
		if r.records[i].SessionID == sessionID && r.records[i].StudentID == studentID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) FindByIPExcluding(_ context.Context, sessionID, ip, excludeStudentID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.records {
		rec := r.records[i]
		if rec.SessionID == sessionID && rec.IPAddress == ip && rec.StudentID != excludeStudentID {
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListBySession(_ context.Context, sessionID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListByStudent(_ context.Context, studentID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out, nil
}
