package checkin

import (
	"context"
	"sync"
)

// RecordRepository persists attendance records. Insert must ignore a
// duplicate (session_id, student_id) key rather than fail, so a racing
// append can never corrupt the ledger.
type RecordRepository interface {
	Insert(ctx context.Context, rec Record) error
	Find(ctx context.Context, sessionID, studentID string) (*Record, error)
	FindByIPExcluding(ctx context.Context, sessionID, ip, excludeStudentID string) (*Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
	ListAll(ctx context.Context) ([]Record, error)
}

// Ledger enforces the at-most-one-record-per-(session, student) invariant.
// The check-then-append sequence is serialized per key, so two concurrent
// attempts by the same student cannot both pass the duplicate check.
type Ledger struct {
	repo RecordRepository

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// NewLedger wraps a record repository.
func NewLedger(repo RecordRepository) *Ledger {
	return &Ledger{repo: repo, keys: make(map[string]*sync.Mutex)}
}

func (l *Ledger) keyLock(sessionID, studentID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := sessionID + "\x00" + studentID
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	return m
}

// HasRecord reports whether the student already checked in to the session.
func (l *Ledger) HasRecord(ctx context.Context, sessionID, studentID string) (bool, error) {
	rec, err := l.repo.Find(ctx, sessionID, studentID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// FindByIPExcluding returns a record for the session that used the given
// network identifier under a different student id, or nil.
func (l *Ledger) FindByIPExcluding(ctx context.Context, sessionID, ip, excludeStudentID string) (*Record, error) {
	return l.repo.FindByIPExcluding(ctx, sessionID, ip, excludeStudentID)
}

// Append writes a record. Appending a key that already exists is a no-op,
// not an error; records are immutable once written.
func (l *Ledger) Append(ctx context.Context, rec Record) error {
	lock := l.keyLock(rec.SessionID, rec.StudentID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := l.repo.Find(ctx, rec.SessionID, rec.StudentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return l.repo.Insert(ctx, rec)
}

// ListBySession returns all records for one session.
func (l *Ledger) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	return l.repo.ListBySession(ctx, sessionID)
}

// ListByStudent returns a student's attendance history.
func (l *Ledger) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return l.repo.ListByStudent(ctx, studentID)
}

// ListAll returns the full ledger, for report generation.
func (l *Ledger) ListAll(ctx context.Context) ([]Record, error) {
	return l.repo.ListAll(ctx)
}
