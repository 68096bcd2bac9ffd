package roster

import (
	"context"
	"database/sql"
	"sync"
)

// PostgresRepository stores the roster snapshot in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListAll returns the roster ordered by student id.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT student_id, full_name FROM roster ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FullName); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Replace swaps the whole roster in one transaction so a failed import never
// leaves a partial list behind.
func (r *PostgresRepository) Replace(ctx context.Context, students []Student) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster`); err != nil {
		return err
	}
	for _, s := range students {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roster (student_id, full_name)
			VALUES ($1, $2)
			ON CONFLICT (student_id) DO UPDATE SET full_name = EXCLUDED.full_name
		`, s.ID, s.FullName); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MemoryRepository is the in-memory roster for dev mode and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	students []Student
}

// NewMemoryRepository creates an empty in-memory roster.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Student, len(r.students))
	copy(out, r.students)
	return out, nil
}

func (r *MemoryRepository) Replace(_ context.Context, students []Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = make([]Student, len(students))
	copy(r.students, students)
	return nil
}
