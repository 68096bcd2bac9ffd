package checkin

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists attendance records. The
// (session_id, student_id) primary key plus ON CONFLICT DO NOTHING makes the
// insert idempotent even without the ledger's per-key lock.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `session_id, student_id, student_email, student_name, occurred_at, status, ip_address`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	var status string
	var ip sql.NullString
	err := row.Scan(&rec.SessionID, &rec.StudentID, &rec.StudentEmail, &rec.StudentName, &rec.Timestamp, &status, &ip)
	rec.Status = Status(status)
	rec.IPAddress = ip.String
	return rec, err
}

func (r *PostgresRepository) Insert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (session_id, student_id, student_email, student_name, occurred_at, status, ip_address)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (session_id, student_id) DO NOTHING
	`, rec.SessionID, rec.StudentID, rec.StudentEmail, rec.StudentName, rec.Timestamp, string(rec.Status), nullable(rec.IPAddress))
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Find(ctx context.Context, sessionID, studentID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE session_id = $1 AND student_id = $2
	`, sessionID, studentID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) FindByIPExcluding(ctx context.Context, sessionID, ip, excludeStudentID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE session_id = $1 AND ip_address = $2 AND student_id <> $3
		LIMIT 1
	`, sessionID, ip, excludeStudentID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE session_id = $1 ORDER BY occurred_at`, sessionID)
}

func (r *PostgresRepository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE student_id = $1 ORDER BY occurred_at`, studentID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records ORDER BY occurred_at`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
