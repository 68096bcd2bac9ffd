package session

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists sessions in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a new session. The id is checked explicitly so a collision
// surfaces as ErrDuplicateID rather than a driver error.
func (r *PostgresRepository) Insert(ctx context.Context, s Session) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, type, name, group_name, week, start_time, is_active, latitude, longitude, radius, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING
	`, s.ID, string(s.Type), s.Name, s.Group, s.Week, s.StartTime, s.IsActive, s.Latitude, s.Longitude, s.Radius, s.CreatedBy)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

const sessionColumns = `id, type, name, group_name, week, start_time, is_active, latitude, longitude, radius, created_by`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	var typ string
	err := row.Scan(&s.ID, &typ, &s.Name, &s.Group, &s.Week, &s.StartTime, &s.IsActive, &s.Latitude, &s.Longitude, &s.Radius, &s.CreatedBy)
	s.Type = Type(typ)
	return s, err
}

// Get returns a single session by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// ListAll returns every session, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY start_time DESC`)
}

// ListActive returns sessions students may still see.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE is_active ORDER BY start_time DESC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SetInactive flips is_active off. Flipping an already-inactive session is
// not an error; an unknown id is.
func (r *PostgresRepository) SetInactive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Postgres counts a same-value update as affected, so zero rows
		// means the id does not exist.
		return ErrNotFound
	}
	return nil
}
