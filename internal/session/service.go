package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service owns the session lifecycle: creation, manual stop, and the stale
// session sweep.
type Service struct {
	repo    Repository
	timeout time.Duration
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Service{repo: repo, timeout: timeout}
}

// CreateParams carries the instructor's input for a new session. Coordinates
// are the instructor's reported position at creation time.
type CreateParams struct {
	Type      Type
	Name      string
	Group     string
	Week      int
	Latitude  float64
	Longitude float64
	Radius    int
	CreatedBy string
}

// Create validates params and persists a new active session anchored at the
// given coordinates.
func (s *Service) Create(ctx context.Context, p CreateParams, now time.Time) (Session, error) {
	if p.Type != TypeLecture && p.Type != TypeSection {
		return Session{}, fmt.Errorf("unknown session type %q", p.Type)
	}
	if p.Name == "" {
		return Session{}, errors.New("session name required")
	}
	if p.Week < 1 || p.Week > WeeksPerTerm {
		return Session{}, fmt.Errorf("week must be between 1 and %d", WeeksPerTerm)
	}
	if !ValidGroup(p.Type, p.Group) {
		return Session{}, fmt.Errorf("group %q is not valid for %s sessions", p.Group, p.Type)
	}
	if p.Radius == 0 {
		p.Radius = DefaultRadius
	}
	if p.Radius < MinRadius || p.Radius > MaxRadius || p.Radius%RadiusStep != 0 {
		return Session{}, fmt.Errorf("radius must be %d..%dm in steps of %d", MinRadius, MaxRadius, RadiusStep)
	}
	if p.CreatedBy == "" {
		return Session{}, errors.New("creator identity required")
	}

	sess := Session{
		ID:        uuid.NewString(),
		Type:      p.Type,
		Name:      p.Name,
		Group:     p.Group,
		Week:      p.Week,
		StartTime: now,
		IsActive:  true,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Radius:    p.Radius,
		CreatedBy: p.CreatedBy,
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.repo.Get(ctx, id)
}

// ListAll returns every session ever created.
func (s *Service) ListAll(ctx context.Context) ([]Session, error) {
	return s.repo.ListAll(ctx)
}

// ListActive returns sessions that have not been stopped or swept.
func (s *Service) ListActive(ctx context.Context) ([]Session, error) {
	return s.repo.ListActive(ctx)
}

// Stop deactivates a session. Stopping a stopped session is a no-op.
func (s *Service) Stop(ctx context.Context, id string) error {
	return s.repo.SetInactive(ctx, id)
}

// SweepExpired deactivates every active session older than the timeout and
// returns how many were closed. It is a garbage collection of stale sessions,
// safe to run repeatedly; attendance records are never touched.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, sess := range active {
		if now.Sub(sess.StartTime) > s.timeout {
			if err := s.repo.SetInactive(ctx, sess.ID); err != nil {
				return swept, err
			}
			swept++
		}
	}
	return swept, nil
}
