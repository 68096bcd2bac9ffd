package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validParams() CreateParams {
	return CreateParams{
		Type:      TypeLecture,
		Name:      "Software Engineering",
		Group:     "Group A",
		Week:      3,
		Latitude:  30.0444,
		Longitude: 31.2357,
		Radius:    30,
		CreatedBy: "instructor@example.edu",
	}
}

func TestCreateValid(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0)
	now := time.Now()
	sess, err := svc.Create(context.Background(), validParams(), now)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" {
		t.Error("expected generated id")
	}
	if !sess.IsActive {
		t.Error("new session must be active")
	}
	if !sess.StartTime.Equal(now) {
		t.Errorf("start time = %v, want %v", sess.StartTime, now)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0)
	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"bad type", func(p *CreateParams) { p.Type = "Lab" }},
		{"empty name", func(p *CreateParams) { p.Name = "" }},
		{"week zero", func(p *CreateParams) { p.Week = 0 }},
		{"week fifteen", func(p *CreateParams) { p.Week = 15 }},
		{"group from wrong catalog", func(p *CreateParams) { p.Group = "A1" }},
		{"radius below minimum", func(p *CreateParams) { p.Radius = 5 }},
		{"radius above maximum", func(p *CreateParams) { p.Radius = 65 }},
		{"radius off step", func(p *CreateParams) { p.Radius = 33 }},
		{"no creator", func(p *CreateParams) { p.CreatedBy = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := svc.Create(context.Background(), p, time.Now()); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestCreateDefaultRadius(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0)
	p := validParams()
	p.Radius = 0
	sess, err := svc.Create(context.Background(), p, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if sess.Radius != DefaultRadius {
		t.Errorf("radius = %d, want default %d", sess.Radius, DefaultRadius)
	}
}

func TestDuplicateID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	s := Session{ID: "fixed", Type: TypeLecture, IsActive: true}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, s); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestStop(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 0)
	ctx := context.Background()
	sess, err := svc.Create(ctx, validParams(), time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Stop(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.Get(ctx, sess.ID)
	if got.IsActive {
		t.Error("session still active after stop")
	}

	// Idempotent.
	if err := svc.Stop(ctx, sess.ID); err != nil {
		t.Errorf("second stop should be a no-op, got %v", err)
	}

	if err := svc.Stop(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()
	now := time.Now()

	stale := Session{ID: "stale", Type: TypeLecture, IsActive: true, StartTime: now.Add(-2 * time.Hour)}
	fresh := Session{ID: "fresh", Type: TypeLecture, IsActive: true, StartTime: now.Add(-10 * time.Minute)}
	closed := Session{ID: "closed", Type: TypeSection, IsActive: false, StartTime: now.Add(-3 * time.Hour)}
	for _, s := range []Session{stale, fresh, closed} {
		if err := repo.Insert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	swept, err := svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
	if s, _ := repo.Get(ctx, "stale"); s.IsActive {
		t.Error("stale session should have been closed")
	}
	if s, _ := repo.Get(ctx, "fresh"); !s.IsActive {
		t.Error("fresh session should still be active")
	}

	// Running again sweeps nothing.
	swept, err = svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if swept != 0 {
		t.Errorf("second sweep = %d, want 0", swept)
	}
}

func TestSweepBoundary(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()
	now := time.Now()

	// Exactly at the timeout is not yet expired.
	edge := Session{ID: "edge", Type: TypeLecture, IsActive: true, StartTime: now.Add(-time.Hour)}
	if err := repo.Insert(ctx, edge); err != nil {
		t.Fatal(err)
	}
	swept, err := svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if swept != 0 {
		t.Errorf("session at exact timeout swept, want kept")
	}
}
