package session

import (
	"context"
	"errors"
	"time"
)

// Type distinguishes the two kinds of attendance sessions a term runs on.
type Type string

const (
	TypeLecture Type = "Lecture"
	TypeSection Type = "Section"
)

// Timing and geometry defaults for a term.
const (
	// Timeout is how long a session stays open before the sweep closes it.
	Timeout = time.Hour
	// WeeksPerTerm bounds the week field and sizes the master report.
	WeeksPerTerm = 14

	MinRadius     = 10
	MaxRadius     = 60
	RadiusStep    = 5
	DefaultRadius = 30
)

// Group catalogs per session type.
var (
	LectureGroups = []string{"Group A", "Group B"}
	SectionGroups = []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4"}
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrDuplicateID = errors.New("session id already exists")
)

// Session is a GPS-anchored, time-boxed attendance opportunity. Once IsActive
// flips to false it never flips back; records against the session are kept
// regardless.
type Session struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	Week      int       `json:"week"`
	StartTime time.Time `json:"start_time"`
	IsActive  bool      `json:"is_active"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    int       `json:"radius"`
	CreatedBy string    `json:"created_by"`
}

// GroupsFor returns the valid group catalog for a session type.
func GroupsFor(t Type) []string {
	if t == TypeSection {
		return SectionGroups
	}
	return LectureGroups
}

// ValidGroup reports whether group belongs to the catalog for t.
func ValidGroup(t Type, group string) bool {
	for _, g := range GroupsFor(t) {
		if g == group {
			return true
		}
	}
	return false
}

// Repository persists sessions. Implementations must treat SetInactive on an
// already-inactive session as a no-op.
type Repository interface {
	Insert(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	ListAll(ctx context.Context) ([]Session, error)
	ListActive(ctx context.Context) ([]Session, error)
	SetInactive(ctx context.Context, id string) error
}
