package checkin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"geoattend/internal/geo"
	"geoattend/internal/roster"
	"geoattend/internal/session"
)

// AttendanceWindow is how long after a session starts students may check in.
// A session can outlive it administratively; check-in cannot.
const AttendanceWindow = 30 * time.Minute

// Service runs check-in attempts through the validation stages, cheapest
// first, so the location round trip only happens once everything else passed.
type Service struct {
	ledger *Ledger
	roster roster.Repository
	window time.Duration
}

// NewService creates a pipeline over a ledger and the roster.
func NewService(ledger *Ledger, rosterRepo roster.Repository, window time.Duration) *Service {
	if window <= 0 {
		window = AttendanceWindow
	}
	return &Service{ledger: ledger, roster: rosterRepo, window: window}
}

// Ledger exposes the underlying ledger for read paths.
func (s *Service) Ledger() *Ledger { return s.ledger }

// Attempt validates one check-in. The first failing stage wins; on success an
// immutable present record is appended and returned. Stage order: time window,
// duplicate, roster membership, name consistency, network reuse, geofence.
func (s *Service) Attempt(ctx context.Context, sess session.Session, stu Student, loc LocationSource, net NetworkSource, now time.Time) (Record, error) {
	if now.Sub(sess.StartTime) > s.window {
		return Record{}, errWindowExpired()
	}

	has, err := s.ledger.HasRecord(ctx, sess.ID, stu.ID)
	if err != nil {
		return Record{}, fmt.Errorf("duplicate check: %w", err)
	}
	if has {
		return Record{}, errAlreadyCheckedIn()
	}

	entries, err := s.roster.ListAll(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("roster lookup: %w", err)
	}
	var entry *roster.Student
	for i := range entries {
		if entries[i].ID == stu.ID {
			entry = &entries[i]
			break
		}
	}
	// An empty roster disables the membership and name checks (bootstrap mode).
	if len(entries) > 0 && entry == nil {
		return Record{}, errNotOnRoster(stu.ID)
	}
	if entry != nil {
		// Blunt heuristic against id sharing: the registered first name must
		// appear somewhere in the roster's full name.
		if !strings.Contains(strings.ToLower(entry.FullName), strings.ToLower(stu.FirstName)) {
			return Record{}, errNameMismatch(stu.ID, entry.FullName, stu.FirstName)
		}
	}

	ip := net.Identifier(ctx)
	reused, err := s.ledger.FindByIPExcluding(ctx, sess.ID, ip, stu.ID)
	if err != nil {
		return Record{}, fmt.Errorf("network reuse check: %w", err)
	}
	if reused != nil {
		return Record{}, errDeviceReuse()
	}

	coords, err := loc.Current(ctx)
	if err != nil {
		return Record{}, errLocationUnavailable(err)
	}
	dist := geo.DistanceMeters(coords.Latitude, coords.Longitude, sess.Latitude, sess.Longitude)
	if dist > float64(sess.Radius) {
		return Record{}, errOutOfRange(dist, sess.Radius)
	}

	rec := Record{
		SessionID:    sess.ID,
		StudentID:    stu.ID,
		StudentEmail: stu.Email,
		StudentName:  stu.FullName(),
		Timestamp:    now,
		Status:       StatusPresent,
		IPAddress:    ip,
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("append record: %w", err)
	}
	return rec, nil
}
