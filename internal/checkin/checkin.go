// Package checkin implements the validation pipeline a check-in attempt runs
// through and the ledger that keeps attendance records consistent.
//
// The IP-reuse stage compares raw identifier strings with no normalization, so
// students behind the same NAT (campus Wi-Fi included) can collide. That is
// inherited behavior, kept deliberately; see DESIGN.md.
package checkin

import (
	"context"
	"time"
)

// Status of a stored record. Absence is derived by the reports, never stored.
type Status string

const StatusPresent Status = "present"

// Record is one immutable attendance fact. At most one exists per
// (SessionID, StudentID).
type Record struct {
	SessionID    string    `json:"session_id"`
	StudentID    string    `json:"student_id"`
	StudentEmail string    `json:"student_email"`
	StudentName  string    `json:"student_name"`
	Timestamp    time.Time `json:"timestamp"`
	Status       Status    `json:"status"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// Student is the identity a check-in attempt runs under, as registered, not
// as listed on the roster.
type Student struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// FullName is the display name snapshotted into the record.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Coordinates is a reported device position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// LocationSource yields the caller's current position. Acquisition can fail
// (permission denied, timeout); that failure is surfaced as a distinct
// retryable pipeline error, never as out-of-range.
type LocationSource interface {
	Current(ctx context.Context) (Coordinates, error)
}

// LocationFunc adapts a function to a LocationSource.
type LocationFunc func(ctx context.Context) (Coordinates, error)

func (f LocationFunc) Current(ctx context.Context) (Coordinates, error) { return f(ctx) }

// StaticLocation wraps an already-known position.
func StaticLocation(lat, lon float64) LocationSource {
	return LocationFunc(func(context.Context) (Coordinates, error) {
		return Coordinates{Latitude: lat, Longitude: lon}, nil
	})
}

// NetworkSource yields the caller's network identifier. It never fails; an
// unidentifiable caller gets the provider's sentinel token.
type NetworkSource interface {
	Identifier(ctx context.Context) string
}

// NetworkFunc adapts a function to a NetworkSource.
type NetworkFunc func(ctx context.Context) string

func (f NetworkFunc) Identifier(ctx context.Context) string { return f(ctx) }

// StaticNetwork wraps a fixed identifier token.
func StaticNetwork(id string) NetworkSource {
	return NetworkFunc(func(context.Context) string { return id })
}
