package checkin

import "fmt"

// Code identifies which validation stage rejected a check-in attempt.
type Code string

const (
	CodeWindowExpired       Code = "window_expired"
	CodeAlreadyCheckedIn    Code = "already_checked_in"
	CodeNotOnRoster         Code = "not_on_roster"
	CodeNameMismatch        Code = "name_mismatch"
	CodeDeviceReuse         Code = "device_reuse_suspected"
	CodeLocationUnavailable Code = "location_unavailable"
	CodeOutOfRange          Code = "out_of_range"
)

// Error is a pipeline rejection. Retryable errors may succeed on a later
// attempt after the student corrects the condition (moves closer, grants the
// location permission); the rest are final for this session.
type Error struct {
	Code      Code
	Message   string
	Retryable bool

	// Set for CodeOutOfRange.
	Distance float64
	Radius   int
}

func (e *Error) Error() string { return e.Message }

func errWindowExpired() *Error {
	return &Error{
		Code:    CodeWindowExpired,
		Message: "the attendance window for this session has closed",
	}
}

func errAlreadyCheckedIn() *Error {
	return &Error{
		Code:    CodeAlreadyCheckedIn,
		Message: "attendance is already recorded for this session",
	}
}

func errNotOnRoster(studentID string) *Error {
	return &Error{
		Code:    CodeNotOnRoster,
		Message: fmt.Sprintf("id %s is not on the instructor's student list", studentID),
	}
}

func errNameMismatch(studentID, rosterName, firstName string) *Error {
	return &Error{
		Code:    CodeNameMismatch,
		Message: fmt.Sprintf("id %s is registered to %s, but you signed up as %s", studentID, rosterName, firstName),
	}
}

// Deliberately vague so the message does not coach circumvention.
func errDeviceReuse() *Error {
	return &Error{
		Code:    CodeDeviceReuse,
		Message: "this network has already been used to check in another student",
	}
}

func errLocationUnavailable(cause error) *Error {
	return &Error{
		Code:      CodeLocationUnavailable,
		Message:   fmt.Sprintf("could not determine your location: %v", cause),
		Retryable: true,
	}
}

func errOutOfRange(distance float64, radius int) *Error {
	return &Error{
		Code:      CodeOutOfRange,
		Message:   fmt.Sprintf("you are %.0fm from the session point; you must be within %dm", distance, radius),
		Retryable: true,
		Distance:  distance,
		Radius:    radius,
	}
}
