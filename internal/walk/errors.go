// Package walk implements the walk-session subsystem: the booking state
// machine, path statistics, GPS anomaly detection and the session service
// that orchestrates them.  Persistence, broadcast and notification delivery
// are consumed through interfaces declared in stores.go.
package walk

import "errors"

// Sentinel errors forming the failure taxonomy of the subsystem.  Callers
// classify failures with errors.Is; handlers translate them into HTTP
// statuses (404, 409, 403, 400 respectively).
var (
	// ErrNotFound signals that a booking, walk detail or track data is
	// absent where it is required.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals an operation attempted against a booking
	// whose current status does not permit it.
	ErrInvalidState = errors.New("invalid state")

	// ErrForbidden signals that the requester is not a participant of the
	// booking or lacks the role the operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRequest signals malformed input such as missing
	// coordinates or an unset emergency contact.
	ErrInvalidRequest = errors.New("invalid request")
)
