// internal/lobby/errors.go
package lobby

import "errors"

// Named failures returned by lobby operations. References go stale naturally
// across network latency (a room can be tidied away between a client seeing
// it and joining it), so all of these are ordinary error returns, never
// panics.
var (
	// ErrAlreadyRegistered is returned when a connection that already has a
	// User attempts to register again.
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrNotRegistered is returned when an operation requires an unassigned
	// user and the connection is unknown or already seated in a room.
	ErrNotRegistered = errors.New("no unassigned user for connection")

	// ErrRoomNotFound is returned when a room reference does not resolve to a
	// live room. Callers usually treat this as a benign race, not a fault.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidReference is returned when a user or player reference is
	// stale or forged.
	ErrInvalidReference = errors.New("reference does not resolve")
)
