package session

import "errors"

// Sentinel errors for session operations.
// These errors are part of the Service API and should be checked using
// errors.Is().
//
// Example:
//
//	sess, err := svc.Get(ctx, userID, sessionID)
//	if errors.Is(err, session.ErrNotFound) {
//	    // Handle missing session
//	}
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID indicates an empty user or session identifier.
	ErrInvalidID = errors.New("invalid session identifier")

	// ErrClosed indicates the service has been closed.
	ErrClosed = errors.New("session service closed")
)
