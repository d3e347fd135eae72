package session

import "context"

// Service is the session persistence interface.
// All implementations must be safe for concurrent use.
type Service interface {
	// Create stores a new session with the given initial state.
	// Creating a session that already exists overwrites it.
	Create(ctx context.Context, userID, sessionID string, state map[string]any) (*Session, error)

	// Get loads a session. Returns ErrNotFound if it does not exist
	// or has expired.
	Get(ctx context.Context, userID, sessionID string) (*Session, error)

	// Update persists the session's current state.
	// Updating a missing session creates it (upsert).
	Update(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID, sessionID string) error

	// List returns all sessions belonging to a user.
	List(ctx context.Context, userID string) ([]*Session, error)

	// Close releases backend resources. The service must not be used
	// after Close.
	Close() error
}

// Stats counts lifecycle events for a session backend.
type Stats struct {
	Created  int64 `json:"created"`
	Updated  int64 `json:"updated"`
	Accessed int64 `json:"accessed"`
	Deleted  int64 `json:"deleted"`
	Expired  int64 `json:"expired"`
	Active   int64 `json:"active_sessions"`
}

// StatsProvider is implemented by backends that track lifecycle counters.
// The metrics endpoint type-asserts for it.
type StatsProvider interface {
	Stats() Stats
}

func validateKey(userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return ErrInvalidID
	}
	return nil
}
