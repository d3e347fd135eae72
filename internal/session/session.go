package session

import (
	"sort"
	"time"
)

// State keys used by the agents and guardrails.
// Persistent backends round-trip these values through JSON, so use the
// typed accessors below instead of reading the map directly.
const (
	KeyAuthenticated      = "user_authenticated"
	KeyMessageCount       = "message_count"
	KeyLastIntent         = "last_intent"
	KeyBlockedInputCount  = "blocked_input_count"
	KeyLastAccountChecked = "last_account_checked"
	KeyTransferHistory    = "transfer_history"
	KeyLastTransactionID  = "last_transaction_id"
)

// Session represents one conversation between a user and the assistant.
//
// Note: a Session is a snapshot, not a live handle. Mutate State and
// call Service.Update to persist; concurrent turns on the same session
// follow last-write-wins.
type Session struct {
	AppName    string         `json:"app_name"`
	UserID     string         `json:"user_id"`
	ID         string         `json:"session_id"`
	State      map[string]any `json:"state"`
	LastUpdate time.Time      `json:"last_update_time"`
}

// TransferRecord is one entry in the session's transfer history.
type TransferRecord struct {
	TransactionID string  `json:"transaction_id"`
	Source        string  `json:"source_account"`
	Destination   string  `json:"destination_account"`
	Amount        float64 `json:"amount"`
	Timestamp     string  `json:"timestamp"`
}

// New creates a session with the given initial state.
// A nil state yields an empty, non-nil map.
func New(appName, userID, sessionID string, state map[string]any) *Session {
	if state == nil {
		state = make(map[string]any)
	}
	return &Session{
		AppName:    appName,
		UserID:     userID,
		ID:         sessionID,
		State:      state,
		LastUpdate: time.Now().UTC(),
	}
}

// sortByRecency orders sessions most recently updated first. List
// implementations apply it so callers can treat the first entry as the
// user's current conversation.
func sortByRecency(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdate.After(sessions[j].LastUpdate)
	})
}

// Authenticated reports whether the user has authenticated in this session.
func (s *Session) Authenticated() bool {
	v, ok := s.State[KeyAuthenticated].(bool)
	return ok && v
}

// SetAuthenticated records the authentication flag.
func (s *Session) SetAuthenticated(authenticated bool) {
	s.State[KeyAuthenticated] = authenticated
}

// MessageCount returns the number of user messages processed so far.
// Handles both int (in-memory) and float64 (JSON round-trip) encodings.
func (s *Session) MessageCount() int {
	switch v := s.State[KeyMessageCount].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// IncrementMessageCount bumps the message counter and returns the new value.
func (s *Session) IncrementMessageCount() int {
	n := s.MessageCount() + 1
	s.State[KeyMessageCount] = n
	return n
}

// LastIntent returns the classified intent of the most recent turn, or "".
func (s *Session) LastIntent() string {
	v, _ := s.State[KeyLastIntent].(string)
	return v
}

// SetLastIntent records the classified intent of the current turn.
func (s *Session) SetLastIntent(intent string) {
	s.State[KeyLastIntent] = intent
}

// BlockedInputCount returns how many of this session's messages the
// input guard has rejected.
func (s *Session) BlockedInputCount() int {
	switch v := s.State[KeyBlockedInputCount].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// IncrementBlockedInputCount bumps the blocked message counter and
// returns the new value.
func (s *Session) IncrementBlockedInputCount() int {
	n := s.BlockedInputCount() + 1
	s.State[KeyBlockedInputCount] = n
	return n
}

// LastAccountChecked returns the account of the most recent balance
// query, or "" if none has happened in this session.
func (s *Session) LastAccountChecked() string {
	v, _ := s.State[KeyLastAccountChecked].(string)
	return v
}

// SetLastAccountChecked records the account of a balance query.
func (s *Session) SetLastAccountChecked(accountID string) {
	s.State[KeyLastAccountChecked] = accountID
}

// AppendTransfer adds a completed transfer to the session history and
// records its transaction ID as the most recent one.
// History entries are stored as plain maps so every backend serializes
// them identically.
func (s *Session) AppendTransfer(rec TransferRecord) {
	entry := map[string]any{
		"transaction_id":      rec.TransactionID,
		"source_account":      rec.Source,
		"destination_account": rec.Destination,
		"amount":              rec.Amount,
		"timestamp":           rec.Timestamp,
	}

	history, _ := s.State[KeyTransferHistory].([]any)
	s.State[KeyTransferHistory] = append(history, entry)
	s.State[KeyLastTransactionID] = rec.TransactionID
}

// TransferCount returns the number of transfers recorded in this session.
func (s *Session) TransferCount() int {
	history, _ := s.State[KeyTransferHistory].([]any)
	return len(history)
}

// LastTransactionID returns the ID of the most recent transfer, or "".
func (s *Session) LastTransactionID() string {
	v, _ := s.State[KeyLastTransactionID].(string)
	return v
}
