package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tellerbot/teller/internal/log"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	app_name         TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	state            TEXT NOT NULL,
	last_update_time INTEGER NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (app_name, user_id);
`

// SQLite is the file-backed session backend.
// State is stored as a JSON column; timestamps as unix seconds.
type SQLite struct {
	appName string
	db      *sql.DB
	logger  log.Logger
}

// NewSQLite opens (and if needed creates) the session database at path.
func NewSQLite(appName, path string, logger log.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating session db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	// modernc sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY under concurrent turns.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}

	logger.Info("initialized sqlite session store", "path", path)
	return &SQLite{
		appName: appName,
		db:      db,
		logger:  logger.With("component", "session.sqlite"),
	}, nil
}

func (s *SQLite) Create(ctx context.Context, userID, sessionID string, state map[string]any) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	sess := New(s.appName, userID, sessionID, state)
	if err := s.upsert(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("created session", "user_id", userID, "session_id", sessionID)
	return sess, nil
}

func (s *SQLite) Get(ctx context.Context, userID, sessionID string) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	var stateJSON string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT state, last_update_time FROM sessions
		 WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		s.appName, userID, sessionID,
	).Scan(&stateJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	return s.decode(userID, sessionID, stateJSON, updated)
}

func (s *SQLite) Update(ctx context.Context, sess *Session) error {
	if err := validateKey(sess.UserID, sess.ID); err != nil {
		return err
	}
	sess.LastUpdate = time.Now().UTC()
	return s.upsert(ctx, sess)
}

func (s *SQLite) Delete(ctx context.Context, userID, sessionID string) error {
	if err := validateKey(userID, sessionID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		s.appName, userID, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, userID string) ([]*Session, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, state, last_update_time FROM sessions
		 WHERE app_name = ? AND user_id = ?
		 ORDER BY last_update_time DESC`,
		s.appName, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*Session
	for rows.Next() {
		var sessionID, stateJSON string
		var updated int64
		if err := rows.Scan(&sessionID, &stateJSON, &updated); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sess, err := s.decode(userID, sessionID, stateJSON, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}
	return out, nil
}

// CleanupOlderThan deletes sessions not updated within maxAge and
// returns the number removed. Intended for a periodic maintenance call.
func (s *SQLite) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE last_update_time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleaned sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("cleaned up expired sessions", "count", n)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) upsert(ctx context.Context, sess *Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (app_name, user_id, session_id, state, last_update_time)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (app_name, user_id, session_id)
		 DO UPDATE SET state = excluded.state, last_update_time = excluded.last_update_time`,
		sess.AppName, sess.UserID, sess.ID, string(stateJSON), sess.LastUpdate.Unix())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SQLite) decode(userID, sessionID, stateJSON string, updated int64) (*Session, error) {
	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &Session{
		AppName:    s.appName,
		UserID:     userID,
		ID:         sessionID,
		State:      state,
		LastUpdate: time.Unix(updated, 0).UTC(),
	}, nil
}
