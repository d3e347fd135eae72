package monitoring

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const metricsSchema = `
CREATE TABLE IF NOT EXISTS request_metrics (
	request_id       TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	timestamp        INTEGER NOT NULL,
	latency_ms       REAL NOT NULL,
	intent           TEXT,
	model_calls      INTEGER NOT NULL,
	tool_calls       TEXT,
	guardrail_blocks INTEGER NOT NULL,
	block_reason     TEXT,
	success          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_metrics_ts ON request_metrics (timestamp);
`

// SQLiteSink persists completed request records to a sqlite file so
// metrics survive restarts and the dashboard can query history.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if needed) the metrics database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating metrics db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening metrics db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(metricsSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("initializing metrics schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Record stores one completed request record.
func (s *SQLiteSink) Record(rec RequestRecord) error {
	toolCalls, err := json.Marshal(rec.ToolCalls)
	if err != nil {
		return fmt.Errorf("encoding tool calls: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO request_metrics
		 (request_id, user_id, session_id, timestamp, latency_ms, intent,
		  model_calls, tool_calls, guardrail_blocks, block_reason, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.UserID, rec.SessionID, rec.Timestamp.Unix(),
		rec.LatencyMS, rec.Intent, rec.ModelCalls, string(toolCalls),
		rec.GuardrailBlocks, rec.BlockReason, boolToInt(rec.Success))
	if err != nil {
		return fmt.Errorf("writing request metrics: %w", err)
	}
	return nil
}

// Count returns the number of stored request records.
func (s *SQLiteSink) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM request_metrics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting request metrics: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
