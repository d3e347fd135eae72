package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tellerbot/teller/internal/log"
)

// janitorInterval is how often the memory backend sweeps expired sessions.
const janitorInterval = time.Minute

// Memory is the in-process session backend.
//
// Sessions expire after a TTL measured from last access; a background
// janitor removes them. Close stops the janitor.
type Memory struct {
	appName string
	ttl     time.Duration
	logger  log.Logger

	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	closed   bool

	stats Stats

	done chan struct{}
	wg   sync.WaitGroup
}

type memoryEntry struct {
	sess     *Session
	lastSeen time.Time
}

func memoryKey(userID, sessionID string) string {
	return userID + "/" + sessionID
}

// NewMemory creates a memory backend with the given TTL and starts its
// cleanup janitor.
func NewMemory(appName string, ttl time.Duration, logger log.Logger) *Memory {
	m := &Memory{
		appName:  appName,
		ttl:      ttl,
		logger:   logger.With("component", "session.memory"),
		sessions: make(map[string]*memoryEntry),
		done:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.janitor()

	return m
}

func (m *Memory) Create(_ context.Context, userID, sessionID string, state map[string]any) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	sess := New(m.appName, userID, sessionID, state)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	m.sessions[memoryKey(userID, sessionID)] = &memoryEntry{sess: sess, lastSeen: time.Now()}
	m.stats.Created++

	m.logger.Info("created session", "user_id", userID, "session_id", sessionID)
	return sess, nil
}

func (m *Memory) Get(_ context.Context, userID, sessionID string) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	entry, ok := m.sessions[memoryKey(userID, sessionID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, sessionID)
	}

	entry.lastSeen = time.Now()
	m.stats.Accessed++
	return entry.sess, nil
}

func (m *Memory) Update(_ context.Context, sess *Session) error {
	if err := validateKey(sess.UserID, sess.ID); err != nil {
		return err
	}

	sess.LastUpdate = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.sessions[memoryKey(sess.UserID, sess.ID)] = &memoryEntry{sess: sess, lastSeen: time.Now()}
	m.stats.Updated++
	return nil
}

func (m *Memory) Delete(_ context.Context, userID, sessionID string) error {
	if err := validateKey(userID, sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	key := memoryKey(userID, sessionID)
	if _, ok := m.sessions[key]; ok {
		delete(m.sessions, key)
		m.stats.Deleted++
		m.logger.Info("deleted session", "user_id", userID, "session_id", sessionID)
	}
	return nil
}

func (m *Memory) List(_ context.Context, userID string) ([]*Session, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Session
	for _, entry := range m.sessions {
		if entry.sess.UserID == userID {
			out = append(out, entry.sess)
		}
	}
	sortByRecency(out)
	return out, nil
}

// Stats returns lifecycle counters and the current session count.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.stats
	s.Active = int64(len(m.sessions))
	return s
}

// Close stops the janitor and rejects further operations.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
	return nil
}

func (m *Memory) janitor() {
	defer m.wg.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes sessions idle past the TTL.
func (m *Memory) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(m.sessions, key)
			m.stats.Expired++
			m.logger.Info("expired session", "key", key)
		}
	}
}
