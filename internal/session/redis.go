package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tellerbot/teller/internal/log"
)

// Redis is the shared session backend for multi-instance deployments.
// Expiry is server-side: each write and read refreshes the key TTL,
// so no janitor is needed.
type Redis struct {
	appName string
	ttl     time.Duration
	client  *redis.Client
	logger  log.Logger
}

// NewRedis connects to the given redis address and verifies it with a ping.
func NewRedis(ctx context.Context, appName, addr, password string, ttl time.Duration, logger log.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis session store", "addr", addr)
	return &Redis{
		appName: appName,
		ttl:     ttl,
		client:  client,
		logger:  logger.With("component", "session.redis"),
	}, nil
}

func (r *Redis) key(userID, sessionID string) string {
	return fmt.Sprintf("%s:session:%s:%s", r.appName, userID, sessionID)
}

func (r *Redis) Create(ctx context.Context, userID, sessionID string, state map[string]any) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	sess := New(r.appName, userID, sessionID, state)
	if err := r.save(ctx, sess); err != nil {
		return nil, err
	}

	r.logger.Info("created session", "user_id", userID, "session_id", sessionID)
	return sess, nil
}

func (r *Redis) Get(ctx context.Context, userID, sessionID string) (*Session, error) {
	if err := validateKey(userID, sessionID); err != nil {
		return nil, err
	}

	key := r.key(userID, sessionID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	// Reading counts as activity; push the expiry out.
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to refresh session TTL", "key", key, "error", err)
	}

	return &sess, nil
}

func (r *Redis) Update(ctx context.Context, sess *Session) error {
	if err := validateKey(sess.UserID, sess.ID); err != nil {
		return err
	}
	sess.LastUpdate = time.Now().UTC()
	return r.save(ctx, sess)
}

func (r *Redis) Delete(ctx context.Context, userID, sessionID string) error {
	if err := validateKey(userID, sessionID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context, userID string) ([]*Session, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	pattern := fmt.Sprintf("%s:session:%s:*", r.appName, userID)
	var out []*Session

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", iter.Val(), err)
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, fmt.Errorf("decoding session %s: %w", iter.Val(), err)
		}
		out = append(out, &sess)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	// SCAN yields keys in no particular order.
	sortByRecency(out)
	return out, nil
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sess.UserID, sess.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
