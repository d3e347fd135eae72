package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration validation.
// Wrap with context using fmt.Errorf("%w: details", ErrXxx) and check
// with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTransferLimit indicates a non-positive transfer limit.
	ErrInvalidTransferLimit = errors.New("invalid transfer limit")

	// ErrInvalidMinimumBalance indicates a negative balance floor.
	ErrInvalidMinimumBalance = errors.New("invalid minimum balance")

	// ErrInvalidSessionBackend indicates an unsupported session backend.
	ErrInvalidSessionBackend = errors.New("invalid session backend")

	// ErrInvalidSessionTTL indicates a non-positive session TTL.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")

	// ErrInvalidPort indicates the API port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrMissingRedisAddr indicates the redis backend is selected
	// without an address.
	ErrMissingRedisAddr = errors.New("missing redis address")

	// ErrMissingSessionDBPath indicates the sqlite backend is selected
	// without a database path.
	ErrMissingSessionDBPath = errors.New("missing session database path")
)

// Validate checks all configuration values and fails fast on the first
// violation. Called from Load() so an invalid configuration never
// escapes the package.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name must not be empty", ErrInvalidModelName)
	}

	if c.MaxTransferAmount <= 0 {
		return fmt.Errorf("%w: max_transfer_amount must be positive, got %v",
			ErrInvalidTransferLimit, c.MaxTransferAmount)
	}
	if c.DailyTransferLimit > 0 && c.DailyTransferLimit < c.MaxTransferAmount {
		return fmt.Errorf("%w: daily_transfer_limit %v is below max_transfer_amount %v",
			ErrInvalidTransferLimit, c.DailyTransferLimit, c.MaxTransferAmount)
	}
	if c.MinimumBalance < 0 {
		return fmt.Errorf("%w: minimum_balance must not be negative, got %v",
			ErrInvalidMinimumBalance, c.MinimumBalance)
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendSQLite:
		if c.SessionDBPath == "" {
			return ErrMissingSessionDBPath
		}
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w: %q (supported: memory, sqlite, redis)",
			ErrInvalidSessionBackend, c.SessionBackend)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive, got %d",
			ErrInvalidSessionTTL, c.SessionTTL)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPort, c.Port)
	}

	return nil
}
