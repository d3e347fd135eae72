// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.teller/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider and model selection for the root agent and classifier
//   - Banking: transfer limits, balance floor, blocked keywords,
//     restricted account patterns
//   - Session: backend selection (memory, sqlite, redis) and TTL
//   - API: listen address, CORS origins, rate limiting
//
// Security: sensitive values (redis password) are masked in MarshalJSON.
// Validation: range checks live in validation.go with sentinel errors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

// Session backend identifiers used in Config.SessionBackend.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// AppName identifies this application in session keys and logs.
const AppName = "teller"

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider        string `mapstructure:"provider" json:"provider"`
	ModelName       string `mapstructure:"model_name" json:"model_name"`
	ClassifierModel string `mapstructure:"classifier_model" json:"classifier_model"`
	MaxTurns        int    `mapstructure:"max_turns" json:"max_turns"`

	// Banking policy configuration
	MaxTransferAmount  float64  `mapstructure:"max_transfer_amount" json:"max_transfer_amount"`
	DailyTransferLimit float64  `mapstructure:"daily_transfer_limit" json:"daily_transfer_limit"`
	MinimumBalance     float64  `mapstructure:"minimum_balance" json:"minimum_balance"`
	AuthRequired       bool     `mapstructure:"auth_required" json:"auth_required"`
	BlockedKeywords    []string `mapstructure:"blocked_keywords" json:"blocked_keywords"`
	RestrictedAccounts []string `mapstructure:"restricted_accounts" json:"restricted_accounts"`

	// Session configuration
	SessionBackend string `mapstructure:"session_backend" json:"session_backend"`
	SessionTTL     int    `mapstructure:"session_ttl" json:"session_ttl"` // seconds
	SessionDBPath  string `mapstructure:"session_db_path" json:"session_db_path"`
	RedisAddr      string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password" json:"redis_password"` // SENSITIVE: masked in MarshalJSON

	// Monitoring configuration
	MetricsDBPath string `mapstructure:"metrics_db_path" json:"metrics_db_path"` // empty disables the sqlite sink

	// API configuration
	Host        string   `mapstructure:"host" json:"host"`
	Port        int      `mapstructure:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"` // 0 = default

	// UI/UX configuration
	WelcomeMessage string `mapstructure:"welcome_message" json:"welcome_message"`
	AuthMessage    string `mapstructure:"auth_message" json:"auth_message"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".teller")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("classifier_model", "gemini-2.5-flash")
	v.SetDefault("max_turns", 5)

	// Banking policy defaults (mirroring the hosted deployment)
	v.SetDefault("max_transfer_amount", 1000.0)
	v.SetDefault("daily_transfer_limit", 5000.0)
	v.SetDefault("minimum_balance", 0.0)
	v.SetDefault("auth_required", true)
	v.SetDefault("blocked_keywords", []string{
		"password", "ssn", "social security", "credit card number", "pin",
		"hack", "exploit", "bypass", "fraud", "steal", "illegal",
	})
	v.SetDefault("restricted_accounts", []string{"business", "corporate", "trust", "minor", "deceased"})

	// Session defaults
	v.SetDefault("session_backend", SessionBackendMemory)
	v.SetDefault("session_ttl", 3600)
	v.SetDefault("session_db_path", "data/teller_sessions.db")
	v.SetDefault("redis_addr", "localhost:6379")

	// API defaults
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("trust_proxy", false)

	// UI defaults
	v.SetDefault("welcome_message", "Welcome to Banking Assistant! How can I help you today?")
	v.SetDefault("auth_message", "Please authenticate to access banking services.")
}

// bindEnvVariables binds environment variables explicitly.
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper;
// its presence is checked at startup in the cmd package.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "TELLER_PROVIDER")
	mustBind("model_name", "TELLER_MODEL_NAME")
	mustBind("classifier_model", "TELLER_CLASSIFIER_MODEL")

	mustBind("max_transfer_amount", "MAX_TRANSFER_AMOUNT")
	mustBind("daily_transfer_limit", "DAILY_TRANSFER_LIMIT")
	mustBind("minimum_balance", "MINIMUM_BALANCE")
	mustBind("auth_required", "AUTH_REQUIRED")

	mustBind("session_backend", "SESSION_TYPE")
	mustBind("session_ttl", "SESSION_TTL")
	mustBind("session_db_path", "SESSION_DB_PATH")
	mustBind("redis_addr", "TELLER_REDIS_ADDR")
	mustBind("redis_password", "TELLER_REDIS_PASSWORD")

	mustBind("metrics_db_path", "TELLER_METRICS_DB_PATH")

	mustBind("host", "API_HOST")
	mustBind("port", "API_PORT")
	mustBind("cors_origins", "CORS_ORIGINS")
	mustBind("trust_proxy", "TELLER_TRUST_PROXY")
	mustBind("rate_burst", "TELLER_RATE_BURST")

	mustBind("welcome_message", "WELCOME_MESSAGE")
	mustBind("auth_message", "AUTH_MESSAGE")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked to prevent substring
// matching; longer secrets show first and last 2 characters.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.RedisPassword = maskSecret(a.RedisPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". If ModelName already contains
// a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	return qualifyModel(c.ModelName)
}

// FullClassifierModel returns the provider-qualified classifier model name.
// Falls back to the main model when no classifier model is configured.
func (c *Config) FullClassifierModel() string {
	if c.ClassifierModel == "" {
		return c.FullModelName()
	}
	return qualifyModel(c.ClassifierModel)
}

// Addr returns the host:port listen address for the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func qualifyModel(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return ProviderGoogleAI + "/" + name
}
