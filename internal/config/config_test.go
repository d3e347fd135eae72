package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a configuration that passes Validate().
func validConfig() *Config {
	return &Config{
		Provider:           ProviderGemini,
		ModelName:          "gemini-2.5-flash",
		MaxTransferAmount:  1000,
		DailyTransferLimit: 5000,
		MinimumBalance:     0,
		SessionBackend:     SessionBackendMemory,
		SessionTTL:         3600,
		Host:               "127.0.0.1",
		Port:               8000,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "nil config",
			mutate:  nil,
			wantErr: ErrConfigNil,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "zero transfer limit",
			mutate:  func(c *Config) { c.MaxTransferAmount = 0 },
			wantErr: ErrInvalidTransferLimit,
		},
		{
			name:    "daily limit below per-transaction limit",
			mutate:  func(c *Config) { c.DailyTransferLimit = 100 },
			wantErr: ErrInvalidTransferLimit,
		},
		{
			name:    "negative minimum balance",
			mutate:  func(c *Config) { c.MinimumBalance = -1 },
			wantErr: ErrInvalidMinimumBalance,
		},
		{
			name:    "unknown session backend",
			mutate:  func(c *Config) { c.SessionBackend = "etcd" },
			wantErr: ErrInvalidSessionBackend,
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *Config) {
				c.SessionBackend = SessionBackendSQLite
				c.SessionDBPath = ""
			},
			wantErr: ErrMissingSessionDBPath,
		},
		{
			name: "redis backend without addr",
			mutate: func(c *Config) {
				c.SessionBackend = SessionBackendRedis
				c.RedisAddr = ""
			},
			wantErr: ErrMissingRedisAddr,
		},
		{
			name:    "zero session TTL",
			mutate:  func(c *Config) { c.SessionTTL = 0 },
			wantErr: ErrInvalidSessionTTL,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: ErrInvalidPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *Config
			if tt.mutate != nil {
				cfg = validConfig()
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  string
	}{
		{"unqualified", "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"already qualified", "googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ModelName = tt.model
			if got := cfg.FullModelName(); got != tt.want {
				t.Errorf("FullModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFullClassifierModel_FallsBackToModelName(t *testing.T) {
	cfg := validConfig()
	cfg.ClassifierModel = ""
	if got := cfg.FullClassifierModel(); got != "googleai/gemini-2.5-flash" {
		t.Errorf("FullClassifierModel() = %q, want fallback to model_name", got)
	}

	cfg.ClassifierModel = "gemini-2.0-flash-lite"
	if got := cfg.FullClassifierModel(); got != "googleai/gemini-2.0-flash-lite" {
		t.Errorf("FullClassifierModel() = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "hunter2"},
		{"long", "super-secret-redis-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked := maskSecret(tt.secret)
			if len(tt.secret) > 4 && strings.Contains(masked, tt.secret[2:len(tt.secret)-2]) {
				t.Errorf("maskSecret(%q) = %q leaks secret body", tt.secret, masked)
			}
		})
	}
}

func TestMarshalJSON_MasksRedisPassword(t *testing.T) {
	cfg := validConfig()
	cfg.RedisPassword = "very-secret-password-value"

	data, err := cfg.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if strings.Contains(string(data), "very-secret-password-value") {
		t.Error("MarshalJSON() leaked redis password")
	}
}

func TestString_DoesNotLeakSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.RedisPassword = "another-secret-password"

	if strings.Contains(cfg.String(), "another-secret-password") {
		t.Error("String() leaked redis password")
	}
}

func TestAddr(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8000")
	}
}
