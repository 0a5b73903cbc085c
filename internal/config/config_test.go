package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a config that passes validation (given GEMINI_API_KEY).
func validConfig() *Config {
	return &Config{
		ModelName:        DefaultModelName,
		Temperature:      0.0,
		MaxTokens:        800,
		EmbedderModel:    DefaultEmbedderModel,
		MaxResults:       DefaultMaxResults,
		MaxHistory:       DefaultMaxHistory,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "lectern",
		PostgresPassword: "secret-password-123",
		PostgresDBName:   "lectern",
		PostgresSSLMode:  "disable",
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"max results zero", func(c *Config) { c.MaxResults = 0 }, ErrInvalidMaxResults},
		{"max results too high", func(c *Config) { c.MaxResults = 100 }, ErrInvalidMaxResults},
		{"max history negative", func(c *Config) { c.MaxHistory = -1 }, ErrInvalidMaxHistory},
		{"empty postgres host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"postgres port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty postgres db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	err := validConfig().Validate()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Validate() = %v, want ErrMissingAPIKey", err)
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Fatalf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestMarshalJSONMasksPassword(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "super-secret-password"

	data, err := cfg.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}

	if strings.Contains(string(data), "super-secret-password") {
		t.Error("marshaled config leaks postgres password")
	}
	if !strings.Contains(string(data), maskedValue) {
		t.Error("marshaled config missing mask placeholder")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in       string
		fullMask bool
	}{
		{"", false},
		{"short", true},
		{"12345678", true},
		{"a-much-longer-secret", false},
	}

	for _, tt := range tests {
		got := maskSecret(tt.in)
		if tt.in == "" {
			if got != "" {
				t.Errorf("maskSecret(%q) = %q, want empty", tt.in, got)
			}
			continue
		}
		if tt.fullMask && got != maskedValue {
			t.Errorf("maskSecret(%q) = %q, want full mask", tt.in, got)
		}
		if !tt.fullMask && strings.Contains(got, tt.in[2:len(tt.in)-2]) {
			t.Errorf("maskSecret(%q) = %q leaks middle of secret", tt.in, got)
		}
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "has space's"

	dsn := cfg.PostgresConnectionString()
	if !strings.Contains(dsn, `password='has space\'s'`) {
		t.Errorf("DSN does not quote password correctly: %q", dsn)
	}
	if !strings.Contains(dsn, "host=localhost") || !strings.Contains(dsn, "dbname=lectern") {
		t.Errorf("DSN missing expected fields: %q", dsn)
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := validConfig()

	u := cfg.PostgresURL()
	if !strings.HasPrefix(u, "postgres://") {
		t.Errorf("PostgresURL() = %q, want postgres:// scheme", u)
	}
	if !strings.Contains(u, "sslmode=disable") {
		t.Errorf("PostgresURL() = %q, missing sslmode", u)
	}
}
