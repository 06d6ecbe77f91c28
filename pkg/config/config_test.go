package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleTOML = `
service_name = "portfolio-service"

[database]
driver = "postgres"
dsn = "host=localhost user=portfolio dbname=portfolio"

[auth]
jwt_secret = "secret"

[quotes]
base_url = "http://quotes.internal"
timeout = "750ms"

[quotes.breaker]
consecutive_failures = 3
timeout = "10s"

[accounts]
base_url = "http://accounts.internal"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Quotes.Timeout != 750*time.Millisecond {
		t.Errorf("quotes timeout = %v, want 750ms", cfg.Quotes.Timeout)
	}
	if cfg.Quotes.Breaker.ConsecutiveFailures != 3 {
		t.Errorf("consecutive failures = %d, want 3", cfg.Quotes.Breaker.ConsecutiveFailures)
	}
	if cfg.Quotes.Breaker.Timeout != 10*time.Second {
		t.Errorf("breaker cooldown = %v, want 10s", cfg.Quotes.Breaker.Timeout)
	}
	// defaults
	if cfg.HTTP.Port != 8080 {
		t.Errorf("http port = %d, want default 8080", cfg.HTTP.Port)
	}
	if cfg.Accounts.Timeout != 5*time.Second {
		t.Errorf("accounts timeout = %v, want default 5s", cfg.Accounts.Timeout)
	}
	if cfg.Settlement.DefaultOrderFee != "10.50" {
		t.Errorf("default fee = %q, want 10.50", cfg.Settlement.DefaultOrderFee)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_ACCOUNTS_BASE_URL", "http://ledger.override")
	t.Setenv("APP_HTTP_PORT", "9999")

	cfg, err := Load(writeConfig(t, sampleTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Accounts.BaseURL != "http://ledger.override" {
		t.Errorf("accounts base url = %q, want env override", cfg.Accounts.BaseURL)
	}
	if cfg.HTTP.Port != 9999 {
		t.Errorf("http port = %d, want 9999", cfg.HTTP.Port)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("APP_DATABASE_DSN", "root:root@tcp(127.0.0.1:3306)/portfolio")
	t.Setenv("APP_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q, want default mysql", cfg.Database.Driver)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret not taken from env")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"missing quotes url", func(c *Config) { c.Quotes.BaseURL = "" }},
		{"zero ledger timeout", func(c *Config) { c.Accounts.Timeout = 0 }},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleTOML))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}
