package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("STATS_API_BASE_URL")
	os.Unsetenv("SNAPSHOT_STORE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.StatsAPIBaseURL != DefaultStatsAPIBaseURL {
		t.Errorf("expected default base url, got %s", cfg.StatsAPIBaseURL)
	}
	if cfg.StatsAPITimeout != 15*time.Second {
		t.Errorf("expected 15s upstream timeout, got %s", cfg.StatsAPITimeout)
	}
	if cfg.SnapshotStore != SnapshotStoreNone {
		t.Errorf("expected snapshot store none, got %s", cfg.SnapshotStore)
	}
	if cfg.RateLimitBurst != 100 {
		t.Errorf("expected default burst 100, got %d", cfg.RateLimitBurst)
	}
}

func TestLoad_TrimsBaseURL(t *testing.T) {
	os.Setenv("STATS_API_BASE_URL", "https://stats.example.org/api/")
	defer os.Unsetenv("STATS_API_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StatsAPIBaseURL != "https://stats.example.org/api" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.StatsAPIBaseURL)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ResolvedAuthMode(t *testing.T) {
	if m := (&Config{Env: "development"}).ResolvedAuthMode(); m != "none" {
		t.Errorf("expected none in development, got %s", m)
	}
	if m := (&Config{Env: "staging"}).ResolvedAuthMode(); m != "jwt" {
		t.Errorf("expected jwt outside development, got %s", m)
	}
	if m := (&Config{Env: "development", AuthMode: "jwt"}).ResolvedAuthMode(); m != "jwt" {
		t.Errorf("expected explicit mode to win, got %s", m)
	}
}

func validConfig() *Config {
	return &Config{
		Env:             "development",
		StatsAPIBaseURL: DefaultStatsAPIBaseURL,
		SnapshotStore:   SnapshotStoreNone,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"development defaults", func(c *Config) {}, false},
		{"jwt without key", func(c *Config) { c.AuthMode = "jwt" }, true},
		{"jwt short key", func(c *Config) { c.AuthMode = "jwt"; c.AuthSigningKey = "short" }, true},
		{"jwt with key", func(c *Config) {
			c.AuthMode = "jwt"
			c.AuthSigningKey = "0123456789abcdef0123456789abcdef"
		}, false},
		{"jwt with jwks", func(c *Config) {
			c.AuthMode = "jwt"
			c.AuthJWKSURL = "https://auth.example.org/.well-known/jwks.json"
		}, false},
		{"open production", func(c *Config) { c.Env = "production"; c.AuthMode = "none" }, true},
		{"unknown auth mode", func(c *Config) { c.AuthMode = "oauth" }, true},
		{"non-http base url", func(c *Config) { c.StatsAPIBaseURL = "ftp://x" }, true},
		{"postgres without url", func(c *Config) { c.SnapshotStore = SnapshotStorePostgres }, true},
		{"postgres with url", func(c *Config) {
			c.SnapshotStore = SnapshotStorePostgres
			c.DatabaseURL = "postgres://u:p@localhost:5432/db"
		}, false},
		{"sqlite without path", func(c *Config) { c.SnapshotStore = SnapshotStoreSQLite }, true},
		{"unknown store", func(c *Config) { c.SnapshotStore = "redis" }, true},
		{"rate limit without burst", func(c *Config) { c.RateLimitRPS = 10; c.RateLimitBurst = 0 }, true},
		{"rate limit with burst", func(c *Config) { c.RateLimitRPS = 10; c.RateLimitBurst = 1 }, false},
		{"burst ignored when unlimited", func(c *Config) { c.RateLimitRPS = 0; c.RateLimitBurst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
