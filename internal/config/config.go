package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultStatsAPIBaseURL is the statistics API the dashboard was built against.
const DefaultStatsAPIBaseURL = "http://197.248.180.210:9091/api"

// Snapshot store backends.
const (
	SnapshotStoreNone     = "none"
	SnapshotStorePostgres = "postgres"
	SnapshotStoreSQLite   = "sqlite"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	AuthMode string `mapstructure:"AUTH_MODE"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	StatsAPIBaseURL        string        `mapstructure:"STATS_API_BASE_URL"`
	StatsAPIFacilitiesPath string        `mapstructure:"STATS_API_FACILITIES_PATH"`
	StatsAPISummaryPath    string        `mapstructure:"STATS_API_SUMMARY_PATH"`
	StatsAPITimeout        time.Duration `mapstructure:"STATS_API_TIMEOUT"`

	SnapshotStore string `mapstructure:"SNAPSHOT_STORE"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32  `mapstructure:"DB_MIN_CONNS"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
}

var envKeys = []string{
	"PORT", "ENV", "AUTH_MODE",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"STATS_API_BASE_URL", "STATS_API_FACILITIES_PATH", "STATS_API_SUMMARY_PATH", "STATS_API_TIMEOUT",
	"SNAPSHOT_STORE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "SQLITE_PATH",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("CORS_ORIGINS", "http://localhost:8081")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("STATS_API_BASE_URL", DefaultStatsAPIBaseURL)
	v.SetDefault("STATS_API_FACILITIES_PATH", "/facilities")
	v.SetDefault("STATS_API_SUMMARY_PATH", "/summary")
	v.SetDefault("STATS_API_TIMEOUT", "15s")
	v.SetDefault("SNAPSHOT_STORE", SnapshotStoreNone)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SQLITE_PATH", "data/snapshots.db")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StatsAPIBaseURL = strings.TrimRight(cfg.StatsAPIBaseURL, "/")
	cfg.SnapshotStore = strings.ToLower(strings.TrimSpace(cfg.SnapshotStore))
	if cfg.SnapshotStore == "" {
		cfg.SnapshotStore = SnapshotStoreNone
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise development runs open ("none") and every
// other environment requires bearer tokens ("jwt").
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "none"
	}
	return "jwt"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE \"none\" is not allowed in production")
		}
	case "jwt":
		if c.AuthSigningKey == "" && c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_SIGNING_KEY or AUTH_JWKS_URL is required when AUTH_MODE is \"jwt\"")
		}
		if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
			return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"none\" or \"jwt\", got %q", mode)
	}

	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}

	if c.StatsAPIBaseURL == "" {
		return fmt.Errorf("STATS_API_BASE_URL must not be empty")
	}
	if !strings.HasPrefix(c.StatsAPIBaseURL, "http://") && !strings.HasPrefix(c.StatsAPIBaseURL, "https://") {
		return fmt.Errorf("STATS_API_BASE_URL must be an http(s) URL, got %q", c.StatsAPIBaseURL)
	}

	switch c.SnapshotStore {
	case SnapshotStoreNone:
	case SnapshotStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SNAPSHOT_STORE is %q", SnapshotStorePostgres)
		}
	case SnapshotStoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when SNAPSHOT_STORE is %q", SnapshotStoreSQLite)
		}
	default:
		return fmt.Errorf("SNAPSHOT_STORE must be %q, %q or %q, got %q",
			SnapshotStoreNone, SnapshotStorePostgres, SnapshotStoreSQLite, c.SnapshotStore)
	}

	return nil
}
