package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeIntrospect = "introspect"
	AuthModeJWT        = "jwt"

	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	BackendURL        string        `mapstructure:"BACKEND_URL"`
	BackendServiceKey string        `mapstructure:"BACKEND_SERVICE_KEY"`
	BackendTimeout    time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	AuthMode          string        `mapstructure:"AUTH_MODE"`
	AuthJWTSecret     string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthAudience      string        `mapstructure:"AUTH_AUDIENCE"`
	AuthIssuer        string        `mapstructure:"AUTH_ISSUER"`
	RowStoreDriver    string        `mapstructure:"ROWSTORE_DRIVER"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	ObjectStoreDriver string        `mapstructure:"OBJECTSTORE_DRIVER"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	PolicyFile        string        `mapstructure:"POLICY_FILE"`
	UploadMaxBytes    int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	OutboxInterval    time.Duration `mapstructure:"OUTBOX_RETRY_INTERVAL"`
	OutboxMaxBackoff  time.Duration `mapstructure:"OUTBOX_MAX_BACKOFF"`
	// SandboxPatients seeds that many demo patients, with hospitals and
	// staff, into the in-memory row-store at startup. Zero disables.
	SandboxPatients int `mapstructure:"SANDBOX_PATIENTS"`
}

var keys = []string{
	"PORT", "ENV",
	"BACKEND_URL", "BACKEND_SERVICE_KEY", "BACKEND_TIMEOUT",
	"AUTH_MODE", "AUTH_JWT_SECRET", "AUTH_AUDIENCE", "AUTH_ISSUER",
	"ROWSTORE_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"OBJECTSTORE_DRIVER", "REDIS_URL", "POLICY_FILE",
	"UPLOAD_MAX_BYTES", "BODY_LIMIT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT", "OUTBOX_RETRY_INTERVAL", "OUTBOX_MAX_BACKOFF",
	"SANDBOX_PATIENTS",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. It does not validate; call Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("AUTH_MODE", AuthModeIntrospect)
	v.SetDefault("ROWSTORE_DRIVER", DriverREST)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("OBJECTSTORE_DRIVER", DriverREST)
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("BODY_LIMIT", "15M")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("OUTBOX_RETRY_INTERVAL", "5s")
	v.SetDefault("OUTBOX_MAX_BACKOFF", "5m")
	v.SetDefault("SANDBOX_PATIENTS", 0)

	// Unmarshal only sees env vars that are bound.
	for _, k := range keys {
		v.BindEnv(k)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.RowStoreDriver = strings.ToLower(strings.TrimSpace(cfg.RowStoreDriver))
	cfg.ObjectStoreDriver = strings.ToLower(strings.TrimSpace(cfg.ObjectStoreDriver))
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NeedsBackend reports whether any collaborator talks to the hosted
// backend.
func (c *Config) NeedsBackend() bool {
	return c.AuthMode == AuthModeIntrospect ||
		c.RowStoreDriver == DriverREST ||
		c.ObjectStoreDriver == DriverREST
}

// Validate checks that the selected drivers have what they need. The
// in-memory drivers are refused in production.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeIntrospect:
	case AuthModeJWT:
		if c.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE is %q", AuthModeJWT)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeIntrospect, AuthModeJWT, c.AuthMode)
	}

	switch c.RowStoreDriver {
	case DriverREST, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ROWSTORE_DRIVER is %q", DriverPostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("ROWSTORE_DRIVER must be rest, postgres or memory, got %q", c.RowStoreDriver)
	}

	switch c.ObjectStoreDriver {
	case DriverREST, DriverMemory:
	default:
		return fmt.Errorf("OBJECTSTORE_DRIVER must be rest or memory, got %q", c.ObjectStoreDriver)
	}

	if c.NeedsBackend() {
		if c.BackendURL == "" {
			return fmt.Errorf("BACKEND_URL is required by the selected drivers")
		}
		if c.BackendServiceKey == "" {
			return fmt.Errorf("BACKEND_SERVICE_KEY is required by the selected drivers")
		}
	}

	if c.IsProduction() && (c.RowStoreDriver == DriverMemory || c.ObjectStoreDriver == DriverMemory) {
		return fmt.Errorf("in-memory stores are not allowed in production")
	}
	if c.SandboxPatients < 0 {
		return fmt.Errorf("SANDBOX_PATIENTS must not be negative")
	}
	if c.SandboxPatients > 0 && c.RowStoreDriver != DriverMemory {
		return fmt.Errorf("SANDBOX_PATIENTS only applies to the memory row-store; use the seed command instead")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
