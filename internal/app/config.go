package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Audit delivery modes.
const (
	AuditModeDirect = "direct"
	AuditModeQueue  = "queue"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Empty PG_DSN runs against the in-memory tables.
	PGDSN string `envconfig:"PG_DSN"`

	// Empty REDIS_ADDR disables state persistence, the shared feed and queue mode.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	AuthURL     string        `envconfig:"AUTH_URL"`
	AuthAnonKey string        `envconfig:"AUTH_ANON_KEY"`
	AuthTimeout time.Duration `envconfig:"AUTH_TIMEOUT" default:"10s"`

	StateTTL time.Duration `envconfig:"STATE_TTL" default:"720h"`
	StateKey string        `envconfig:"STATE_KEY" default:"sitecrew:state"`

	AuditMode string `envconfig:"AUDIT_MODE" default:"direct"`

	SignInRateLimit int `envconfig:"SIGNIN_RATE_LIMIT" default:"5"`

	// "scoped" narrows team-wide feeds by role; anything else opens the default plan.
	RealtimePlan string `envconfig:"REALTIME_PLAN" default:"default"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.AuthURL == "" {
		return errors.New("auth url must be provided")
	}
	if c.AuthAnonKey == "" {
		return errors.New("auth anon key must be provided")
	}
	switch c.AuditMode {
	case AuditModeDirect:
	case AuditModeQueue:
		if c.RedisAddr == "" {
			return errors.New("queue audit mode requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown audit mode %q", c.AuditMode)
	}
	if c.SignInRateLimit <= 0 {
		return errors.New("sign-in rate limit must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
