// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures all configuration the process needs.
type Server struct {
	Addr        string `env:"TURFOPS_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisAddr enables the fleet status cache when set.
	RedisAddr string `env:"REDIS_ADDR"`

	// KafkaBrokers enables the audit outbox relay when set.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`

	// AdminToken guards operational endpoints. Empty disables them.
	AdminToken string `env:"ADMIN_TOKEN"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"turfops"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
