// Package config loads saasgate settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/saasgate/pkg/httpserver"
	"github.com/dmitrymomot/saasgate/pkg/logger"
	"github.com/dmitrymomot/saasgate/pkg/pg"
	"github.com/dmitrymomot/saasgate/pkg/ratelimiter"
	"github.com/dmitrymomot/saasgate/pkg/redis"
)

var (
	ErrLoadingEnvFile = errors.New("failed to load env file")
	ErrParsingConfig  = errors.New("failed to parse environment variables into config")
)

// Config is the full application configuration.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"saasgate"`

	Log       logger.Config      `envPrefix:"LOG_"`
	HTTP      httpserver.Config  `envPrefix:"HTTP_"`
	PG        pg.Config          `envPrefix:"PG_"`
	Redis     redis.Config       `envPrefix:"REDIS_"`
	RateLimit ratelimiter.Config `envPrefix:"RATELIMIT_"`
	Auth      Auth               `envPrefix:"AUTH_"`
	Billing   Billing            `envPrefix:"BILLING_"`
}

// Auth configures bearer token verification.
type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"` // at least 32 bytes, required by serve
	Issuer    string        `env:"ISSUER" envDefault:"saasgate"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

// Billing configures the internal billing event intake.
// An empty EventsToken leaves the endpoint unmounted.
type Billing struct {
	EventsToken string `env:"EVENTS_TOKEN"`
}

// Load reads the given .env files (missing files are skipped; ".env" when
// none are given) and parses the process environment. Variables already set
// in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return parse(env.Options{})
}

// FromMap parses cfg from vars only, ignoring the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
