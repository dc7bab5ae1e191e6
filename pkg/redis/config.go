package redis

import "time"

// Config is populated from the environment. An empty ConnectionURL disables
// the subscription cache.
type Config struct {
	ConnectionURL  string        `env:"URL"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"15s"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	KeyPrefix      string        `env:"KEY_PREFIX" envDefault:"saasgate:"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
