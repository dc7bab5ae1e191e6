package pg

import "time"

// Config is populated from the environment. An empty ConnectionString
// disables Postgres and the service falls back to a non-persistent store.
type Config struct {
	ConnectionString  string        `env:"URL"`
	MaxOpenConns      int32         `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MinIdleConns      int32         `env:"MIN_IDLE_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"` // grows linearly with each attempt

	MigrateOnStart  bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	MigrationsTable string `env:"MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}

// Enabled reports whether a connection string is configured.
func (c Config) Enabled() bool {
	return c.ConnectionString != ""
}
