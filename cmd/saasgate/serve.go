package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/internal/api"
	"github.com/dmitrymomot/saasgate/internal/config"
	"github.com/dmitrymomot/saasgate/internal/db/migrations"
	"github.com/dmitrymomot/saasgate/pkg/httpserver"
	"github.com/dmitrymomot/saasgate/pkg/identity"
	"github.com/dmitrymomot/saasgate/pkg/logger"
	"github.com/dmitrymomot/saasgate/pkg/pg"
	"github.com/dmitrymomot/saasgate/pkg/ratelimiter"
	"github.com/dmitrymomot/saasgate/pkg/redis"
	"github.com/dmitrymomot/saasgate/pkg/subscription"
	"github.com/dmitrymomot/saasgate/svc/access"
)

var errJWTSecretRequired = errors.New("AUTH_JWT_SECRET is required")

func newServeCmd(opts *rootOptions) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Subscriptions are read from PostgreSQL when PG_URL is set, optionally cached
in Redis when REDIS_URL is set. Without PG_URL every organization has no plan,
unless --memory is given, in which case billing events are kept in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, memory)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep subscriptions in process memory when PG_URL is empty")
	return cmd
}

func newLogger(cfg config.Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(api.RequestIDExtractor(), identity.LoggerExtractor()),
	)
}

func serve(ctx context.Context, cfg config.Config, memory bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	if cfg.Auth.JWTSecret == "" {
		return errJWTSecretRequired
	}
	tokens, err := identity.NewTokens([]byte(cfg.Auth.JWTSecret),
		identity.WithIssuer(cfg.Auth.Issuer),
		identity.WithTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return err
	}

	var (
		store  subscription.Store = subscription.NoPlanStore{}
		checks []httpserver.Check
	)

	switch {
	case cfg.PG.Enabled():
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.PG.MigrateOnStart {
			if err := pg.Migrate(ctx, pool, cfg.PG, migrations.FS, log.With(logger.Component("migrate"))); err != nil {
				return err
			}
		}
		store = subscription.NewPostgresStore(pool)
		checks = append(checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	case memory:
		store = subscription.NewMemoryStore()
		log.Warn("subscriptions are kept in memory and lost on restart")
	default:
		log.Warn("PG_URL is not set, every organization resolves to no plan")
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer closeRedis(client, log)
		redisClient = client

		store = subscription.NewCachedStore(store, client,
			subscription.WithCachePrefix(cfg.Redis.KeyPrefix+"subscription:"),
			subscription.WithCacheTTL(cfg.Redis.CacheTTL),
			subscription.WithCacheLogger(log.With(logger.Component("subscription_cache"))),
		)
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	}

	limiter, closeLimiter, err := newLimiter(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeLimiter()

	svc := access.NewService(store,
		access.WithLogger(log.With(logger.Component("access"))),
		access.WithMetrics(prometheus.DefaultRegisterer),
	)

	billing := subscription.NewLifecycle(store,
		subscription.WithLifecycleLogger(log.With(logger.Component("billing"))),
	)

	handler := api.NewRouter(api.Deps{
		Access:       svc,
		Verifier:     tokens,
		Log:          log.With(logger.Component("http")),
		Gatherer:     prometheus.DefaultGatherer,
		Checks:       checks,
		Limiter:      limiter,
		Billing:      billing,
		BillingToken: cfg.Billing.EventsToken,
	})

	if cfg.Billing.EventsToken == "" {
		log.Info("BILLING_EVENTS_TOKEN is not set, billing event intake is disabled")
	}

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(ctx, handler); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func closeRedis(client *goredis.Client, log *slog.Logger) {
	if err := client.Close(); err != nil {
		log.Error("failed to close redis client", logger.Error(err))
	}
}

// newLimiter builds the API rate limiter. Buckets live in Redis when it is
// configured so replicas share them. A nil limiter disables limiting.
func newLimiter(cfg config.Config, client *goredis.Client) (ratelimiter.Limiter, func(), error) {
	noop := func() {}
	if !cfg.RateLimit.Enabled() {
		return nil, noop, nil
	}

	var (
		store   ratelimiter.Store
		closeFn = noop
	)
	if client != nil {
		store = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(cfg.Redis.KeyPrefix+"ratelimit:"))
	} else {
		mem := ratelimiter.NewMemoryStore()
		store, closeFn = mem, mem.Close
	}

	bucket, err := ratelimiter.NewBucket(store, cfg.RateLimit)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return bucket, closeFn, nil
}
