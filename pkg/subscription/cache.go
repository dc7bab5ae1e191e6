package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/saasgate/pkg/logger"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	defaultCachePrefix = "saasgate:subscription:"
)

// CachedStore is a read-through Redis cache in front of another Store.
// Cache failures are logged and fall back to the underlying store.
type CachedStore struct {
	next   Store
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCachePrefix(prefix string) CacheOption {
	return func(c *CachedStore) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCachedStore wraps next with a Redis cache.
// Panics if next or client is nil.
func NewCachedStore(next Store, client redis.UniversalClient, opts ...CacheOption) *CachedStore {
	if next == nil {
		panic("subscription: underlying Store is required")
	}
	if client == nil {
		panic("subscription: redis client is required")
	}
	c := &CachedStore{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
		prefix: defaultCachePrefix,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) Get(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	key := c.key(accountID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var sub Subscription
		uerr := json.Unmarshal(data, &sub)
		if uerr == nil {
			return &sub, nil
		}
		c.log.WarnContext(ctx, "discarding corrupt cached subscription",
			slog.String("key", key), logger.Error(uerr))
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "subscription cache read failed",
			slog.String("key", key), logger.Error(err))
	}

	sub, err := c.next.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(sub); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "subscription cache write failed",
				slog.String("key", key), logger.Error(err))
		}
	}
	return sub, nil
}

// Save writes through to the underlying store and evicts the cached copy.
func (c *CachedStore) Save(ctx context.Context, sub *Subscription) error {
	if err := c.next.Save(ctx, sub); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(sub.AccountID)).Err(); err != nil {
		c.log.WarnContext(ctx, "subscription cache eviction failed",
			logger.AccountID(sub.AccountID), logger.Error(err))
	}
	return nil
}

func (c *CachedStore) key(accountID uuid.UUID) string {
	return c.prefix + accountID.String()
}
