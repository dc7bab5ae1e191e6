// Package redis connects saasgate to Redis, which backs the read-through
// subscription cache. Redis is optional: an empty Config.ConnectionURL makes
// Connect return ErrEmptyConnectionURL and the cache layer is skipped.
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store = subscription.NewCachedStore(store, client, subscription.WithCacheTTL(cfg.Redis.CacheTTL))
package redis
