// Package ratelimiter implements token bucket rate limiting for the HTTP API.
//
// A Bucket holds the limits and delegates state to a Store. MemoryStore keeps
// buckets in process; RedisStore shares them between replicas through an
// atomic Lua script. Middleware applies a Bucket to requests keyed by a
// KeyFunc and sets the X-RateLimit-* headers.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       120,
//		RefillRate:     2,
//		RefillInterval: time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	r.Use(ratelimiter.Middleware(limiter, ratelimiter.Composite(orgKey, ipKey)))
package ratelimiter
