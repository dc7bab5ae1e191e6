package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens takes n tokens from the bucket at key when enough are
	// available. When they are not, nothing is taken and the returned
	// remaining is negative by the shortfall. n == 0 only refills.
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)

	// Reset drops the bucket at key.
	Reset(ctx context.Context, key string) error
}
