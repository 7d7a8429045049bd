package cache

import (
	"context"
	"time"
)

// BytesCache stores rendered artifacts (chart PNGs, PDF reports) with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
