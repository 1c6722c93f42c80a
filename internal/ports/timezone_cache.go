package ports

import (
	"context"
	"time"
	"timezone-lookup-service/internal/domain"
)

// Persistent cache of resolved zones keyed by domain.Coordinates.CacheKey.
type TimezoneCache interface {
	// Return the cached result for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (res domain.TimezoneResult, ok bool, err error)
	// Store res under key until expiresAt.
	Put(ctx context.Context, key string, res domain.TimezoneResult, expiresAt time.Time) error
}
