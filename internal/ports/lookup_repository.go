package ports

import (
	"context"
	"timezone-lookup-service/internal/domain"
)

// Port: a boundary for persisting and listing past lookups.
type LookupRepository interface {
	// Append a single lookup.
	RecordLookup(ctx context.Context, rec domain.LookupRecord) error
	// Return up to limit lookups, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.LookupRecord, error)
}
