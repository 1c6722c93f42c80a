package ports

import (
	"context"
	"timezone-lookup-service/internal/domain"
)

// Contract for resolving the time zone at a coordinate.
type TimezoneProvider interface {
	// Return the zone and current local time at c. Implementations report
	// failures as *domain.UpstreamError or *domain.NotFoundError.
	LookupTimezone(ctx context.Context, c domain.Coordinates) (domain.TimezoneResult, error)
}
