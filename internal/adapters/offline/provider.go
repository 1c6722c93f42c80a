// Package offline resolves time zones locally from timezone boundary
// polygons, without calling any external service.
package offline

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"

	"github.com/ringsaturn/tzf"
)

type zoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// Provider implements ports.TimezoneProvider with tzf polygon lookups and
// offsets from the embedded IANA database.
type Provider struct {
	finder zoneFinder
	now    func() time.Time
}

// NewProvider loads the default tzf boundary data. Loading takes a moment
// and a few MB of memory, so build one provider per process.
func NewProvider() (*Provider, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("offline provider: load finder: %w", err)
	}
	return newProvider(finder, time.Now), nil
}

func newProvider(finder zoneFinder, now func() time.Time) *Provider {
	return &Provider{finder: finder, now: now}
}

func (p *Provider) LookupTimezone(ctx context.Context, c domain.Coordinates) (_ domain.TimezoneResult, err error) {
	defer obs.Time(ctx, "offline.LookupTimezone")(&err)

	if err := c.Validate(); err != nil {
		return domain.TimezoneResult{}, err
	}

	name := p.finder.GetTimezoneName(c.Lng, c.Lat)
	if name == "" {
		return domain.TimezoneResult{}, &domain.NotFoundError{Coordinates: c}
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return domain.TimezoneResult{}, fmt.Errorf("offline provider: load location %q: %w", name, err)
	}

	local := p.now().In(loc)
	abbr, offset := local.Zone()

	res := domain.TimezoneResult{
		ZoneName:         name,
		Abbreviation:     abbr,
		GMTOffsetSeconds: offset,
		DST:              local.IsDST(),
		Timestamp:        local.Unix() + int64(offset),
	}

	start, end := local.ZoneBounds()
	if !start.IsZero() {
		res.ZoneStart = start.Unix()
	}
	if !end.IsZero() {
		res.ZoneEnd = end.Unix()
	}

	return res, nil
}
