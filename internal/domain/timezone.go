package domain

import (
	"fmt"
	"time"
)

// TimezoneResult is the zone resolved for a coordinate.
//
// Timestamp follows TimeZoneDB: the current local wall time expressed as
// unix seconds (UTC now + GMTOffsetSeconds). ZoneStart and ZoneEnd bound
// the period in which GMTOffsetSeconds is valid; zero means unknown.
type TimezoneResult struct {
	ZoneName         string
	Abbreviation     string
	CountryCode      string
	CountryName      string
	GMTOffsetSeconds int
	DST              bool
	Timestamp        int64
	ZoneStart        int64
	ZoneEnd          int64
}

// Restamp returns a copy with Timestamp recomputed for now. Cached results
// keep their offset but not their clock.
func (r TimezoneResult) Restamp(now time.Time) TimezoneResult {
	r.Timestamp = now.Unix() + int64(r.GMTOffsetSeconds)
	return r
}

// LocalTime returns the wall clock portion of Timestamp as HH:MM:SS.
func (r TimezoneResult) LocalTime() string {
	return time.Unix(r.Timestamp, 0).UTC().Format(time.TimeOnly)
}

// Formatted renders Timestamp the way TimeZoneDB does (Y-m-d H:i:s).
func (r TimezoneResult) Formatted() string {
	return time.Unix(r.Timestamp, 0).UTC().Format(time.DateTime)
}

// UTCOffset renders GMTOffsetSeconds as +HH:MM.
func (r TimezoneResult) UTCOffset() string {
	seconds := r.GMTOffsetSeconds
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// ValidUntil caps a cache expiry at the end of the current offset period.
func (r TimezoneResult) ValidUntil(expiry time.Time) time.Time {
	if r.ZoneEnd > 0 {
		if end := time.Unix(r.ZoneEnd, 0); end.Before(expiry) {
			return end
		}
	}
	return expiry
}

// LookupRecord is one entry in the lookup history.
type LookupRecord struct {
	ID          string
	RequestedAt time.Time
	Query       Coordinates
	Resolved    Coordinates
	ZoneName    string
	Cached      bool
}
