package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Immutable geographic coordinates (WGS84 degrees).
type Coordinates struct {
	Lat float64
	Lng float64
}

// Validate checks that both components are finite and within range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return &ValidationError{Field: "latitude", Message: "latitude must be a finite number"}
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return &ValidationError{Field: "longitude", Message: "longitude must be a finite number"}
	}
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: "latitude", Message: "latitude value outside of range"}
	}
	if c.Lng < -180 || c.Lng > 180 {
		return &ValidationError{Field: "longitude", Message: "longitude outside of range"}
	}
	return nil
}

// AtPole reports whether the point sits on either geographic pole.
func (c Coordinates) AtPole() bool { return math.Abs(c.Lat) == 90 }

// CacheKey rounds both components to 4 decimals (~11m) so nearby
// lookups share an entry.
func (c Coordinates) CacheKey() string {
	return strconv.FormatFloat(round4(c.Lat), 'f', 4, 64) + "," + strconv.FormatFloat(round4(c.Lng), 'f', 4, 64)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lng)
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	// avoid "-0.0000" keys
	if r == 0 {
		return 0
	}
	return r
}
