package domain

import "math"

const (
	wgs84SemiMajorAxis = 6378137.0
	wgs84Flattening    = 1 / 298.257223563

	// MeanRadius approximates the WGS84 ellipsoid with a sphere of radius a(1 - f/3).
	MeanRadius = wgs84SemiMajorAxis * (1 - wgs84Flattening/3)
)

// Displacement describes a move from a start point along an initial
// bearing (degrees clockwise from north) for a distance in meters.
type Displacement struct {
	BearingDeg float64
	DistanceM  float64
}

func (d Displacement) Validate() error {
	if math.IsNaN(d.BearingDeg) || math.IsInf(d.BearingDeg, 0) {
		return &ValidationError{Field: "bearing", Message: "bearing must be a finite number"}
	}
	if d.BearingDeg < 0 || d.BearingDeg > 360 {
		return &ValidationError{Field: "bearing", Message: "bearing outside of range"}
	}
	if math.IsNaN(d.DistanceM) || math.IsInf(d.DistanceM, 0) {
		return &ValidationError{Field: "distance", Message: "distance must be a finite number"}
	}
	if d.DistanceM < 0 {
		return &ValidationError{Field: "distance", Message: "distance must not be negative"}
	}
	return nil
}

// Destination returns the point reached by travelling along a great circle
// from start. At a pole every direction points the same way, so the
// bearing is taken as the destination meridian instead.
func Destination(start Coordinates, d Displacement) (Coordinates, error) {
	if err := start.Validate(); err != nil {
		return Coordinates{}, err
	}
	if err := d.Validate(); err != nil {
		return Coordinates{}, err
	}
	if start.AtPole() && start.Lng != 0 {
		return Coordinates{}, &ValidationError{Field: "longitude", Message: "there is no longitude at the pole"}
	}

	phi1 := toRadians(start.Lat)
	lambda1 := toRadians(start.Lng)
	theta := toRadians(d.BearingDeg)
	delta := d.DistanceM / MeanRadius

	var phi2, lambda2 float64
	if start.AtPole() {
		phi2 = math.Asin(math.Sin(phi1) * math.Cos(delta))
		lambda2 = theta
	} else {
		phi2 = math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
		lambda2 = lambda1 + math.Atan2(
			math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
			math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
		)
	}

	return Coordinates{
		Lat: toDegrees(phi2),
		Lng: normalizeLongitude(toDegrees(lambda2)),
	}, nil
}

// normalizeLongitude maps any longitude into [-180, 180).
func normalizeLongitude(lng float64) float64 {
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
