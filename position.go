package tomo

import (
	"fmt"
	"math"

	vec3d "github.com/flywave/go3d/float64/vec3"
	"gonum.org/v1/gonum/floats/scalar"
)

// EarthRadius is the mean Earth radius in kilometers, the sphere on which
// all horizontal geometry is computed.
const EarthRadius = 6371.0

// Epsilon is the tolerance used whenever two latitudes, longitudes or radii
// are compared for sameness. Upstream travel-time output carries
// floating-point noise; every sameness test in this package goes through
// sameCoordinate so the tolerance is applied consistently.
const Epsilon = 1e-4

func sameCoordinate(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, Epsilon)
}

// HorizontalPosition is a point on the unit sphere given as geographic
// latitude and longitude in degrees. The zero value is the intersection of
// the equator and the prime meridian. Values are immutable;
// all operations return new positions.
type HorizontalPosition struct {
	Latitude  float64
	Longitude float64
}

// NewHorizontalPosition validates the latitude range and normalizes the
// longitude to [-180, 180).
func NewHorizontalPosition(latitude, longitude float64) (HorizontalPosition, error) {
	if latitude < -90 || latitude > 90 {
		return HorizontalPosition{}, fmt.Errorf("latitude %v out of [-90, 90]", latitude)
	}
	return HorizontalPosition{Latitude: latitude, Longitude: wrap180(longitude)}, nil
}

// Equals reports sameness of the two positions within Epsilon.
func (p HorizontalPosition) Equals(o HorizontalPosition) bool {
	return sameCoordinate(p.Latitude, o.Latitude) && sameCoordinate(wrap180(p.Longitude), wrap180(o.Longitude))
}

// LongitudeIn360 is the longitude normalized to [0, 360), used when a point
// set crosses the antimeridian.
func (p HorizontalPosition) LongitudeIn360() float64 {
	return wrap360(p.Longitude)
}

// DistanceDegTo returns the great-circle central angle to o in degrees,
// computed with the haversine formula.
func (p HorizontalPosition) DistanceDegTo(o HorizontalPosition) float64 {
	phi1 := degToRad(p.Latitude)
	phi2 := degToRad(o.Latitude)
	dPhi := phi2 - phi1
	dLambda := degToRad(o.Longitude - p.Longitude)
	h := pow2(math.Sin(dPhi/2)) + math.Cos(phi1)*math.Cos(phi2)*pow2(math.Sin(dLambda/2))
	return radToDeg(2 * math.Asin(math.Min(1, math.Sqrt(h))))
}

// DistanceKmTo returns the great-circle distance to o along the Earth
// surface in kilometers.
func (p HorizontalPosition) DistanceKmTo(o HorizontalPosition) float64 {
	return degToRad(p.DistanceDegTo(o)) * EarthRadius
}

// AzimuthTo returns the forward azimuth toward o, clockwise from north in
// [0, 360).
func (p HorizontalPosition) AzimuthTo(o HorizontalPosition) float64 {
	phi1 := degToRad(p.Latitude)
	phi2 := degToRad(o.Latitude)
	dLambda := degToRad(o.Longitude - p.Longitude)
	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return wrap360(radToDeg(math.Atan2(y, x)))
}

// BackAzimuthTo returns the azimuth from o back toward p, in [0, 360).
func (p HorizontalPosition) BackAzimuthTo(o HorizontalPosition) float64 {
	return o.AzimuthTo(p)
}

// PointAt projects p along the given initial azimuth (degrees, clockwise
// from north) by the given angular distance (degrees). A negative distance
// projects backwards along the same great circle.
func (p HorizontalPosition) PointAt(azimuthDeg, distanceDeg float64) HorizontalPosition {
	delta := degToRad(distanceDeg)
	theta := degToRad(azimuthDeg)
	phi1 := degToRad(p.Latitude)
	lambda1 := degToRad(p.Longitude)
	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))
	return HorizontalPosition{Latitude: radToDeg(phi2), Longitude: wrap180(radToDeg(lambda2))}
}

// FullPosition is a point in the spherical Earth model: a horizontal
// position plus a radius from the Earth center in kilometers.
type FullPosition struct {
	HorizontalPosition
	Radius float64
}

// NewFullPosition validates the latitude range and the radius sign and
// normalizes the longitude.
func NewFullPosition(latitude, longitude, radius float64) (FullPosition, error) {
	h, err := NewHorizontalPosition(latitude, longitude)
	if err != nil {
		return FullPosition{}, err
	}
	if radius < 0 {
		return FullPosition{}, fmt.Errorf("radius %v must not be negative", radius)
	}
	return FullPosition{HorizontalPosition: h, Radius: radius}, nil
}

// Equals reports sameness of position and radius within Epsilon.
func (p FullPosition) Equals(o FullPosition) bool {
	return p.HorizontalPosition.Equals(o.HorizontalPosition) && sameCoordinate(p.Radius, o.Radius)
}

// Cartesian returns the position as an Earth-centered vector in kilometers,
// x toward (0N, 0E), z toward the north pole.
func (p FullPosition) Cartesian() vec3d.T {
	phi := degToRad(p.Latitude)
	lambda := degToRad(p.Longitude)
	return vec3d.T{
		p.Radius * math.Cos(phi) * math.Cos(lambda),
		p.Radius * math.Cos(phi) * math.Sin(lambda),
		p.Radius * math.Sin(phi),
	}
}
