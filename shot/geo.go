package shot

import (
	"math"

	"github.com/paulmach/orb/geo"
)

const (
	// MetersPerDegreeLat is the equirectangular latitude scale.
	MetersPerDegreeLat = 111320.0

	// MetersPerYard converts yards to meters.
	MetersPerYard = 0.9144

	// YardsPerMeter converts meters to yards.
	YardsPerMeter = 1.0 / MetersPerYard
)

// ToLocal projects a geographic point into the planar metric frame centered on
// ref. X is east, Y is north, both in meters.
func ToLocal(p, ref GeoPoint) LocalPoint {
	return LocalPoint{
		X: (p.Lon - ref.Lon) * MetersPerDegreeLat * math.Cos(ref.Lat*math.Pi/180),
		Y: (p.Lat - ref.Lat) * MetersPerDegreeLat,
	}
}

// ToGeo is the inverse of ToLocal for the same reference point.
func ToGeo(p LocalPoint, ref GeoPoint) GeoPoint {
	return GeoPoint{
		Lat: ref.Lat + p.Y/MetersPerDegreeLat,
		Lon: ref.Lon + p.X/(MetersPerDegreeLat*math.Cos(ref.Lat*math.Pi/180)),
	}
}

// DistanceMeters returns the haversine great-circle distance in meters.
func DistanceMeters(a, b GeoPoint) float64 {
	return geo.DistanceHaversine(a.Orb(), b.Orb())
}

// DistanceYards returns the haversine great-circle distance in yards.
func DistanceYards(a, b GeoPoint) float64 {
	return DistanceMeters(a, b) * YardsPerMeter
}

// BearingRad returns the forward azimuth from a to b in radians, normalized
// to [0, 2*pi). 0 is north, pi/2 is east.
func BearingRad(a, b GeoPoint) float64 {
	rad := geo.Bearing(a.Orb(), b.Orb()) * math.Pi / 180
	return normalizeRad(rad)
}

// normalizeRad wraps an angle to [0, 2*pi).
func normalizeRad(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
