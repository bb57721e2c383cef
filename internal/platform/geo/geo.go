package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	EarthRadiusKm     = 6371.0
	earthRadiusMeters = EarthRadiusKm * 1000
)

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func DistanceMeters(a, b Coordinate) float64 {
	return DistanceKm(a, b) * 1000
}

// Toward moves from `from` along the great circle to `to` by meters and
// returns the new point. It never overshoots `to`.
func Toward(from, to Coordinate, meters float64) Coordinate {
	if meters <= 0 {
		return from
	}
	start := s2.PointFromLatLng(s2.LatLngFromDegrees(from.Lat, from.Lng))
	end := s2.PointFromLatLng(s2.LatLngFromDegrees(to.Lat, to.Lng))

	total := s1.Angle(s2.ChordAngleBetweenPoints(start, end).Angle()).Radians() * earthRadiusMeters
	if meters >= total {
		return to
	}
	p := s2.Interpolate(meters/total, start, end)
	ll := s2.LatLngFromPoint(p)
	return Coordinate{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// Offset returns the point `meters` away from c on the given bearing (degrees
// from north). It uses orb's spherical model, whose radius is the WGS84
// semi-major axis, so a haversine check of the result reads about 0.1% short.
func Offset(c Coordinate, bearingDeg, meters float64) Coordinate {
	p := orbgeo.PointAtBearingAndDistance(orb.Point{c.Lng, c.Lat}, bearingDeg, meters)
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
