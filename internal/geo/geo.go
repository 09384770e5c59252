// Package geo provides the coordinate and region value types shared by the
// geocoding, routing and planning packages.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
)

// ErrInvalidCoordinate indicates a latitude or longitude out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// metersPerDegreeLat is the approximate length of one degree of latitude.
const metersPerDegreeLat = 111320.0

// Coordinate represents a geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate is within valid ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Geohash encodes the coordinate with the given number of characters.
func (c Coordinate) Geohash(precision uint) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, precision)
}

// Region is an axis-aligned lat/lon rectangle.
// The zero value is the empty region, which contains no points.
type Region struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64

	nonEmpty bool
}

// NewRegion returns the region spanning the two corners in any order.
func NewRegion(a, b Coordinate) Region {
	return Region{}.Extend(a).Extend(b)
}

// RegionAround returns a region centered on center that spans the given
// north-south and east-west distances.
func RegionAround(center Coordinate, latMeters, lonMeters float64) Region {
	halfLat := latMeters / 2 / metersPerDegreeLat
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	halfLon := 0.0
	if cosLat > 1e-9 {
		halfLon = lonMeters / 2 / (metersPerDegreeLat * cosLat)
	}

	return Region{
		MinLat:   math.Max(center.Lat-halfLat, -90),
		MinLon:   math.Max(center.Lon-halfLon, -180),
		MaxLat:   math.Min(center.Lat+halfLat, 90),
		MaxLon:   math.Min(center.Lon+halfLon, 180),
		nonEmpty: true,
	}
}

// RegionOf returns the smallest region containing every coordinate.
func RegionOf(coords []Coordinate) Region {
	r := Region{}
	for _, c := range coords {
		r = r.Extend(c)
	}
	return r
}

// IsEmpty reports whether the region contains no points.
func (r Region) IsEmpty() bool {
	return !r.nonEmpty
}

// Extend returns the smallest region containing r and c.
func (r Region) Extend(c Coordinate) Region {
	if !r.nonEmpty {
		return Region{MinLat: c.Lat, MinLon: c.Lon, MaxLat: c.Lat, MaxLon: c.Lon, nonEmpty: true}
	}
	r.MinLat = math.Min(r.MinLat, c.Lat)
	r.MinLon = math.Min(r.MinLon, c.Lon)
	r.MaxLat = math.Max(r.MaxLat, c.Lat)
	r.MaxLon = math.Max(r.MaxLon, c.Lon)
	return r
}

// Union returns the smallest region containing both r and o.
func (r Region) Union(o Region) Region {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return r.
		Extend(Coordinate{Lat: o.MinLat, Lon: o.MinLon}).
		Extend(Coordinate{Lat: o.MaxLat, Lon: o.MaxLon})
}

// Contains reports whether c lies inside the region, edges included.
func (r Region) Contains(c Coordinate) bool {
	if r.IsEmpty() {
		return false
	}
	return c.Lat >= r.MinLat && c.Lat <= r.MaxLat && c.Lon >= r.MinLon && c.Lon <= r.MaxLon
}

// Center returns the midpoint of the region. The center of the empty region
// is the zero coordinate.
func (r Region) Center() Coordinate {
	if r.IsEmpty() {
		return Coordinate{}
	}
	return Coordinate{
		Lat: (r.MinLat + r.MaxLat) / 2,
		Lon: (r.MinLon + r.MaxLon) / 2,
	}
}
