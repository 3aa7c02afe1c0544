package domain

import "github.com/golang/geo/s2"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LatLng converts the point to an s2.LatLng.
func (p GeoPoint) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Span is the extent of a region in degrees.
// Each degree of latitude is roughly 69 miles; a degree of longitude
// shrinks towards the poles.
type Span struct {
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// Region is the visible map viewport.
type Region struct {
	Center GeoPoint `json:"center"`
	Span   Span     `json:"span"`
}

// Rect returns the region as an s2 rectangle.
func (r Region) Rect() s2.Rect {
	size := s2.LatLngFromDegrees(r.Span.LatitudeDelta, r.Span.LongitudeDelta)
	return s2.RectFromCenterSize(r.Center.LatLng(), size)
}

// Bounds returns the lat/lon box covered by the region.
func (r Region) Bounds() Bounds {
	rect := r.Rect()
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		MinLat: lo.Lat.Degrees(),
		MinLon: lo.Lng.Degrees(),
		MaxLat: hi.Lat.Degrees(),
		MaxLon: hi.Lng.Degrees(),
	}
}

// Contains reports whether p is visible in the region.
func (r Region) Contains(p GeoPoint) bool {
	return r.Rect().ContainsLatLng(p.LatLng())
}
