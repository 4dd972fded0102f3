// Package geo provides the small set of planar and great-circle primitives
// the discovery engine and pathfinder are built on: haversine distance,
// degree/meter conversions for a small-area equirectangular approximation,
// cumulative arc length, and axis-aligned bounding boxes.
package geo

import "math"

// EarthRadiusM is the mean Earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

// MetersToDegrees converts a small planar distance in meters to degrees of
// latitude (or, at the equator, longitude) using a fixed 111km/degree
// approximation. Only valid for the short pruning distances the discovery
// engine uses internally; never used for reported lengths.
const MetersToDegrees = 1.0 / 111000.0

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// HaversineDistance returns the great-circle distance in meters between two
// lat/lon pairs given in degrees. Stable for small separations via the
// asin(sqrt(a)) form.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is HaversineDistance applied to two Points.
func Distance(p, q Point) float64 {
	return HaversineDistance(p.Lat, p.Lon, q.Lat, q.Lon)
}

// LonMarginDeg converts a meter margin into a longitude-degree margin,
// latitude-corrected for the given mean latitude (degrees). Latitude
// margins need no correction since a degree of latitude is ~constant.
func LonMarginDeg(marginM, meanLatDeg float64) float64 {
	return marginM * MetersToDegrees / math.Cos(meanLatDeg*math.Pi/180)
}

// CumulativeLength returns cumulative haversine arc length along an ordered
// point sequence: C[0] = 0, C[k] = C[k-1] + haversine(points[k-1], points[k]).
func CumulativeLength(points []Point) []float64 {
	c := make([]float64, len(points))
	for k := 1; k < len(points); k++ {
		c[k] = c[k-1] + Distance(points[k-1], points[k])
	}
	return c
}

// BBox is an axis-aligned bounding box in lon/lat degrees.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// BoundingBox computes the bounding box of a non-empty point sequence.
func BoundingBox(points []Point) BBox {
	b := BBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range points {
		if p.Lon < b.MinLon {
			b.MinLon = p.Lon
		}
		if p.Lon > b.MaxLon {
			b.MaxLon = p.Lon
		}
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
	}
	return b
}

// Expand grows the box by lonMargin/latMargin degrees on every side.
func (b BBox) Expand(lonMargin, latMargin float64) BBox {
	return BBox{
		MinLon: b.MinLon - lonMargin, MaxLon: b.MaxLon + lonMargin,
		MinLat: b.MinLat - latMargin, MaxLat: b.MaxLat + latMargin,
	}
}

// Intersects reports whether the two boxes overlap (touching counts).
func (b BBox) Intersects(o BBox) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{Lon: (b.MinLon + b.MaxLon) / 2, Lat: (b.MinLat + b.MaxLat) / 2}
}

// MeanLat returns the average of the box's min/max latitude, used to
// latitude-correct longitude margins for this box's neighborhood.
func (b BBox) MeanLat() float64 {
	return (b.MinLat + b.MaxLat) / 2
}

// HalfDiagonalDeg returns half the length of the box's diagonal, in degrees,
// treating lon/lat as an isotropic plane (adequate for the small boxes the
// discovery engine prunes with).
func (b BBox) HalfDiagonalDeg() float64 {
	dLon := b.MaxLon - b.MinLon
	dLat := b.MaxLat - b.MinLat
	return math.Hypot(dLon, dLat) / 2
}
