package geo

import "math"

// metersPerDegreeLat is the fixed conversion used to linearize lon/lat into
// a local planar meter space for Douglas-Peucker. Longitude is additionally
// scaled by cos(meanLat) so the space is locally isotropic.
const metersPerDegreeLat = 111000.0

// linearize projects points into a planar meter space centered on nothing in
// particular (the absolute offset doesn't matter, only distances do), using
// the mean latitude of the input for the longitude correction.
func linearize(points []Point) []Point {
	meanLat := BoundingBox(points).MeanLat()
	cosLat := math.Cos(meanLat * math.Pi / 180)
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Lon: p.Lon * cosLat * metersPerDegreeLat, Lat: p.Lat * metersPerDegreeLat}
	}
	return out
}

// perpendicularDistance returns the distance from p to the line through a-b
// in the (already planar) space, falling back to point-to-point distance
// when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	if dx == 0 && dy == 0 {
		return math.Hypot(p.Lon-a.Lon, p.Lat-a.Lat)
	}
	num := math.Abs(dy*p.Lon - dx*p.Lat + dx*a.Lat - dy*a.Lon)
	den := math.Hypot(dx, dy)
	return num / den
}

// DouglasPeucker simplifies a polyline to within epsilonM meters in a
// locally linearized planar space, keeping the first and last points always.
func DouglasPeucker(points []Point, epsilonM float64) []Point {
	if len(points) < 3 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}
	planar := linearize(points)
	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	douglasPeuckerRange(planar, 0, len(planar)-1, epsilonM, keep)
	out := make([]Point, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

func douglasPeuckerRange(planar []Point, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxDist := -1.0
	maxIdx := -1
	for i := first + 1; i < last; i++ {
		d := perpendicularDistance(planar[i], planar[first], planar[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= epsilon {
		return
	}
	keep[maxIdx] = true
	douglasPeuckerRange(planar, first, maxIdx, epsilon, keep)
	douglasPeuckerRange(planar, maxIdx, last, epsilon, keep)
}
