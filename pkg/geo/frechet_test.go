package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func straightLine(n int, lonStep float64) []Point {
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{Lon: 15.0 + float64(i)*lonStep, Lat: 46.5}
	}
	return pts
}

func reversed(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func TestDiscreteFrechet_ZeroForIdenticalPolyline(t *testing.T) {
	t.Parallel()
	p := straightLine(10, 0.0001)
	assert.Equal(t, 0.0, DiscreteFrechet(p, p))
}

func TestDiscreteFrechet_SymmetricUnderReversal(t *testing.T) {
	t.Parallel()
	p := straightLine(8, 0.0001)
	q := straightLine(8, 0.0001)
	for i := range q {
		q[i].Lat += 0.00002
	}
	d1 := DiscreteFrechet(p, q)
	d2 := DiscreteFrechet(reversed(p), reversed(q))
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDiscreteFrechet_BoundsHausdorffFromBelow(t *testing.T) {
	t.Parallel()
	p := straightLine(6, 0.0001)
	q := straightLine(6, 0.0001)
	for i := range q {
		q[i].Lat += 0.00003
	}
	frechet := DiscreteFrechet(p, q)
	hausdorff := hausdorffUpperBound(p, q)
	assert.True(t, frechet >= hausdorff-1e-6)
}

// hausdorffUpperBound computes the (symmetric) set-Hausdorff distance
// between two point sets, used only to sanity-check Frechet as an upper
// bound on it.
func hausdorffUpperBound(p, q []Point) float64 {
	directed := func(a, b []Point) float64 {
		var maxMin float64
		for _, pa := range a {
			minD := Distance(pa, b[0])
			for _, pb := range b[1:] {
				if d := Distance(pa, pb); d < minD {
					minD = d
				}
			}
			if minD > maxMin {
				maxMin = minD
			}
		}
		return maxMin
	}
	a := directed(p, q)
	b := directed(q, p)
	if a > b {
		return a
	}
	return b
}

func TestDiscreteFrechet_ToleranceSensitivity(t *testing.T) {
	t.Parallel()
	p := straightLine(20, 0.0001)
	q := straightLine(20, 0.0001)
	for i := range q {
		q[i].Lat += 0.00003 // roughly 3m orthogonal offset
	}
	d := DiscreteFrechet(p, q)
	assert.True(t, d <= 5.0)
	assert.True(t, d > 1.0)
}
