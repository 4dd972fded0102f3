package discover

import (
	"sort"

	"github.com/segfind/ridesegments/pkg/geo"
)

// candidateGeometry is the geometry derived from a reference sub-range,
// shared by both the counting pass and the detail pass.
type candidateGeometry struct {
	refRange []int
	polyline []geo.Point
	center   geo.Point
	radius   float64 // degrees; broad-phase query radius
}

func buildCandidateGeometry(prep *preparation, w candidateWindow, opts Options) candidateGeometry {
	refRange := prep.refIndices[w.s : w.e+1]
	polyline := prep.refPoints[w.s : w.e+1]
	bbox := geo.BoundingBox(polyline)
	r := bbox.HalfDiagonalDeg() + prep.tolDeg + prep.marginDeg
	return candidateGeometry{
		refRange: refRange,
		polyline: polyline,
		center:   bbox.Center(),
		radius:   r,
	}
}

// candidateSet returns the sorted-ascending global indices of a close
// track's points within the candidate's broad-phase radius.
func candidateSet(track closeTrack, cand candidateGeometry) []int {
	positions := track.index.InRange(cand.center, cand.radius)
	globals := make([]int, len(positions))
	for i, pos := range positions {
		globals[i] = track.index.GlobalIndex(pos)
	}
	sort.Ints(globals)
	return globals
}

// admissibleWindows yields every contiguous window of size windowSize in
// the sorted candidate set that passes the contiguity gate: the gap between
// its extreme global indices must not exceed windowSize+slack.
func admissibleWindows(sortedGlobals []int, windowSize, slack int) [][]int {
	if len(sortedGlobals) < windowSize {
		return nil
	}
	var windows [][]int
	for i := 0; i+windowSize <= len(sortedGlobals); i++ {
		window := sortedGlobals[i : i+windowSize]
		gap := window[len(window)-1] - window[0]
		if gap > windowSize+slack {
			continue
		}
		windows = append(windows, window)
	}
	return windows
}

// hasMatchingWindow reports whether any admissible window's polyline is
// within tolM of the candidate polyline, exiting on the first match.
func hasMatchingWindow(store polylineSource, windows [][]int, candPolyline []geo.Point, tolM float64) bool {
	for _, w := range windows {
		poly := store.Polyline(w)
		if geo.DiscreteFrechet(poly, candPolyline) <= tolM {
			return true
		}
	}
	return false
}

// bestMatchingWindow returns the admissible window with the smallest
// Frechet distance to the candidate polyline, provided it is within tolM;
// ok is false if no window qualifies.
func bestMatchingWindow(store polylineSource, windows [][]int, candPolyline []geo.Point, tolM float64) (window []int, ok bool) {
	bestDist := tolM
	found := false
	for _, w := range windows {
		poly := store.Polyline(w)
		d := geo.DiscreteFrechet(poly, candPolyline)
		if d <= bestDist {
			bestDist = d
			window = w
			found = true
		}
	}
	return window, found
}

// polylineSource is the minimal store capability the candidate helpers
// need, so this file doesn't depend on trackstore directly.
type polylineSource interface {
	Polyline(indices []int) []geo.Point
}
