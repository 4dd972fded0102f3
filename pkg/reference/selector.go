// Package reference picks which recorded track should drive segment
// discovery: the one that passes through the most "hotspot" cells, grid
// cells visited by many distinct tracks.
package reference

import (
	"log"
	"math"

	"github.com/segfind/ridesegments/pkg/trackstore"
)

type cell struct{ x, y int }

// FindBestRefRide scores every track by how many of its points fall in
// hotspot cells (cells visited by at least minRepsForHotspot distinct
// tracks) and returns the 1-based position of the highest scorer, ties
// broken by lowest position. If the store has no hotspots it returns the
// first track and logs a warning; this is a recoverable condition, not an
// error.
func FindBestRefRide(store *trackstore.Store, gridSizeM float64, minRepsForHotspot int) int {
	meanLat := globalMeanLat(store)
	lonPerDeg := 111000.0 * math.Cos(meanLat*math.Pi/180)
	latPerDeg := 111000.0

	visitedBy := make(map[cell]map[int]bool)
	for pos, t := range store.Tracks() {
		trackPos := pos + 1
		seen := make(map[cell]bool)
		for _, idx := range t.Indices() {
			p := store.Point(idx)
			c := cell{
				x: int(math.Floor(p.Lon * lonPerDeg / gridSizeM)),
				y: int(math.Floor(p.Lat * latPerDeg / gridSizeM)),
			}
			if seen[c] {
				continue
			}
			seen[c] = true
			if visitedBy[c] == nil {
				visitedBy[c] = make(map[int]bool)
			}
			visitedBy[c][trackPos] = true
		}
	}

	hotspots := make(map[cell]bool)
	for c, tracks := range visitedBy {
		if len(tracks) >= minRepsForHotspot {
			hotspots[c] = true
		}
	}

	if len(hotspots) == 0 {
		log.Printf("[reference] no hotspots found (grid=%gm, min_reps=%d); defaulting to track 1", gridSizeM, minRepsForHotspot)
		return 1
	}

	bestPos, bestScore := 1, -1
	for pos, t := range store.Tracks() {
		trackPos := pos + 1
		score := 0
		for _, idx := range t.Indices() {
			p := store.Point(idx)
			c := cell{
				x: int(math.Floor(p.Lon * lonPerDeg / gridSizeM)),
				y: int(math.Floor(p.Lat * latPerDeg / gridSizeM)),
			}
			if hotspots[c] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestPos = trackPos
		}
	}
	return bestPos
}

func globalMeanLat(store *trackstore.Store) float64 {
	var sum float64
	var n int
	for _, t := range store.Tracks() {
		for _, idx := range t.Indices() {
			sum += store.Point(idx).Lat
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
