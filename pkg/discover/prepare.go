package discover

import (
	"sync"

	"github.com/segfind/ridesegments/pkg/geo"
	"github.com/segfind/ridesegments/pkg/spatial"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

// closeTrack is a track whose bounding box intersects the reference's
// expanded bounding box, together with the per-track KD-tree built over it.
type closeTrack struct {
	pos     int // 1-based track position
	indices []int
	points  []geo.Point
	index   *spatial.KDTree
}

// candidateWindow is a valid reference sub-range [s,e] (positions within
// the reference track's index slice, inclusive).
type candidateWindow struct {
	s, e int
}

type preparation struct {
	store       *trackstore.Store
	refIndices  []int
	refPoints   []geo.Point
	cum         []float64
	tolDeg      float64
	marginDeg   float64
	lonMargin   float64
	closeTracks []closeTrack
	validStarts []candidateWindow
}

// prepare runs the discovery engine's preparation stage: margin conversion,
// close-track selection, per-track KD-tree construction (in parallel, each
// tree independent of the others), cumulative arc length, and valid
// candidate start enumeration.
func prepare(store *trackstore.Store, refRideIdx int, opts Options) (*preparation, error) {
	refTrack := store.Track(refRideIdx)
	refIndices := refTrack.Indices()
	refPoints := store.Polyline(refIndices)

	tolDeg := opts.TolM * geo.MetersToDegrees
	marginDeg := opts.PrefilterMarginM * geo.MetersToDegrees

	refBBox := geo.BoundingBox(refPoints)
	lonMargin := geo.LonMarginDeg(opts.PrefilterMarginM, refBBox.MeanLat())
	expanded := refBBox.Expand(lonMargin, marginDeg)

	var closeTracks []closeTrack
	for pos, t := range store.Tracks() {
		trackPos := pos + 1
		bb := store.TrackBBox(t)
		if !bb.Intersects(expanded) {
			continue
		}
		indices := t.Indices()
		closeTracks = append(closeTracks, closeTrack{
			pos:     trackPos,
			indices: indices,
			points:  store.Polyline(indices),
		})
	}

	buildTrackIndices(closeTracks)

	cum := geo.CumulativeLength(refPoints)
	validStarts := enumerateValidStarts(cum, len(refPoints), opts.MaxLengthM, opts.WindowStep)

	return &preparation{
		store:       store,
		refIndices:  refIndices,
		refPoints:   refPoints,
		cum:         cum,
		tolDeg:      tolDeg,
		marginDeg:   marginDeg,
		lonMargin:   lonMargin,
		closeTracks: closeTracks,
		validStarts: validStarts,
	}, nil
}

// buildTrackIndices builds each close track's KD-tree on its own goroutine;
// the trees are independent of one another so no synchronization beyond the
// join is needed.
func buildTrackIndices(tracks []closeTrack) {
	var wg sync.WaitGroup
	wg.Add(len(tracks))
	for i := range tracks {
		i := i
		go func() {
			defer wg.Done()
			tracks[i].index = spatial.NewTrackIndex(tracks[i].points, tracks[i].indices)
		}()
	}
	wg.Wait()
}

// enumerateValidStarts steps candidate starts by windowStep across the
// reference, extending each end position until its cumulative length
// reaches maxLengthM. A start whose extension runs off the end of the
// reference before reaching maxLengthM is discarded.
func enumerateValidStarts(cum []float64, n int, maxLengthM float64, windowStep int) []candidateWindow {
	var starts []candidateWindow
	for s := 0; s < n; s += windowStep {
		e := s
		for e < n-1 && cum[e]-cum[s] < maxLengthM {
			e++
		}
		if cum[e]-cum[s] < maxLengthM {
			continue // ran off the end without reaching the target length
		}
		starts = append(starts, candidateWindow{s: s, e: e})
	}
	return starts
}
