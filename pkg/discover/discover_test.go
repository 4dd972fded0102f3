package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segfind/ridesegments/pkg/geo"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

func eastWestTrack(startLon, lat float64, n int, stepDeg float64) []trackstore.TrackPointInput {
	pts := make([]trackstore.TrackPointInput, n)
	for i := 0; i < n; i++ {
		pts[i] = trackstore.TrackPointInput{Lat: lat, Lon: startLon + float64(i)*stepDeg}
	}
	return pts
}

func northTrack(lon, startLat float64, n int, stepM float64) []trackstore.TrackPointInput {
	pts := make([]trackstore.TrackPointInput, n)
	stepDeg := stepM / 111000
	for i := 0; i < n; i++ {
		pts[i] = trackstore.TrackPointInput{Lat: startLat + float64(i)*stepDeg, Lon: lon}
	}
	return pts
}

func TestFindOverlappingSegments_S1_TrivialRepetition(t *testing.T) {
	t.Parallel()
	track := eastWestTrack(15.0, 46.5, 10, 0.0001)
	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{track, track})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxLengthM = 50
	opts.TolM = 1
	opts.MinRuns = 2

	result, err := FindOverlappingSegments(store, 1, opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.Segments)

	seg := result.Segments[0]
	assert.Contains(t, seg.RunRanges, 1)
	assert.Contains(t, seg.RunRanges, 2)
	assert.GreaterOrEqual(t, seg.LengthM, 50.0)

	otherRun := seg.RunRanges[2]
	refPoly := store.Polyline(seg.RefRange)
	otherPoly := store.Polyline(trackstore.Track{First: otherRun.First, Last: otherRun.Last}.Indices())
	assert.InDelta(t, 0, geo.DiscreteFrechet(refPoly, otherPoly), 1e-6)
}

func TestFindOverlappingSegments_S2_PartialOverlap(t *testing.T) {
	t.Parallel()
	a := northTrack(15.0, 46.5, 20, 20)
	b := make([]trackstore.TrackPointInput, 20)
	for i := 0; i < 11; i++ {
		b[i] = a[4+i] // B's points 1..11 mirror A's points 5..15 (1-based)
	}
	stepDeg := 20.0 / 111000
	deviationStart := a[14]
	for i := 11; i < 20; i++ {
		b[i] = trackstore.TrackPointInput{
			Lat: deviationStart.Lat + float64(i-10)*stepDeg,
			Lon: deviationStart.Lon + float64(i-10)*stepDeg, // deviate diagonally
		}
	}

	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{a, b})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxLengthM = 150
	opts.TolM = 2
	opts.MinRuns = 2

	result, err := FindOverlappingSegments(store, 1, opts)
	require.NoError(t, err)
	require.Len(t, result.Segments, 1)

	seg := result.Segments[0]
	refRun := seg.RunRanges[1]
	assert.InDelta(t, 5, refRun.First, 1)
	assert.InDelta(t, 15, refRun.Last, 1)

	otherRun, ok := seg.RunRanges[2]
	require.True(t, ok)
	assert.Equal(t, refRun.Last-refRun.First, otherRun.Last-otherRun.First)
}

func TestFindOverlappingSegments_S3_FrechetToleranceSanity(t *testing.T) {
	t.Parallel()
	a := northTrack(15.0, 46.5, 15, 20)
	b := make([]trackstore.TrackPointInput, 15)
	offsetDeg := 3.0 / 111000
	for i, p := range a {
		b[i] = trackstore.TrackPointInput{Lat: p.Lat, Lon: p.Lon + offsetDeg}
	}

	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{a, b})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxLengthM = 100
	opts.MinRuns = 2

	opts.TolM = 5
	result, err := FindOverlappingSegments(store, 1, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Segments, "expected a segment with tol_m=5")

	opts.TolM = 1
	result, err = FindOverlappingSegments(store, 1, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Segments, "expected no segment with tol_m=1")
}

func TestOverlapsAccepted_S4_Dedup(t *testing.T) {
	t.Parallel()
	accepted := []Segment{
		{RefRange: makeRange(0, 99)}, // support 4, already accepted
	}
	// A second candidate overlapping 95% of [0,99] should be dropped at 0.8 threshold.
	assert.True(t, overlapsAccepted(accepted, 0, 94, 0.8))
	assert.False(t, overlapsAccepted(accepted, 0, 40, 0.8))
}

func TestPromote_SortsBySupportDescThenStartAsc(t *testing.T) {
	t.Parallel()
	starts := []candidateWindow{{s: 10, e: 20}, {s: 0, e: 10}, {s: 5, e: 15}}
	counts := []int{3, 4, 4}

	promoted := promote(starts, counts, 2)
	require.Len(t, promoted, 3)
	assert.Equal(t, 0, promoted[0].s)
	assert.Equal(t, 5, promoted[1].s)
	assert.Equal(t, 10, promoted[2].s)
}

func makeRange(first, last int) []int {
	r := make([]int, last-first+1)
	for i := range r {
		r[i] = first + i
	}
	return r
}
