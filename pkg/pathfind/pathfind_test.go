package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segfind/ridesegments/pkg/discover"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

// buildChainStore lays out three disjoint tracks end to end, each a
// straight 5-point line, so the endpoint of one coincides with the start of
// the next. Each line is far longer than the 50m tolerance, so only
// consecutive segments connect.
func buildChainStore(t *testing.T) (*trackstore.Store, []discover.Segment) {
	t.Helper()
	stepDeg := 100.0 / 111000 // ~69m east-west steps at 46.5°N

	seg1 := straightLine(46.5000, 15.0000, stepDeg, 5)
	seg2 := straightLine(46.5000, 15.0100, stepDeg, 5) // starts far from seg1's end on purpose below
	seg3 := straightLine(46.5000, 15.0200, stepDeg, 5)

	// Make seg2 start where seg1 ends, and seg3 start where seg2 ends.
	seg2[0] = lastOf(seg1)
	for i := 1; i < len(seg2); i++ {
		seg2[i] = trackstore.TrackPointInput{
			Lat: seg2[0].Lat,
			Lon: seg2[0].Lon + float64(i)*stepDeg,
		}
	}
	seg3[0] = lastOf(seg2)
	for i := 1; i < len(seg3); i++ {
		seg3[i] = trackstore.TrackPointInput{
			Lat: seg3[0].Lat,
			Lon: seg3[0].Lon + float64(i)*stepDeg,
		}
	}

	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{seg1, seg2, seg3})
	require.NoError(t, err)

	s1 := discover.Segment{RefRange: store.Track(1).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}
	s2 := discover.Segment{RefRange: store.Track(2).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}
	s3 := discover.Segment{RefRange: store.Track(3).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}

	return store, []discover.Segment{s1, s2, s3}
}

func straightLine(lat, lon, stepDeg float64, n int) []trackstore.TrackPointInput {
	pts := make([]trackstore.TrackPointInput, n)
	for i := 0; i < n; i++ {
		pts[i] = trackstore.TrackPointInput{Lat: lat, Lon: lon + float64(i)*stepDeg}
	}
	return pts
}

func lastOf(pts []trackstore.TrackPointInput) trackstore.TrackPointInput {
	return pts[len(pts)-1]
}

func TestFindPathBetweenSegments_S5_HeadToTail(t *testing.T) {
	t.Parallel()
	store, segments := buildChainStore(t)

	path, err := FindPathBetweenSegments(store, segments[0], segments[2], segments, 3, 2, 50)
	require.NoError(t, err)
	require.Len(t, path, 3)

	assert.Equal(t, 1, path[0].SegmentIdx)
	assert.Equal(t, Forward, path[0].Orientation)
	assert.Equal(t, 2, path[1].SegmentIdx)
	assert.Equal(t, Forward, path[1].Orientation)
	assert.Equal(t, 3, path[2].SegmentIdx)
	assert.Equal(t, Forward, path[2].Orientation)
}

func TestFindPathBetweenSegments_S6_Reversal(t *testing.T) {
	t.Parallel()
	stepDeg := 100.0 / 111000 // ~69m steps: each line is far longer than the 50m tolerance
	// Two lines sharing the same endpoint: end(S1-forward) near end(S2-forward).
	a := straightLine(46.5, 15.0, stepDeg, 5)
	shared := lastOf(a)
	b := make([]trackstore.TrackPointInput, 5)
	for i := range b {
		b[i] = trackstore.TrackPointInput{Lat: shared.Lat, Lon: shared.Lon + float64(4-i)*stepDeg}
	}
	// b traversed forward runs from far-to-near; its end is at `shared`.

	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{a, b})
	require.NoError(t, err)

	s1 := discover.Segment{RefRange: store.Track(1).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}
	s2 := discover.Segment{RefRange: store.Track(2).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}
	segments := []discover.Segment{s1, s2}

	path, err := FindPathBetweenSegments(store, s1, s2, segments, 2, 2, 50)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, Forward, path[0].Orientation)
	assert.Equal(t, Reversed, path[1].Orientation)
}

func TestFindPathBetweenSegments_NotFound(t *testing.T) {
	t.Parallel()
	stepDeg := 10.0 / 111000
	a := straightLine(0, 0, stepDeg, 5)
	b := straightLine(60, 60, stepDeg, 5) // nowhere near a

	store, err := trackstore.BuildStore([][]trackstore.TrackPointInput{a, b})
	require.NoError(t, err)

	s1 := discover.Segment{RefRange: store.Track(1).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}
	s2 := discover.Segment{RefRange: store.Track(2).Indices(), RunRanges: map[int]discover.Run{1: {}, 2: {}}}

	_, err = FindPathBetweenSegments(store, s1, s2, []discover.Segment{s1, s2}, 2, 2, 50)
	assert.ErrorIs(t, err, ErrPathNotFound)
}
