// Package trackstore holds the immutable arena of recorded GPS points and
// the tracks (rides) that index into it. Once built, a Store is shared-read
// by every discovery and pathfinding worker without locking.
package trackstore

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/segfind/ridesegments/pkg/geo"
)

// ErrInvalidInput is returned by BuildStore when a track has fewer than two
// points with a finite, in-range latitude/longitude. Invalid points in a
// track that has at least two valid ones are stored as given.
var ErrInvalidInput = errors.New("invalid input")

// TrackPoint is one recorded GPS fix. Latitude/longitude are mandatory;
// everything else is optional and carried in a small side channel so the
// hot geometric paths only ever touch Lat/Lon.
type TrackPoint struct {
	Lat, Lon float64
	Time     *time.Time
	Altitude *float64
	Extra    map[string]any
}

// TrackPointInput is the shape callers supply to BuildStore: one track is an
// ordered slice of these.
type TrackPointInput = TrackPoint

// Point returns the geo.Point for this record.
func (p TrackPoint) Point() geo.Point {
	return geo.Point{Lon: p.Lon, Lat: p.Lat}
}

// Track is a contiguous ordered range of global point indices, in capture
// order. Ranges of distinct tracks never overlap.
type Track struct {
	First, Last int // inclusive global index bounds
}

// Len returns the number of points in the track.
func (t Track) Len() int {
	return t.Last - t.First + 1
}

// Indices returns the track's global point indices in capture order.
func (t Track) Indices() []int {
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = t.First + i
	}
	return idx
}

// Store is the immutable, shared-read collection of all tracks and the
// global point table they index into. Constructed once per run.
type Store struct {
	points map[int]TrackPoint
	tracks []Track
}

// BuildStore constructs a Store from an ordered sequence of tracks, each an
// ordered sequence of TrackPoint records. Global point indices are assigned
// densely starting at 1, in the order tracks and points are given. Fails
// with ErrInvalidInput if any track has fewer than 2 points with valid
// lat/lon.
func BuildStore(tracksInput [][]TrackPointInput) (*Store, error) {
	s := &Store{points: make(map[int]TrackPoint)}
	next := 1
	for ti, pts := range tracksInput {
		valid := 0
		for _, p := range pts {
			if validCoord(p.Lat, p.Lon) {
				valid++
			}
		}
		if valid < 2 {
			return nil, fmt.Errorf("%w: track %d has fewer than 2 points with valid lat/lon", ErrInvalidInput, ti+1)
		}
		first := next
		for _, p := range pts {
			s.points[next] = p
			next++
		}
		s.tracks = append(s.tracks, Track{First: first, Last: next - 1})
	}
	return s, nil
}

func validCoord(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) && !math.IsInf(lat, 0) && !math.IsInf(lon, 0) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// NumTracks returns the number of tracks in the store.
func (s *Store) NumTracks() int {
	return len(s.tracks)
}

// Track returns the track at 1-based position pos.
func (s *Store) Track(pos int) Track {
	return s.tracks[pos-1]
}

// Tracks returns all tracks in capture order, 1-based position implied by
// slice index+1.
func (s *Store) Tracks() []Track {
	return s.tracks
}

// Record returns the TrackPoint record for a global point index.
func (s *Store) Record(globalIdx int) TrackPoint {
	return s.points[globalIdx]
}

// Point returns the geo.Point for a global point index.
func (s *Store) Point(globalIdx int) geo.Point {
	return s.points[globalIdx].Point()
}

// Polyline returns the ordered point sequence for an ordered slice of
// global indices.
func (s *Store) Polyline(indices []int) []geo.Point {
	pts := make([]geo.Point, len(indices))
	for i, idx := range indices {
		pts[i] = s.Point(idx)
	}
	return pts
}

// TrackBBox returns the bounding box of a track's points.
func (s *Store) TrackBBox(t Track) geo.BBox {
	return geo.BoundingBox(s.Polyline(t.Indices()))
}
