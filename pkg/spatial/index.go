// Package spatial provides a read-only 2-D spatial index over geographic
// points, used by the discovery engine for broad-phase radius queries. The
// index is named KDTree to match the vocabulary of the system it serves;
// internally it is backed by a bulk-loaded R-tree (github.com/dhconnelly/rtreego),
// a documented acceptable substitute for a balanced KD-tree when queries are
// built once and read many times.
package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/segfind/ridesegments/pkg/geo"
)

// rtree bulk-load tuning: small fan-out is fine for the few hundred to few
// thousand points a single track or the global table typically holds.
const (
	minChildren = 25
	maxChildren = 50
)

// entry is the Spatial payload stored in the tree: a point together with
// its position in the index's backing array.
type entry struct {
	pos int
	pt  rtreego.Point
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.pt.ToRect(pointTol)
}

// pointTol is the half-width, in degrees, of the degenerate bounding box
// rtreego requires for a point object. Far smaller than any radius query
// this package runs, so it has no effect on query results.
const pointTol = 1e-9

// KDTree is an immutable 2-D spatial index over a fixed Point array.
// Safe for concurrent read-only queries once built.
type KDTree struct {
	tree      *rtreego.Rtree
	points    []geo.Point
	globalIdx []int // nil for a global index; per-track translation otherwise
}

// NewGlobalIndex builds an index over all points, queried positions are
// indices into the points slice as given.
func NewGlobalIndex(points []geo.Point) *KDTree {
	return build(points, nil)
}

// NewTrackIndex builds an index over one track's points. globalIndices must
// be parallel to points; GlobalIndex translates a query result position to
// its global point index in O(1).
func NewTrackIndex(points []geo.Point, globalIndices []int) *KDTree {
	return build(points, globalIndices)
}

func build(points []geo.Point, globalIndices []int) *KDTree {
	objs := make([]rtreego.Spatial, len(points))
	for i, p := range points {
		objs[i] = &entry{pos: i, pt: rtreego.Point{p.Lon, p.Lat}}
	}
	return &KDTree{
		tree:      rtreego.NewTree(2, minChildren, maxChildren, objs...),
		points:    points,
		globalIdx: globalIndices,
	}
}

// InRange returns, in ascending order, the positions within Euclidean
// distance r (degrees) of center. Each point is returned at most once.
func (k *KDTree) InRange(center geo.Point, r float64) []int {
	if r <= 0 {
		return nil
	}
	bb := rtreego.Point{center.Lon, center.Lat}.ToRect(r)
	hits := k.tree.SearchIntersect(bb)
	r2 := r * r
	positions := make([]int, 0, len(hits))
	for _, h := range hits {
		e := h.(*entry)
		dx := e.pt[0] - center.Lon
		dy := e.pt[1] - center.Lat
		if dx*dx+dy*dy <= r2 {
			positions = append(positions, e.pos)
		}
	}
	sort.Ints(positions)
	return positions
}

// GlobalIndex translates a query result position into the global point
// index it corresponds to. Only valid for an index built with
// NewTrackIndex.
func (k *KDTree) GlobalIndex(pos int) int {
	return k.globalIdx[pos]
}

// Len reports the number of points in the index.
func (k *KDTree) Len() int {
	return len(k.points)
}
