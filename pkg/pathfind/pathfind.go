// Package pathfind composes discovered segments into a directed path:
// given a start and end segment, it builds a graph of (segment,
// orientation) nodes, connects oriented endpoints within a tolerance, and
// breadth-first searches from the start's forward orientation to any
// orientation of the end segment.
package pathfind

import (
	"errors"
	"fmt"

	"github.com/segfind/ridesegments/pkg/discover"
	"github.com/segfind/ridesegments/pkg/geo"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

// ErrPathNotFound is returned when BFS exhausts the graph without reaching
// the end segment.
var ErrPathNotFound = errors.New("path not found")

// ErrReconstructionFailure is returned when the reconstructed path's first
// element is not the requested start segment; this indicates a parent-chain
// bug and should never occur in practice.
var ErrReconstructionFailure = errors.New("path reconstruction failure")

// ErrPathTooShort is returned when a path is found but has fewer nodes than
// minLength.
var ErrPathTooShort = errors.New("path too short")

// Orientation is which direction a segment's reference range is traversed.
type Orientation int

const (
	Forward Orientation = iota
	Reversed
)

func (o Orientation) String() string {
	if o == Reversed {
		return "reversed"
	}
	return "forward"
}

// PathElement is one step of a found path.
type PathElement struct {
	Segment     discover.Segment
	SegmentIdx  int // 1-based position in the input segments list
	Orientation Orientation
}

// node identifies one of the 2N (segment, orientation) pairs in the graph.
type node struct {
	segIdx int // 0-based index into segments
	or     Orientation
}

// FindPathBetweenSegments searches for a directed path from start to end
// through segments, where consecutive segments' oriented endpoints are
// within tolerance_m of each other. Only segments with at least minRuns
// supporting tracks participate in edges.
func FindPathBetweenSegments(
	store *trackstore.Store,
	start, end discover.Segment,
	segments []discover.Segment,
	minLength, minRuns int,
	toleranceM float64,
) ([]PathElement, error) {
	startIdx, endIdx := -1, -1
	for i, s := range segments {
		if sameSegment(s, start) {
			startIdx = i
		}
		if sameSegment(s, end) {
			endIdx = i
		}
	}
	if startIdx == -1 {
		return nil, fmt.Errorf("start segment not found in segments list")
	}
	if endIdx == -1 {
		return nil, fmt.Errorf("end segment not found in segments list")
	}

	eligible := make([]bool, len(segments))
	endpoints := make([]orientedEndpoints, len(segments))
	for i, s := range segments {
		eligible[i] = len(s.RunRanges) >= minRuns
		endpoints[i] = endpointsOf(store, s)
	}

	startNode := node{segIdx: startIdx, or: Forward}
	if !eligible[startIdx] {
		return nil, ErrPathNotFound
	}

	parents := map[node]node{}
	visited := map[node]bool{startNode: true}
	queue := []node{startNode}

	var terminal node
	found := false

	if startIdx == endIdx {
		terminal = startNode
		found = true
	}

	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]

		for j := range segments {
			if j == cur.segIdx || !eligible[j] {
				continue
			}
			for _, or := range []Orientation{Forward, Reversed} {
				if !connected(endpoints[cur.segIdx], cur.or, endpoints[j], or, toleranceM) {
					continue
				}
				next := node{segIdx: j, or: or}
				if visited[next] {
					continue
				}
				visited[next] = true
				parents[next] = cur
				if j == endIdx {
					terminal = next
					found = true
					break
				}
				queue = append(queue, next)
			}
			if found {
				break
			}
		}
	}

	if !found {
		return nil, ErrPathNotFound
	}

	path, err := reconstruct(terminal, startNode, parents, segments)
	if err != nil {
		return nil, err
	}
	if len(path) < minLength {
		return nil, ErrPathTooShort
	}
	return path, nil
}

func reconstruct(terminal, start node, parents map[node]node, segments []discover.Segment) ([]PathElement, error) {
	var nodes []node
	cur := terminal
	for {
		nodes = append(nodes, cur)
		if cur == start {
			break
		}
		p, ok := parents[cur]
		if !ok {
			return nil, ErrReconstructionFailure
		}
		cur = p
	}
	// nodes is terminal-to-source; reverse into source-to-terminal order.
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	if nodes[0] != start {
		return nil, ErrReconstructionFailure
	}

	path := make([]PathElement, len(nodes))
	for i, n := range nodes {
		path[i] = PathElement{
			Segment:     segments[n.segIdx],
			SegmentIdx:  n.segIdx + 1,
			Orientation: n.or,
		}
	}
	return path, nil
}

// orientedEndpoints caches a segment's forward start/end points so they
// need not be recomputed per BFS edge test.
type orientedEndpoints struct {
	start, end geo.Point
}

func endpointsOf(store *trackstore.Store, s discover.Segment) orientedEndpoints {
	return orientedEndpoints{
		start: store.Point(s.RefRange[0]),
		end:   store.Point(s.RefRange[len(s.RefRange)-1]),
	}
}

// connected tests whether an edge exists from (i, oi) to (j, oj): the
// oriented end-endpoint of i must lie within toleranceM of the oriented
// start-endpoint of j.
func connected(ei orientedEndpoints, oi Orientation, ej orientedEndpoints, oj Orientation, toleranceM float64) bool {
	endI := ei.end
	if oi == Reversed {
		endI = ei.start
	}
	startJ := ej.start
	if oj == Reversed {
		startJ = ej.end
	}
	return geo.Distance(endI, startJ) <= toleranceM
}

// sameSegment identifies a segment by its ID, falling back to reference
// range equality for segments constructed without one (e.g. in tests).
func sameSegment(a, b discover.Segment) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	if len(a.RefRange) != len(b.RefRange) {
		return false
	}
	for i := range a.RefRange {
		if a.RefRange[i] != b.RefRange[i] {
			return false
		}
	}
	return true
}
