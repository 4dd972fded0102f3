package discover

import (
	"github.com/google/uuid"

	"github.com/segfind/ridesegments/pkg/geo"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

// runStage2 is the sequential detail-and-dedup pass: it walks the promoted
// candidates in their stage-1 order (highest support first, ties broken by
// earliest start), skips any candidate whose reference range overlaps an
// already-accepted segment by at least dedup_overlap_frac, and otherwise
// recomputes the candidate's geometry and finds each close track's best
// matching window before accepting the segment. Running sequentially, in
// this fixed order, is what makes dedup deterministic.
func runStage2(store *trackstore.Store, prep *preparation, promoted []promotedCandidate, opts Options) []Segment {
	var accepted []Segment
	refPos := refPositionOf(prep)

	for _, p := range promoted {
		if overlapsAccepted(accepted, prep.refIndices[p.s], prep.refIndices[p.e], opts.DedupOverlapFrac) {
			continue
		}

		w := candidateWindow{s: p.s, e: p.e}
		cand := buildCandidateGeometry(prep, w, opts)
		windowSize := len(cand.refRange)

		runs := make(map[int]Run, len(prep.closeTracks)+1)
		runs[refPos] = Run{First: cand.refRange[0], Last: cand.refRange[len(cand.refRange)-1]}

		for _, track := range prep.closeTracks {
			globals := candidateSet(track, cand)
			windows := admissibleWindows(globals, windowSize, opts.ContiguitySlack)
			window, ok := bestMatchingWindow(store, windows, cand.polyline, opts.TolM)
			if !ok {
				continue
			}
			runs[track.pos] = Run{First: window[0], Last: window[len(window)-1]}
		}

		accepted = append(accepted, Segment{
			ID:        uuid.NewString(),
			RefRange:  cand.refRange,
			Polyline:  cand.polyline,
			LengthM:   geo.CumulativeLength(cand.polyline)[len(cand.polyline)-1],
			RunRanges: runs,
		})
	}

	return accepted
}

// refPositionOf returns the reference track's own position among the close
// tracks list if present, so its run can share the map key space; falling
// back to 0 (never a valid 1-based position) when the reference track did
// not pass its own broad-phase filter, which cannot happen since a track's
// bounding box always intersects itself, but is handled defensively here
// because the lookup is cheap.
func refPositionOf(prep *preparation) int {
	if len(prep.refIndices) == 0 {
		return 0
	}
	refGlobal := prep.refIndices[0]
	for _, t := range prep.closeTracks {
		if len(t.indices) > 0 && t.indices[0] <= refGlobal && refGlobal <= t.indices[len(t.indices)-1] {
			return t.pos
		}
	}
	return 0
}

// overlapsAccepted reports whether [s,e] overlaps any already-accepted
// segment's reference range by at least frac, measured against the
// shorter of the two ranges' lengths.
func overlapsAccepted(accepted []Segment, s, e int, frac float64) bool {
	for _, seg := range accepted {
		if len(seg.RefRange) == 0 {
			continue
		}
		as, ae := seg.RefRange[0], seg.RefRange[len(seg.RefRange)-1]
		lo, hi := s, e
		if as > lo {
			lo = as
		}
		if ae < hi {
			hi = ae
		}
		if hi < lo {
			continue
		}
		overlap := hi - lo + 1
		shortest := e - s + 1
		if ae-as+1 < shortest {
			shortest = ae - as + 1
		}
		if float64(overlap)/float64(shortest) >= frac {
			return true
		}
	}
	return false
}
