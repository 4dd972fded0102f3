// Package discover implements the repeated-segment discovery engine: given
// a reference track, it enumerates candidate reference sub-ranges of a
// target geographic length, broad-phase filters every other track by
// bounding-box and KD-tree radius query, narrow-phase searches each for a
// contiguous window within Frechet tolerance of the candidate, and
// deduplicates overlapping candidates. See the package-level design notes in
// stage1.go and stage2.go for the two-pass algorithm.
package discover

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/segfind/ridesegments/pkg/geo"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

// ErrInvalidInput is returned for malformed parameters: a non-positive
// window step or a dedup overlap fraction outside [0,1].
var ErrInvalidInput = errors.New("invalid input")

// contiguitySlack is the fixed slack added to a candidate's window size
// when gating narrow-phase windows for contiguity: a window is rejected if
// the gap between its extreme global indices exceeds windowSize+slack. It
// rules out clearly non-contiguous windows while tolerating small index
// gaps from a handful of dropped or jittered fixes. Exposed on Options so
// tests can probe its effect, but intended as a build-time constant.
const contiguitySlack = 5

// Run is a run of a segment in one track: the contiguous ordered range of
// that track's global point indices whose polyline matched the segment's
// candidate polyline.
type Run struct {
	First, Last int
}

// Indices returns the run's global point indices in capture order.
func (r Run) Indices() []int {
	idx := make([]int, r.Last-r.First+1)
	for i := range idx {
		idx[i] = r.First + i
	}
	return idx
}

// Segment is a discovered repeated route segment.
type Segment struct {
	ID        string // stable identity for external references (e.g. pathfinder results, API responses)
	RefRange  []int
	Polyline  []geo.Point
	LengthM   float64
	RunRanges map[int]Run // track position -> run
}

// Options configures FindOverlappingSegments. Field names follow the
// configuration table in SPEC_FULL.md §6; DefaultOptions supplies its
// defaults.
type Options struct {
	MaxLengthM       float64
	TolM             float64
	WindowStep       int
	MinRuns          int
	PrefilterMarginM float64
	DedupOverlapFrac float64
	ContiguitySlack  int
	Workers          int
	Observer         Observer
}

// Observer receives progress notifications from a discovery run. The
// Observer itself is optional; a nil Observer (the default) receives
// nothing. OnCandidateDone is called once per promoted candidate, after the
// counting pass has finished. This is
// the minimal capability set the engine needs for progress reporting,
// deliberately not a logging facility.
type Observer interface {
	OnStageStart(stage string)
	OnCandidateDone(startPos, supportCount int)
}

// DefaultOptions returns the specification's documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxLengthM:       500,
		TolM:             5,
		WindowStep:       1,
		MinRuns:          2,
		PrefilterMarginM: 5,
		DedupOverlapFrac: 0.8,
		ContiguitySlack:  contiguitySlack,
		Workers:          runtime.NumCPU(),
	}
}

// Result is the output of FindOverlappingSegments.
type Result struct {
	Segments    []Segment
	CloseTracks []int // 1-based track positions
}

func (o Options) validate() error {
	if o.WindowStep <= 0 {
		return fmt.Errorf("%w: window_step must be positive, got %d", ErrInvalidInput, o.WindowStep)
	}
	if o.DedupOverlapFrac < 0 || o.DedupOverlapFrac > 1 {
		return fmt.Errorf("%w: dedup_overlap_frac must be in [0,1], got %g", ErrInvalidInput, o.DedupOverlapFrac)
	}
	return nil
}

// FindOverlappingSegments enumerates repeated segments of the reference
// track (1-based refRideIdx) across every other track in store. It returns
// an empty Result, not an error, when there are no close tracks or no
// candidate passes min_runs.
func FindOverlappingSegments(store *trackstore.Store, refRideIdx int, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	if opts.MinRuns < 1 {
		log.Printf("[discover] min_runs=%d is invalid; treating as 1", opts.MinRuns)
		opts.MinRuns = 1
	}
	if opts.ContiguitySlack == 0 {
		opts.ContiguitySlack = contiguitySlack
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	notify := func(stage string) {
		if opts.Observer != nil {
			opts.Observer.OnStageStart(stage)
		}
	}

	notify("prepare")
	prep, err := prepare(store, refRideIdx, opts)
	if err != nil {
		return Result{}, err
	}
	if len(prep.closeTracks) == 0 {
		log.Printf("[discover] close-tracks=0 for reference track %d", refRideIdx)
		return Result{CloseTracks: nil}, nil
	}
	if len(prep.validStarts) == 0 {
		return Result{CloseTracks: closeTrackPositions(prep.closeTracks)}, nil
	}

	notify("count")
	counts := runStage1(prep, opts)

	promoted := promote(prep.validStarts, counts, opts.MinRuns)
	if opts.Observer != nil {
		for _, c := range promoted {
			opts.Observer.OnCandidateDone(c.s, c.count)
		}
	}

	notify("detail")
	segments := runStage2(store, prep, promoted, opts)

	return Result{Segments: segments, CloseTracks: closeTrackPositions(prep.closeTracks)}, nil
}

func closeTrackPositions(tracks []closeTrack) []int {
	positions := make([]int, len(tracks))
	for i, t := range tracks {
		positions[i] = t.pos
	}
	return positions
}
