package discover

import "sync"

// runStage1 is the counting pass: for each valid candidate start, it counts
// how many close tracks contain an admissible window within Frechet
// tolerance of the candidate, using an early-exit boolean check per track.
// Work is divided into fixed-size chunks across opts.Workers goroutines;
// each goroutine writes only to its own slice of preallocated output slots,
// so no synchronization is needed beyond the final join (see the
// specification's concurrency model).
func runStage1(prep *preparation, opts Options) []int {
	counts := make([]int, len(prep.validStarts))

	workers := opts.Workers
	if workers > len(prep.validStarts) {
		workers = len(prep.validStarts)
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (len(prep.validStarts) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(prep.validStarts); start += chunk {
		end := start + chunk
		if end > len(prep.validStarts) {
			end = len(prep.validStarts)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				counts[i] = countSupport(prep, prep.validStarts[i], opts)
			}
		}(start, end)
	}
	wg.Wait()
	return counts
}

// countSupport computes the number of close tracks with at least one
// admissible window whose Frechet distance to the candidate is within
// tol_m, stopping at the first matching window per track.
func countSupport(prep *preparation, w candidateWindow, opts Options) int {
	cand := buildCandidateGeometry(prep, w, opts)
	windowSize := len(cand.refRange)

	count := 0
	for _, track := range prep.closeTracks {
		globals := candidateSet(track, cand)
		windows := admissibleWindows(globals, windowSize, opts.ContiguitySlack)
		if hasMatchingWindow(prep.store, windows, cand.polyline, opts.TolM) {
			count++
		}
	}
	return count
}

// promotedCandidate is a candidate that met min_runs support in stage 1.
type promotedCandidate struct {
	s, e  int
	count int
}

// promote keeps candidates with count >= minRuns and sorts them by support
// count descending, ties broken by ascending start position. This ordering
// is part of the observable contract: stage 2's dedup is order-sensitive.
func promote(starts []candidateWindow, counts []int, minRuns int) []promotedCandidate {
	var out []promotedCandidate
	for i, w := range starts {
		if counts[i] >= minRuns {
			out = append(out, promotedCandidate{s: w.s, e: w.e, count: counts[i]})
		}
	}
	sortPromoted(out)
	return out
}

func sortPromoted(cands []promotedCandidate) {
	// Insertion sort is fine here: promoted lists are small relative to
	// valid_starts, and this keeps the comparator trivial to audit.
	for i := 1; i < len(cands); i++ {
		j := i
		for j > 0 && less(cands[j], cands[j-1]) {
			cands[j], cands[j-1] = cands[j-1], cands[j]
			j--
		}
	}
}

func less(a, b promotedCandidate) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	return a.s < b.s
}
