package crop

import (
	"runtime"
	"sync"
)

// Optimize returns the candidate with the maximum total score. Ties go to
// the lowest enumeration index, so the result is the first-seen maximum
// of the deterministic candidate order no matter how the work is sharded.
func Optimize(cands []Candidate, s *Scorer) (Candidate, Breakdown, error) {
	return optimize(cands, s, runtime.GOMAXPROCS(0))
}

type best struct {
	ok        bool
	candidate Candidate
	score     Breakdown
}

// better reports whether (c, b) beats the current best under the
// first-seen-maximum rule.
func (w best) better(c Candidate, b Breakdown) bool {
	if !w.ok {
		return true
	}
	if b.Total != w.score.Total {
		return b.Total > w.score.Total
	}
	return c.Index < w.candidate.Index
}

func optimize(cands []Candidate, s *Scorer, workers int) (Candidate, Breakdown, error) {
	if len(cands) == 0 {
		return Candidate{}, Breakdown{}, ErrNoCandidates
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(cands) {
		workers = len(cands)
	}

	// Each worker owns a disjoint slice and keeps a local best; the
	// single reduction below preserves tie semantics. Workers whose
	// range starts past the end are never spawned.
	results := make([]best, workers)
	var wg sync.WaitGroup
	chunk := (len(cands) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(cands) {
			break
		}
		hi := lo + chunk
		if hi > len(cands) {
			hi = len(cands)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			local := best{}
			for _, c := range cands[lo:hi] {
				if b := s.Score(c); local.better(c, b) {
					local = best{ok: true, candidate: c, score: b}
				}
			}
			results[w] = local
		}(w, lo, hi)
	}
	wg.Wait()

	top := best{}
	for _, r := range results {
		if r.ok && top.better(r.candidate, r.score) {
			top = r
		}
	}
	return top.candidate, top.score, nil
}
