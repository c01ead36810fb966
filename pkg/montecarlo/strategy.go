package montecarlo

import "sync"

// TracePoint is one progressive estimate collected mid-run.
type TracePoint struct {
	// Samples is how many points had been drawn when the estimate was taken.
	Samples int64 `json:"samples"`

	// Estimate is the running π estimate at that point.
	Estimate float64 `json:"estimate"`
}

// Result is the outcome of a completed run.
type Result struct {
	// Estimate is the final π estimate, 4 × Inside / Samples.
	Estimate float64 `json:"estimate"`

	// Inside is the total number of points inside the quarter circle.
	Inside int64 `json:"inside"`

	// Samples is the total number of points drawn.
	Samples int64 `json:"samples"`

	// Workers is the number of shares the run was split into (1 for
	// sequential runs).
	Workers int `json:"workers"`

	// Trace holds progressive estimates when collection was requested.
	// Only sequential runs collect a trace; parallel share streams
	// interleave, so a mid-run total is not well defined.
	Trace []TracePoint `json:"trace,omitempty"`
}

// Sequential runs the whole sampling loop in the calling goroutine.
//
// When collectEvery > 0, the running estimate is recorded every collectEvery
// samples and returned in Result.Trace. Two calls with the same Params
// return bit-identical results.
func Sequential(p Params, collectEvery int64) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	share := Share{Index: 0, Samples: p.Samples, Seed: p.Seed}

	var trace []TracePoint
	var onProgress ProgressFunc
	if collectEvery > 0 {
		trace = make([]TracePoint, 0, p.Samples/collectEvery)
		onProgress = func(done, inside int64) {
			trace = append(trace, TracePoint{Samples: done, Estimate: Estimate(inside, done)})
		}
	}

	inside := CountInside(share, collectEvery, onProgress)
	return &Result{
		Estimate: Estimate(inside, p.Samples),
		Inside:   inside,
		Samples:  p.Samples,
		Workers:  1,
		Trace:    trace,
	}, nil
}

// Parallel splits the run across the given number of goroutines and reduces
// their inside counts by summation.
//
// Each share draws from its own generator, so the result is deterministic
// for a fixed (Params, workers) — though not bit-identical to the sequential
// result, since the random streams are partitioned differently.
func Parallel(p Params, workers int) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	shares, err := PlanShares(p.Samples, workers, p.Seed)
	if err != nil {
		return nil, err
	}

	counts := make([]int64, len(shares))
	var wg sync.WaitGroup
	for i, share := range shares {
		wg.Add(1)
		go func(i int, share Share) {
			defer wg.Done()
			counts[i] = CountInside(share, 0, nil)
		}(i, share)
	}
	wg.Wait()

	var inside int64
	for _, c := range counts {
		inside += c
	}

	return &Result{
		Estimate: Estimate(inside, p.Samples),
		Inside:   inside,
		Samples:  p.Samples,
		Workers:  workers,
	}, nil
}
