package montecarlo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// ErrInvalidArgument is returned for inputs that fail validation before any
// sampling begins: non-positive, non-integral, or non-numeric sample counts.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultSamples and DefaultSeed match the original script defaults and are
// used by the CLI and config layers when a value is not supplied.
const (
	DefaultSamples int64 = 100_000
	DefaultSeed    int64 = 12345
)

// Params describes one estimation run.
type Params struct {
	// Samples is the total number of random points drawn across the run.
	// Must be positive.
	Samples int64

	// Seed initialises the pseudo-random sequence. Any value is legal,
	// including negative. The same (Samples, Seed) always reproduces the
	// same sequential estimate.
	Seed int64
}

// Validate checks that p describes a legal run.
func (p Params) Validate() error {
	if p.Samples <= 0 {
		return fmt.Errorf("%w: num_samples must be positive, got %d", ErrInvalidArgument, p.Samples)
	}
	return nil
}

// ParseSampleCount parses a sample count from its command-line or wire form.
// Plain integers and scientific notation are both accepted ("100000", "1e5").
// The value must be a positive integer that fits in an int64.
func ParseSampleCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty sample count", ErrInvalidArgument)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: num_samples must be positive, got %d", ErrInvalidArgument, n)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: num_samples %q is not numeric", ErrInvalidArgument, s)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%w: num_samples must be positive, got %v", ErrInvalidArgument, f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: num_samples %q is not an integer", ErrInvalidArgument, s)
	}
	if f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: num_samples %q overflows int64", ErrInvalidArgument, s)
	}
	return int64(f), nil
}

// Share is one worker's slice of a run: how many samples to draw and which
// seed to draw them with. Shares are valid on their own, so a worker process
// can execute one without seeing the rest of the run.
type Share struct {
	// Index is the worker index in [0, workers).
	Index int `json:"index"`

	// Samples is the number of points this share draws.
	Samples int64 `json:"samples"`

	// Seed seeds this share's private generator.
	Seed int64 `json:"seed"`
}

// PlanShares splits a run of total samples across the given number of
// workers. The split is even, with the remainder assigned to share 0, and
// share i is seeded with seed+i so shares draw distinct, reproducible
// streams.
func PlanShares(total int64, workers int, seed int64) ([]Share, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: num_samples must be positive, got %d", ErrInvalidArgument, total)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidArgument, workers)
	}

	per := total / int64(workers)
	rem := total % int64(workers)

	shares := make([]Share, workers)
	for i := range shares {
		shares[i] = Share{
			Index:   i,
			Samples: per,
			Seed:    seed + int64(i),
		}
	}
	shares[0].Samples += rem
	return shares, nil
}

// ProgressFunc receives (done, inside) counts during a share's sampling loop.
type ProgressFunc func(done, inside int64)

// CountInside runs the sampling loop for one share and returns the number of
// points that landed inside the quarter circle.
//
// The share owns its generator exclusively; no global random state is
// touched, so concurrent shares never interfere. When every > 0 and
// onProgress is non-nil, the callback fires each time another `every`
// samples have been drawn.
func CountInside(share Share, every int64, onProgress ProgressFunc) int64 {
	rng := rand.New(rand.NewSource(share.Seed))

	var inside int64
	for i := int64(1); i <= share.Samples; i++ {
		x := rng.Float64()
		y := rng.Float64()
		if x*x+y*y <= 1 {
			inside++
		}
		if every > 0 && onProgress != nil && i%every == 0 {
			onProgress(i, inside)
		}
	}
	return inside
}

// Estimate derives the π estimate from an inside count over a total sample
// count. Both operands are widened to float64 before dividing.
func Estimate(inside, total int64) float64 {
	return 4 * float64(inside) / float64(total)
}
