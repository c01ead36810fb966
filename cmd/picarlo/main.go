package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/picarlo/picarlo/pkg/montecarlo"
)

// envDefaults are the flag defaults, overridable via PICARLO_* variables.
type envDefaults struct {
	NumSamples   string `env:"PICARLO_NUM_SAMPLES" envDefault:"1e5"`
	Seed         int64  `env:"PICARLO_SEED" envDefault:"12345"`
	Workers      int    `env:"PICARLO_WORKERS" envDefault:"1"`
	CollectEvery int64  `env:"PICARLO_COLLECT_EVERY" envDefault:"0"`
}

func main() {
	defs := envDefaults{}
	if err := env.Parse(&defs); err != nil {
		fmt.Fprintf(os.Stderr, "picarlo: %v\n", err)
		os.Exit(1)
	}

	numSamples := flag.String("num_samples", defs.NumSamples,
		"number of samples to draw; scientific notation accepted (e.g. 1e6)")
	seed := flag.Int64("seed", defs.Seed, "random seed")
	workers := flag.Int("workers", defs.Workers,
		"number of in-process workers; 0 or 1 runs sequentially")
	collectEvery := flag.Int64("collect_every", defs.CollectEvery,
		"record a progressive estimate every N samples (sequential only, 0 disables)")
	flag.Parse()

	if err := run(*numSamples, *seed, *workers, *collectEvery); err != nil {
		fmt.Fprintf(os.Stderr, "picarlo: %v\n", err)
		os.Exit(1)
	}
}

func run(numSamples string, seed int64, workers int, collectEvery int64) error {
	samples, err := montecarlo.ParseSampleCount(numSamples)
	if err != nil {
		return err
	}
	if workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d",
			montecarlo.ErrInvalidArgument, workers)
	}
	params := montecarlo.Params{Samples: samples, Seed: seed}

	var res *montecarlo.Result
	if workers <= 1 {
		res, err = montecarlo.Sequential(params, collectEvery)
	} else {
		res, err = montecarlo.Parallel(params, workers)
	}
	if err != nil {
		return err
	}

	printResult(os.Stdout, res)
	return nil
}

// printResult writes the progressive trace, if any, then the final estimate
// with its absolute and percentage difference from math.Pi.
func printResult(w *os.File, res *montecarlo.Result) {
	for _, tp := range res.Trace {
		fmt.Fprintf(w, "%12d samples: %.8f\n", tp.Samples, tp.Estimate)
	}
	diff := math.Abs(res.Estimate - math.Pi)
	fmt.Fprintf(w, "pi is approximately %.8f (%d samples, %d workers)\n",
		res.Estimate, res.Samples, res.Workers)
	fmt.Fprintf(w, "difference: %.8f (%.6f%%)\n", diff, diff/math.Pi*100)
}
