package montecarlo

import (
	"errors"
	"math"
	"testing"
)

// --- input validation -------------------------------------------------------

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		samples int64
		wantErr bool
	}{
		{"positive", 100, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Params{Samples: tc.samples, Seed: 1}.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate(%d): got %v, want ErrInvalidArgument", tc.samples, err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate(%d): unexpected error %v", tc.samples, err)
			}
		})
	}
}

func TestParseSampleCount(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100000", 100000, false},
		{"1e5", 100000, false},
		{"1e3", 1000, false},
		{"2.5e2", 250, false},
		{" 1e5 ", 100000, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"-1e5", 0, true},
		{"1.5", 0, true},
		{"1e300", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseSampleCount(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseSampleCount(%q): got err %v, want ErrInvalidArgument", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSampleCount(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSampleCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// --- partitioning -----------------------------------------------------------

func TestPlanShares_EvenSplitWithRemainderToFirst(t *testing.T) {
	shares, err := PlanShares(10, 4, 100)
	if err != nil {
		t.Fatalf("PlanShares: %v", err)
	}
	if len(shares) != 4 {
		t.Fatalf("len(shares) = %d, want 4", len(shares))
	}

	// 10/4 = 2 each, remainder 2 goes to share 0.
	wantSamples := []int64{4, 2, 2, 2}
	var total int64
	for i, s := range shares {
		if s.Samples != wantSamples[i] {
			t.Errorf("share %d samples = %d, want %d", i, s.Samples, wantSamples[i])
		}
		if s.Index != i {
			t.Errorf("share %d index = %d", i, s.Index)
		}
		if s.Seed != 100+int64(i) {
			t.Errorf("share %d seed = %d, want %d", i, s.Seed, 100+int64(i))
		}
		total += s.Samples
	}
	if total != 10 {
		t.Errorf("shares sum to %d, want 10", total)
	}
}

func TestPlanShares_SingleWorkerGetsEverything(t *testing.T) {
	shares, err := PlanShares(1000, 1, 42)
	if err != nil {
		t.Fatalf("PlanShares: %v", err)
	}
	if len(shares) != 1 || shares[0].Samples != 1000 || shares[0].Seed != 42 {
		t.Errorf("shares = %+v, want one full share with seed 42", shares)
	}
}

func TestPlanShares_Invalid(t *testing.T) {
	if _, err := PlanShares(0, 4, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("total 0: got %v, want ErrInvalidArgument", err)
	}
	if _, err := PlanShares(100, 0, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("workers 0: got %v, want ErrInvalidArgument", err)
	}
}

// --- sampling ---------------------------------------------------------------

func TestCountInside_Deterministic(t *testing.T) {
	share := Share{Samples: 10_000, Seed: 7}
	a := CountInside(share, 0, nil)
	b := CountInside(share, 0, nil)
	if a != b {
		t.Errorf("two identical runs: %d vs %d", a, b)
	}
	if a < 0 || a > share.Samples {
		t.Errorf("inside count %d out of [0, %d]", a, share.Samples)
	}
}

func TestCountInside_ProgressCadence(t *testing.T) {
	var calls []int64
	CountInside(Share{Samples: 250, Seed: 1}, 100, func(done, inside int64) {
		calls = append(calls, done)
		if inside < 0 || inside > done {
			t.Errorf("progress inside = %d at done = %d", inside, done)
		}
	})
	if len(calls) != 2 || calls[0] != 100 || calls[1] != 200 {
		t.Errorf("progress calls at %v, want [100 200]", calls)
	}
}

func TestEstimate_FloatDivision(t *testing.T) {
	if got := Estimate(3, 4); got != 3.0 {
		t.Errorf("Estimate(3, 4) = %v, want 3.0", got)
	}
	if got := Estimate(1, 3); math.Abs(got-4.0/3.0) > 1e-15 {
		t.Errorf("Estimate(1, 3) = %v, want 4/3", got)
	}
}
