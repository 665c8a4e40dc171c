package spatial_test

import (
	"context"
	"testing"

	"refugia/adapters/rng"
	"refugia/adapters/stats/spatial"
	"refugia/domain/core"
	"refugia/internal/testkit"
)

func clusteredWeights(t *testing.T) (*spatial.Weights, []float64) {
	t.Helper()
	points, x := testkit.ClusteredField(8)
	w, err := spatial.BuildWeights(points, spatial.DefaultWeightsConfig())
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	return w, x
}

func TestPermutationDetectsClustering(t *testing.T) {
	w, x := clusteredWeights(t)
	referee := spatial.NewPermutationReferee(rng.NewSeededSource())

	res, err := referee.Run(context.Background(), w, x, spatial.PermutationConfig{
		Rounds: 199, Seed: 42, Workers: 4,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.ObservedI <= 0 {
		t.Errorf("observed I = %g, want positive for clustered bands", res.ObservedI)
	}
	// perfectly separated bands: hardly any shuffle can be as extreme
	if res.PValue < 1.0/200.0 || res.PValue > 0.05 {
		t.Errorf("p = %g, want within [%g, 0.05]", res.PValue, 1.0/200.0)
	}
	if res.Rounds != 199 {
		t.Errorf("rounds = %d, want 199", res.Rounds)
	}
}

func TestPermutationDeterministicAcrossWorkerCounts(t *testing.T) {
	w, x := clusteredWeights(t)
	referee := spatial.NewPermutationReferee(rng.NewSeededSource())
	ctx := context.Background()

	base, err := referee.Run(ctx, w, x, spatial.PermutationConfig{Rounds: 120, Seed: 7, Workers: 1})
	if err != nil {
		t.Fatalf("workers=1: %v", err)
	}

	for _, workers := range []int{2, 8} {
		got, err := referee.Run(ctx, w, x, spatial.PermutationConfig{Rounds: 120, Seed: 7, Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if got.PValue != base.PValue || got.MoreExtreme != base.MoreExtreme {
			t.Errorf("workers=%d: p=%g extreme=%d, want p=%g extreme=%d",
				workers, got.PValue, got.MoreExtreme, base.PValue, base.MoreExtreme)
		}
		if got.Null.Mean != base.Null.Mean {
			t.Errorf("workers=%d: null mean %g differs from %g", workers, got.Null.Mean, base.Null.Mean)
		}
	}
}

func TestPermutationPValueRange(t *testing.T) {
	w, x := clusteredWeights(t)
	referee := spatial.NewPermutationReferee(rng.NewSeededSource())

	res, err := referee.Run(context.Background(), w, x, spatial.PermutationConfig{Rounds: 99, Seed: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	min := 1.0 / 100.0
	if res.PValue < min || res.PValue > 1 {
		t.Errorf("p = %g outside [%g, 1]", res.PValue, min)
	}
}

func TestPermutationConstantIndicatorFails(t *testing.T) {
	points, _ := testkit.ClusteredField(8)
	w, err := spatial.BuildWeights(points, spatial.DefaultWeightsConfig())
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	x := make([]float64, len(points))
	for i := range x {
		x[i] = 1
	}

	referee := spatial.NewPermutationReferee(rng.NewSeededSource())
	_, err = referee.Run(context.Background(), w, x, spatial.PermutationConfig{Rounds: 50, Seed: 1})
	if !core.IsConstantIndicator(err) {
		t.Fatalf("got %v, want ConstantIndicator", err)
	}
}

func TestPermutationHonoursCancellation(t *testing.T) {
	w, x := clusteredWeights(t)
	referee := spatial.NewPermutationReferee(rng.NewSeededSource())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := referee.Run(ctx, w, x, spatial.PermutationConfig{Rounds: 999, Seed: 1, Workers: 4}); err == nil {
		t.Fatal("expected error after cancellation")
	}
}
