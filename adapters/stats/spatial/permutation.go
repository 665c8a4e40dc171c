package spatial

import (
	"context"
	"fmt"
	"math"
	"sync"

	mstats "github.com/montanaflynn/stats"

	"refugia/domain/core"
	"refugia/domain/stats"
	"refugia/ports"
)

// PermutationConfig holds configuration for the empirical significance test.
type PermutationConfig struct {
	Rounds     int    // number of shuffles (default 999)
	Seed       int64  // base seed for the round streams (default 42)
	Workers    int    // concurrent shuffle workers (default 4)
	StreamName string // RNG stream prefix, namespaced per feature by callers
}

// DefaultPermutationConfig returns the standard referee settings.
func DefaultPermutationConfig() PermutationConfig {
	return PermutationConfig{Rounds: 999, Seed: 42, Workers: 4, StreamName: "permutation"}
}

// PermutationReferee estimates the significance of an observed Moran's I
// empirically: indicator values are shuffled across locations, the statistic
// recomputed over the same weights, and the p-value taken as the smoothed
// share of permutations at least as extreme as the observation.
type PermutationReferee struct {
	rng ports.RNG
}

// NewPermutationReferee creates a referee drawing from the given RNG port.
func NewPermutationReferee(rng ports.RNG) *PermutationReferee {
	return &PermutationReferee{rng: rng}
}

type permRound struct {
	index int
	stat  float64
	err   error
}

// Run performs the permutation test. Each round derives its own named RNG
// stream from (StreamName, round index, Seed), so the result is identical
// for a fixed seed regardless of worker count or scheduling. Degenerate
// inputs fail with the same taxonomy as the analytic engine.
func (pr *PermutationReferee) Run(ctx context.Context, w *Weights, x []float64, cfg PermutationConfig) (*stats.PermutationResult, error) {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 999
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "permutation"
	}

	if w.N() < minMoranSample {
		return nil, fmt.Errorf("permutation: %w", core.NewInsufficientSampleError(w.N(), minMoranSample))
	}
	observed, err := moranStatistic(w, x)
	if err != nil {
		return nil, fmt.Errorf("permutation: %w", err)
	}

	numWorkers := cfg.Workers
	if cfg.Rounds < 100 {
		numWorkers = 1
	}

	null := make([]float64, cfg.Rounds)
	workChan := make(chan int, cfg.Rounds)
	resultChan := make(chan permRound, cfg.Rounds)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pr.permutationWorker(ctx, w, x, cfg, workChan, resultChan)
		}()
	}

	go func() {
		for i := 0; i < cfg.Rounds; i++ {
			workChan <- i
		}
		close(workChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := 0
	var firstErr error
	for res := range resultChan {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		null[res.index] = res.stat
		collected++
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if collected != cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("permutation: completed %d of %d rounds", collected, cfg.Rounds)
	}

	absObserved := math.Abs(observed)
	moreExtreme := 0
	for _, stat := range null {
		if math.Abs(stat) >= absObserved {
			moreExtreme++
		}
	}
	// +1 smoothing keeps the empirical p strictly positive
	p := float64(moreExtreme+1) / float64(cfg.Rounds+1)
	if p > 1 {
		p = 1
	}

	summary, err := summarizeNull(null)
	if err != nil {
		return nil, fmt.Errorf("permutation: null summary: %w", err)
	}

	return &stats.PermutationResult{
		ObservedI:   observed,
		PValue:      p,
		Rounds:      cfg.Rounds,
		MoreExtreme: moreExtreme,
		Seed:        cfg.Seed,
		Null:        *summary,
	}, nil
}

// permutationWorker shuffles and scores rounds pulled from the work channel.
func (pr *PermutationReferee) permutationWorker(ctx context.Context, w *Weights, x []float64, cfg PermutationConfig, workChan <-chan int, resultChan chan<- permRound) {
	shuffled := make([]float64, len(x))
	for index := range workChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stream, err := pr.rng.SeededStream(ctx, fmt.Sprintf("%s/round-%d", cfg.StreamName, index), cfg.Seed)
		if err != nil {
			resultChan <- permRound{index: index, err: err}
			continue
		}

		copy(shuffled, x)
		// Fisher-Yates shuffle
		for i := len(shuffled) - 1; i > 0; i-- {
			j := stream.Intn(i + 1)
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}

		stat, err := moranStatistic(w, shuffled)
		resultChan <- permRound{index: index, stat: stat, err: err}
	}
}

func summarizeNull(null []float64) (*stats.NullSummary, error) {
	mean, err := mstats.Mean(null)
	if err != nil {
		return nil, err
	}
	stdDev, err := mstats.StandardDeviation(null)
	if err != nil {
		return nil, err
	}
	min, err := mstats.Min(null)
	if err != nil {
		return nil, err
	}
	max, err := mstats.Max(null)
	if err != nil {
		return nil, err
	}
	p2, err := mstats.Percentile(null, 2.5)
	if err != nil {
		return nil, err
	}
	p97, err := mstats.Percentile(null, 97.5)
	if err != nil {
		return nil, err
	}
	return &stats.NullSummary{Mean: mean, StdDev: stdDev, Min: min, Max: max, P2_5: p2, P97_5: p97}, nil
}
