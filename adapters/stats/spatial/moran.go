package spatial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"refugia/domain/core"
	"refugia/domain/stats"
)

// minMoranSample is the chosen sample floor for the analytic test. The
// randomization variance denominator (n-1)(n-2)(n-3)S0^2 vanishes at n = 3,
// so the statistic is undefined below four observations.
const minMoranSample = 4

// moranStatistic computes the raw Moran's I for an indicator vector over a
// weight matrix. Shared by the analytic test and the permutation referee,
// which recomputes only this statistic per shuffle.
func moranStatistic(w *Weights, x []float64) (float64, error) {
	n := w.N()
	if len(x) != n {
		return 0, fmt.Errorf("moran: %w: %d weight rows vs %d values", core.ErrDimensionMismatch, n, len(x))
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, v := range x {
		d := v - mean
		sumSq += d * d
	}
	if sumSq == 0 {
		return 0, fmt.Errorf("moran: %w", core.ErrConstantIndicator)
	}

	numerator := 0.0
	s0 := 0.0
	for i := 0; i < n; i++ {
		di := x[i] - mean
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			wij := w.Matrix[i][j]
			if wij == 0 {
				continue
			}
			numerator += wij * di * (x[j] - mean)
			s0 += wij
		}
	}
	if s0 == 0 {
		return 0, fmt.Errorf("moran: weight matrix has zero total weight")
	}

	return (float64(n) / s0) * (numerator / sumSq), nil
}

// MoransI computes the spatial autocorrelation statistic, its expectation
// and variance under the randomization assumption, and a two-tailed normal
// p-value.
//
// The indicator x has one entry per weight matrix row: match/no-match
// labels over the feature's full known-value dataset. Degenerate inputs
// fail with named errors: fewer than minMoranSample observations or a
// nonpositive randomization variance with InsufficientSample, a zero-
// variance indicator with ConstantIndicator. No NaN or Inf ever escapes.
func MoransI(w *Weights, x []float64) (*stats.MoranResult, error) {
	n := w.N()
	if len(x) != n {
		return nil, fmt.Errorf("moran: %w: %d weight rows vs %d values", core.ErrDimensionMismatch, n, len(x))
	}
	if n < minMoranSample {
		return nil, fmt.Errorf("moran: %w", core.NewInsufficientSampleError(n, minMoranSample))
	}

	observed, err := moranStatistic(w, x)
	if err != nil {
		return nil, err
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	sumSq := 0.0
	sumQuad := 0.0
	for _, v := range x {
		d := v - mean
		sumSq += d * d
		sumQuad += d * d * d * d
	}

	s0 := w.S0()
	rowSums := w.RowSums()
	colSums := w.ColSums()

	s1 := 0.0
	s2 := 0.0
	for i := 0; i < n; i++ {
		pair := rowSums[i] + colSums[i]
		s2 += pair * pair
		for j := 0; j < n; j++ {
			cross := w.Matrix[i][j] + w.Matrix[j][i]
			s1 += cross * cross
		}
	}
	s1 /= 2

	nf := float64(n)
	expected := -1.0 / (nf - 1)
	b2 := nf * sumQuad / (sumSq * sumSq)

	a := nf * ((nf*nf-3*nf+3)*s1 - nf*s2 + 3*s0*s0)
	b := b2 * ((nf*nf-nf)*s1 - 2*nf*s2 + 6*s0*s0)
	c := (nf - 1) * (nf - 2) * (nf - 3) * s0 * s0

	variance := (a-b)/c - expected*expected
	if variance <= 0 {
		return nil, fmt.Errorf("moran: randomization variance %g not positive: %w",
			variance, core.NewInsufficientSampleError(n, minMoranSample))
	}

	z := (observed - expected) / math.Sqrt(variance)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}

	return &stats.MoranResult{
		I:         observed,
		ExpectedI: expected,
		Variance:  variance,
		ZScore:    z,
		PValue:    p,
		N:         n,
		K:         w.K,
	}, nil
}
