package spatial

import (
	"fmt"
	"sort"

	"refugia/domain/core"
)

// WeightScheme selects how raw neighbor weights are assigned before row
// standardization.
type WeightScheme string

const (
	// SchemeInverseDistance weights each neighbor by 1/distance.
	SchemeInverseDistance WeightScheme = "inverse_distance"
	// SchemeBinary weights each neighbor equally.
	SchemeBinary WeightScheme = "binary"
)

// WeightsConfig holds configuration for building a weight matrix.
type WeightsConfig struct {
	K      int          // nearest neighbors per point
	Scheme WeightScheme // raw weight assignment
}

// DefaultWeightsConfig returns the standard configuration: five inverse-
// distance neighbors.
func DefaultWeightsConfig() WeightsConfig {
	return WeightsConfig{K: 5, Scheme: SchemeInverseDistance}
}

// Weights is a row-standardized spatial weight matrix. Rows sum to 1; the
// matrix is generally asymmetric, since i may consider j a neighbor without
// j reciprocating.
type Weights struct {
	Matrix [][]float64
	K      int
}

// N returns the number of points the matrix was built over.
func (w *Weights) N() int { return len(w.Matrix) }

// RowSums returns the per-row weight totals.
func (w *Weights) RowSums() []float64 {
	sums := make([]float64, len(w.Matrix))
	for i, row := range w.Matrix {
		for _, v := range row {
			sums[i] += v
		}
	}
	return sums
}

// ColSums returns the per-column weight totals.
func (w *Weights) ColSums() []float64 {
	sums := make([]float64, len(w.Matrix))
	for _, row := range w.Matrix {
		for j, v := range row {
			sums[j] += v
		}
	}
	return sums
}

// S0 returns the sum of all weights. For a row-standardized matrix this
// equals n, but callers compute it rather than assume it.
func (w *Weights) S0() float64 {
	total := 0.0
	for _, row := range w.Matrix {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// BuildWeights computes a k-nearest-neighbor spatial weight matrix over the
// given points.
//
// For each point the k nearest other points by great-circle distance become
// its neighbors; distance ties at the k-th position are broken by lower
// original index, so the result is reproducible for a fixed input order.
// Under the inverse-distance scheme a zero distance to a selected neighbor
// fails with DegenerateGeometry rather than dividing by zero. Rows are
// divided by their sums, so every row of the result sums to 1.
//
// Precondition: n > k, else the neighborhood cannot be formed and the build
// fails with InsufficientSample. O(n^2) distance evaluation, acceptable at
// atlas scale.
func BuildWeights(points []Point, cfg WeightsConfig) (*Weights, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("weights: neighbor count must be positive, got %d", cfg.K)
	}
	switch cfg.Scheme {
	case SchemeInverseDistance, SchemeBinary:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownWeightScheme, cfg.Scheme)
	}

	n := len(points)
	if n <= cfg.K {
		return nil, fmt.Errorf("weights: %w", core.NewInsufficientSampleError(n, cfg.K+1))
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	type candidate struct {
		index int
		dist  float64
	}

	for i := 0; i < n; i++ {
		candidates := make([]candidate, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			candidates = append(candidates, candidate{index: j, dist: points[i].DistanceTo(points[j])})
		}

		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].dist != candidates[b].dist {
				return candidates[a].dist < candidates[b].dist
			}
			return candidates[a].index < candidates[b].index
		})

		for _, nb := range candidates[:cfg.K] {
			switch cfg.Scheme {
			case SchemeInverseDistance:
				if nb.dist == 0 {
					return nil, fmt.Errorf("weights: %w", core.NewDegenerateGeometryError(i, nb.index))
				}
				matrix[i][nb.index] = 1.0 / nb.dist
			case SchemeBinary:
				matrix[i][nb.index] = 1.0
			}
		}
	}

	// Row-standardize. Row sums are strictly positive: every row has k
	// neighbors with positive raw weight.
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			rowSum += matrix[i][j]
		}
		for j := 0; j < n; j++ {
			matrix[i][j] /= rowSum
		}
	}

	return &Weights{Matrix: matrix, K: cfg.K}, nil
}
