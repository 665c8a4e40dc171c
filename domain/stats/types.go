// Package stats defines the statistical result types produced by the
// analysis engines. Types here are pure values: computed once, read-only
// afterward, and safe to hand to any report consumer at full precision.
package stats

import (
	"refugia/domain/geo"
)

// ============================================================================
// BASELINE
// ============================================================================

// Baseline is the region distribution of a language population.
// INVARIANTS:
// - Total > 0 (an empty population is rejected before a Baseline exists)
// - Percents over AllRegions sum to 100 within floating rounding
// - RefugiaPercent + NonRefugiaPercent = 100 within floating rounding
type Baseline struct {
	Total             int                    `json:"total"`
	Counts            map[geo.Region]int     `json:"counts"`
	Percents          map[geo.Region]float64 `json:"percents"`
	RefugiaCount      int                    `json:"refugia_count"`
	RefugiaPercent    float64                `json:"refugia_percent"`
	NonRefugiaPercent float64                `json:"non_refugia_percent"`
}

// Count returns the number of languages classified into the region.
func (b *Baseline) Count(r geo.Region) int { return b.Counts[r] }

// Percent returns the region's share of the population, 0-100.
func (b *Baseline) Percent(r geo.Region) float64 { return b.Percents[r] }

// ============================================================================
// ENRICHMENT
// ============================================================================

// Factor is an enrichment ratio that may be undefined when the baseline
// share of a region is zero. Undefined factors render as "n/a"; they are
// never Infinity or NaN.
type Factor struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// DefinedFactor wraps a computed ratio.
func DefinedFactor(v float64) Factor { return Factor{Value: v, Defined: true} }

// UndefinedFactor marks a ratio with no defined baseline denominator.
func UndefinedFactor() Factor { return Factor{} }

// RegionEnrichment is one region's share of a feature sample compared
// against the baseline.
type RegionEnrichment struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Factor  Factor  `json:"factor"`
}

// Enrichment compares a feature-matching sample's region distribution
// against a baseline. An empty sample is legal: all counts and percentages
// are zero and every factor is undefined.
type Enrichment struct {
	SampleSize        int                             `json:"sample_size"`
	Regions           map[geo.Region]RegionEnrichment `json:"regions"`
	RefugiaCount      int                             `json:"refugia_count"`
	RefugiaPercent    float64                         `json:"refugia_percent"`
	NonRefugiaPercent float64                         `json:"non_refugia_percent"`
	RefugiaFactor     Factor                          `json:"refugia_factor"`
}

// Region returns the enrichment entry for a region.
func (e *Enrichment) Region(r geo.Region) RegionEnrichment { return e.Regions[r] }

// ============================================================================
// SPATIAL AUTOCORRELATION
// ============================================================================

// MoranResult is the analytic Moran's I test under the randomization
// assumption.
// INVARIANTS:
// - N >= 4 (below that the randomization variance is undefined; the engine
//   rejects smaller samples with InsufficientSample)
// - Variance > 0, PValue in [0, 1]; NaN and Inf never appear here
type MoranResult struct {
	I         float64 `json:"i"`
	ExpectedI float64 `json:"expected_i"`
	Variance  float64 `json:"variance"`
	ZScore    float64 `json:"z_score"`
	PValue    float64 `json:"p_value"`
	N         int     `json:"n"`
	K         int     `json:"k"`
}

// NullSummary describes the permutation null distribution of Moran's I.
type NullSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P2_5   float64 `json:"p2_5"`
	P97_5  float64 `json:"p97_5"`
}

// PermutationResult is the empirical significance estimate for an observed
// Moran's I: values are shuffled across locations, the statistic recomputed,
// and the p-value taken as the smoothed share of permutations at least as
// extreme as the observation.
type PermutationResult struct {
	ObservedI   float64     `json:"observed_i"`
	PValue      float64     `json:"p_value"`
	Rounds      int         `json:"rounds"`
	MoreExtreme int         `json:"more_extreme"`
	Seed        int64       `json:"seed"`
	Null        NullSummary `json:"null"`
}
