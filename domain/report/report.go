// Package report collates baseline, enrichment, and spatial results into a
// single structured report. Collation is pure: every numeric field keeps its
// full float64 precision, and rounding happens only in the renderers that
// consume the report.
package report

import (
	"sort"
	"time"

	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
	"refugia/domain/stats"
)

// RunMeta identifies one analysis invocation and the parameters that shaped
// it, so any number in the report can be reproduced.
type RunMeta struct {
	RunID             core.RunID `json:"run_id"`
	GeneratedAt       time.Time  `json:"generated_at"`
	Seed              int64      `json:"seed"`
	Neighbors         int        `json:"neighbors"`
	PermutationRounds int        `json:"permutation_rounds"` // 0 when the referee is disabled
	InputFingerprint  core.Hash  `json:"input_fingerprint"`  // digest of the sanitized input datasets
}

// ChapterBaseline is the region distribution of a single feature dataset,
// reported alongside the global baseline for context.
type ChapterBaseline struct {
	FeatureID   string          `json:"feature_id"`
	FeatureName string          `json:"feature_name"`
	Baseline    *stats.Baseline `json:"baseline"`
}

// TargetLanguage is one matching language in a feature sample, annotated
// with its computed region for the per-feature listing.
type TargetLanguage struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Region geo.Region `json:"region"`
}

// FeatureResult is the complete outcome of one named analysis. Enrichment is
// always present; the spatial block is either a result or a failure marker,
// never both. One feature's failure must not suppress any other feature.
type FeatureResult struct {
	Rule            atlas.FeatureRule        `json:"rule"`
	FeatureName     string                   `json:"feature_name"`
	TotalWithData   int                      `json:"total_with_data"`
	MatchCount      int                      `json:"match_count"`
	MatchPercent    float64                  `json:"match_percent"`
	Enrichment      *stats.Enrichment        `json:"enrichment"`
	Moran           *stats.MoranResult       `json:"moran,omitempty"`
	Permutation     *stats.PermutationResult `json:"permutation,omitempty"`
	SpatialFailure  string                   `json:"spatial_failure,omitempty"`
	TargetLanguages []TargetLanguage         `json:"target_languages,omitempty"`
}

// SpatialOK reports whether the spatial test produced a result.
func (f FeatureResult) SpatialOK() bool {
	return f.SpatialFailure == "" && f.Moran != nil
}

// Report is the assembled output of one run.
type Report struct {
	Meta                RunMeta           `json:"meta"`
	PopulationSize      int               `json:"population_size"`
	DroppedObservations int               `json:"dropped_observations"`
	Baseline            *stats.Baseline   `json:"baseline"`
	Chapters            []ChapterBaseline `json:"chapters"`
	Features            []FeatureResult   `json:"features"`
}

// Assemble collates the pieces of a finished run. Feature order is preserved
// as given (registry order); chapter baselines are sorted by feature ID; each
// feature's target language listing is sorted by name. No I/O, no rounding.
func Assemble(meta RunMeta, pop *atlas.Population, base *stats.Baseline, chapters []ChapterBaseline, features []FeatureResult) *Report {
	sorted := make([]ChapterBaseline, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FeatureID < sorted[j].FeatureID
	})

	collated := make([]FeatureResult, len(features))
	copy(collated, features)
	for i := range collated {
		langs := collated[i].TargetLanguages
		sort.SliceStable(langs, func(a, b int) bool {
			return langs[a].Name < langs[b].Name
		})
	}

	return &Report{
		Meta:                meta,
		PopulationSize:      pop.Size(),
		DroppedObservations: pop.Dropped,
		Baseline:            base,
		Chapters:            sorted,
		Features:            collated,
	}
}

// FeaturesByEnrichment returns the features sorted ascending by aggregate
// refugia enrichment factor. Features whose factor is undefined sort last;
// the sort is stable so equal factors keep registry order.
func (r *Report) FeaturesByEnrichment() []FeatureResult {
	return r.sortedFeatures(false)
}

// FeaturesByEnrichmentDesc returns the features sorted descending by
// aggregate refugia enrichment factor, undefined factors last.
func (r *Report) FeaturesByEnrichmentDesc() []FeatureResult {
	return r.sortedFeatures(true)
}

func (r *Report) sortedFeatures(desc bool) []FeatureResult {
	out := make([]FeatureResult, len(r.Features))
	copy(out, r.Features)
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i].Enrichment.RefugiaFactor, out[j].Enrichment.RefugiaFactor
		if fi.Defined != fj.Defined {
			return fi.Defined
		}
		if !fi.Defined {
			return false
		}
		if desc {
			return fi.Value > fj.Value
		}
		return fi.Value < fj.Value
	})
	return out
}
