// Package regional computes the non-spatial half of the analysis: region
// membership baselines over a language population and the enrichment of
// feature samples against those baselines.
package regional

import (
	"fmt"

	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
	"refugia/domain/stats"
)

// ComputeBaseline computes the region distribution of the deduplicated
// global population. Fails with EmptyInput on an empty population; with any
// language at all, every region percentage is well defined (zero-language
// regions legally report 0%).
func ComputeBaseline(pop *atlas.Population) (*stats.Baseline, error) {
	if pop == nil || pop.Size() == 0 {
		return nil, fmt.Errorf("baseline: %w", core.ErrEmptyInput)
	}
	return fromObservations(pop.Languages), nil
}

// ComputeChapterBaseline computes the same distribution over a single
// feature dataset, for the per-chapter appendix of the report.
func ComputeChapterBaseline(ds atlas.FeatureDataset) (*stats.Baseline, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("chapter %s baseline: %w", ds.FeatureID, core.ErrEmptyInput)
	}
	return fromObservations(ds.Languages), nil
}

func fromObservations(obs []atlas.LanguageObservation) *stats.Baseline {
	counts := make(map[geo.Region]int, 4)
	for _, r := range geo.AllRegions() {
		counts[r] = 0
	}
	for _, o := range obs {
		counts[geo.Classify(o.Latitude, o.Longitude)]++
	}

	total := len(obs)
	b := &stats.Baseline{
		Total:    total,
		Counts:   counts,
		Percents: make(map[geo.Region]float64, 4),
	}
	for _, r := range geo.AllRegions() {
		b.Percents[r] = 100 * float64(counts[r]) / float64(total)
		if r.IsRefugium() {
			b.RefugiaCount += counts[r]
		}
	}
	b.RefugiaPercent = 100 * float64(b.RefugiaCount) / float64(total)
	b.NonRefugiaPercent = 100 - b.RefugiaPercent
	return b
}
