package regional

import (
	"refugia/domain/atlas"
	"refugia/domain/geo"
	"refugia/domain/stats"
)

// ComputeEnrichment compares a feature-matching sample's region distribution
// against a baseline. Never fails: an empty sample yields zero counts, zero
// percentages, and undefined factors. A factor is defined only when the
// baseline share of its region is positive, so no division by zero can leak
// an Infinity into a report.
func ComputeEnrichment(sample []atlas.LanguageObservation, base *stats.Baseline) *stats.Enrichment {
	counts := make(map[geo.Region]int, 4)
	for _, o := range sample {
		counts[geo.Classify(o.Latitude, o.Longitude)]++
	}

	total := len(sample)
	e := &stats.Enrichment{
		SampleSize: total,
		Regions:    make(map[geo.Region]stats.RegionEnrichment, 4),
	}

	for _, r := range geo.AllRegions() {
		count := counts[r]
		percent := 0.0
		if total > 0 {
			percent = 100 * float64(count) / float64(total)
		}
		factor := stats.UndefinedFactor()
		if total > 0 && base.Percent(r) > 0 {
			factor = stats.DefinedFactor(percent / base.Percent(r))
		}
		e.Regions[r] = stats.RegionEnrichment{Count: count, Percent: percent, Factor: factor}
		if r.IsRefugium() {
			e.RefugiaCount += count
		}
	}

	if total > 0 {
		e.RefugiaPercent = 100 * float64(e.RefugiaCount) / float64(total)
		e.NonRefugiaPercent = 100 - e.RefugiaPercent
		if base.RefugiaPercent > 0 {
			e.RefugiaFactor = stats.DefinedFactor(e.RefugiaPercent / base.RefugiaPercent)
		}
	}
	return e
}
