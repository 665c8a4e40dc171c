package atlas

import (
	"context"
	"fmt"
	"strings"

	"refugia/domain/core"
)

// Population is the deduplicated union of every feature dataset's languages.
// It is derived once per run and read-only afterward; baseline region
// percentages are computed over it.
type Population struct {
	// Languages in first-seen order under the caller's dataset order.
	Languages []LanguageObservation
	// Dropped counts observations rejected as malformed during the build.
	Dropped int

	index map[string]int
}

// Size returns the number of unique languages.
func (p *Population) Size() int { return len(p.Languages) }

// Lookup returns the authoritative observation for a language ID.
func (p *Population) Lookup(id string) (LanguageObservation, bool) {
	i, ok := p.index[id]
	if !ok {
		return LanguageObservation{}, false
	}
	return p.Languages[i], true
}

// BuildPopulation deduplicates the given datasets into a global population.
//
// Datasets are visited in slice order and observations in sequence order, so
// the result is deterministic for a fixed input order. The first occurrence
// of a language ID wins; its coordinates are authoritative for all later
// region classification of that ID, even if another feature codes the same
// language at different coordinates. Malformed observations are dropped and
// counted, never fatal. An input with no valid observation at all fails with
// ErrEmptyInput.
func BuildPopulation(datasets []FeatureDataset) (*Population, error) {
	pop := &Population{index: make(map[string]int)}

	for _, ds := range datasets {
		for _, obs := range ds.Languages {
			if !obs.Valid() {
				pop.Dropped++
				continue
			}
			if _, seen := pop.index[obs.ID]; seen {
				continue
			}
			pop.index[obs.ID] = len(pop.Languages)
			pop.Languages = append(pop.Languages, obs)
		}
	}

	if len(pop.Languages) == 0 {
		return nil, fmt.Errorf("%w: no valid observations across %d datasets", core.ErrEmptyInput, len(datasets))
	}
	return pop, nil
}

// Sanitized returns a copy of the dataset with malformed observations
// removed, plus the number dropped. Per-feature denominators must never
// include records that could not be placed on the map.
func (d FeatureDataset) Sanitized() (FeatureDataset, int) {
	clean := FeatureDataset{
		FeatureID:   d.FeatureID,
		FeatureName: d.FeatureName,
		ValueLabels: d.ValueLabels,
	}
	dropped := 0
	for _, obs := range d.Languages {
		if !obs.Valid() {
			dropped++
			continue
		}
		clean.Languages = append(clean.Languages, obs)
	}
	return clean, dropped
}

// Fingerprint digests the datasets in order: feature IDs, then each
// observation's ID, value and coordinates. Two runs over byte-identical
// inputs carry the same fingerprint in their report metadata, so results
// can be matched back to the exact data that produced them.
func Fingerprint(datasets []FeatureDataset) core.Hash {
	var b strings.Builder
	for _, ds := range datasets {
		b.WriteString(ds.FeatureID)
		b.WriteByte('\n')
		for _, obs := range ds.Languages {
			fmt.Fprintf(&b, "%s=%d@%g,%g;", obs.ID, obs.Value, obs.Latitude, obs.Longitude)
		}
		b.WriteByte('\n')
	}
	return core.NewHash([]byte(b.String()))
}

// StaticSource is an in-memory feature source. It backs tests and the demo
// pipeline; file-based collaborators live in the adapters.
type StaticSource struct {
	Datasets []FeatureDataset
}

// Load returns the wrapped datasets unchanged.
func (s StaticSource) Load(ctx context.Context) ([]FeatureDataset, error) {
	if len(s.Datasets) == 0 {
		return nil, core.ErrNoFeatureData
	}
	return s.Datasets, nil
}
