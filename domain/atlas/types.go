// Package atlas holds the typological data model: language observations
// keyed by feature, the rules that select "matching" values, and the
// deduplicated global population the baseline is computed from.
package atlas

// LanguageObservation is a single language's coding for one feature.
// Immutable once parsed; coordinates are WGS84 degrees.
type LanguageObservation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Value     int     `json:"value"`
}

// Valid reports whether the observation carries everything the analysis
// needs: a non-empty ID, a known value code, and coordinates inside the
// legal ranges. Invalid observations are dropped, never repaired.
func (o LanguageObservation) Valid() bool {
	if o.ID == "" {
		return false
	}
	if o.Value < 1 {
		return false
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return false
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return false
	}
	return true
}

// FeatureDataset is one WALS chapter: every language with a known value for
// the feature, in document order. Distinct features may code the same
// language ID independently.
type FeatureDataset struct {
	FeatureID   string                `json:"feature_id"`
	FeatureName string                `json:"feature_name"`
	ValueLabels map[int]string        `json:"value_labels,omitempty"`
	Languages   []LanguageObservation `json:"languages"`
}

// Len returns the number of observations in the dataset.
func (d FeatureDataset) Len() int { return len(d.Languages) }

// FeatureRule names one analysis: which value codes of which feature count
// as "matching".
type FeatureRule struct {
	FeatureID    string `json:"feature_id"`
	TargetValues []int  `json:"target_values"`
	Label        string `json:"label"`
}

// Matches reports whether a value code is one of the rule's targets.
func (r FeatureRule) Matches(value int) bool {
	for _, v := range r.TargetValues {
		if v == value {
			return true
		}
	}
	return false
}

// Filter returns the subset of a dataset matching the rule, preserving
// dataset order.
func (r FeatureRule) Filter(d FeatureDataset) []LanguageObservation {
	var out []LanguageObservation
	for _, obs := range d.Languages {
		if r.Matches(obs.Value) {
			out = append(out, obs)
		}
	}
	return out
}

// Indicator builds the binary vector Moran's I is computed over: one entry
// per language in the feature's full known-value dataset, 1 where the value
// matches the rule. Spatial structure is tested over all coded languages,
// not just the matching subset.
func (r FeatureRule) Indicator(d FeatureDataset) []float64 {
	x := make([]float64, len(d.Languages))
	for i, obs := range d.Languages {
		if r.Matches(obs.Value) {
			x[i] = 1
		}
	}
	return x
}
