package app

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refugia/adapters/rng"
	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
	apperrors "refugia/internal/errors"
	"refugia/internal/testkit"
)

func service(datasets []atlas.FeatureDataset) *AnalysisService {
	return NewAnalysisService(atlas.StaticSource{Datasets: datasets}, rng.NewSeededSource())
}

// Three languages, one per refugium, each matching its rule. The canonical
// tiny scenario: baseline splits a third per region, a full-population
// sample has factor 1 everywhere, and the spatial stage is too small to run.
func threeLanguageScenario() []atlas.FeatureDataset {
	return []atlas.FeatureDataset{{
		FeatureID:   "1A",
		FeatureName: "Consonant Inventories",
		Languages: []atlas.LanguageObservation{
			{ID: "ame", Name: "Americas Lang", Latitude: 0, Longitude: -40, Value: 1},
			{ID: "cau", Name: "Caucasus Lang", Latitude: 40, Longitude: 45, Value: 1},
			{ID: "sah", Name: "Sahul Lang", Latitude: -5, Longitude: 130, Value: 1},
		},
	}}
}

func TestRunThreeLanguageScenario(t *testing.T) {
	svc := service(threeLanguageScenario())

	rep, err := svc.Run(context.Background(), AnalysisRequest{
		Rules: []atlas.FeatureRule{{FeatureID: "1A", TargetValues: []int{1}, Label: "Small Consonant Inventories (6-14)"}},
	})
	require.NoError(t, err)

	base := rep.Baseline
	assert.Equal(t, 3, base.Total)
	for _, r := range []geo.Region{geo.Americas, geo.Caucasus, geo.Sahul} {
		assert.InDelta(t, 100.0/3.0, base.Percent(r), 1e-9, "region %s", r)
	}
	assert.InDelta(t, 100.0, base.RefugiaPercent, 1e-9)

	require.Len(t, rep.Features, 1)
	f := rep.Features[0]

	// sample equals the population, so every defined factor is 1
	for _, r := range []geo.Region{geo.Americas, geo.Caucasus, geo.Sahul} {
		re := f.Enrichment.Region(r)
		require.True(t, re.Factor.Defined, "region %s", r)
		assert.InDelta(t, 1.0, re.Factor.Value, 1e-9, "region %s", r)
	}
	assert.False(t, f.Enrichment.Region(geo.Other).Factor.Defined, "Other has zero baseline share")

	// n=3 cannot form a k=5 neighborhood: feature-scoped failure, not fatal
	assert.False(t, f.SpatialOK())
	assert.Contains(t, f.SpatialFailure, "insufficient sample")
}

func TestRunBaselinePercentsSumTo100(t *testing.T) {
	svc := service(testkit.GenerateAtlas(testkit.Config{Seed: 42, LanguagesPerFeature: 80}))

	rep, err := svc.Run(context.Background(), AnalysisRequest{})
	require.NoError(t, err)

	sum := 0.0
	for _, r := range geo.AllRegions() {
		sum += rep.Baseline.Percent(r)
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestRunSyntheticAtlasDetectsPlantedSignal(t *testing.T) {
	svc := service(testkit.GenerateAtlas(testkit.Config{
		Seed: 42, LanguagesPerFeature: 150, RefugiaMatchBias: 0.85,
	}))

	rep, err := svc.Run(context.Background(), AnalysisRequest{Seed: 42, Workers: 4})
	require.NoError(t, err)
	require.Len(t, rep.Features, 6)

	for _, f := range rep.Features {
		require.True(t, f.SpatialOK(), "feature %s failed: %s", f.Rule.Label, f.SpatialFailure)
		assert.Positive(t, f.Moran.I, "feature %s should cluster", f.Rule.Label)
		assert.False(t, math.IsNaN(f.Moran.PValue))

		require.True(t, f.Enrichment.RefugiaFactor.Defined)
		assert.Greater(t, f.Enrichment.RefugiaFactor.Value, 1.0,
			"feature %s should be enriched in refugia", f.Rule.Label)
	}
}

func TestRunResultsAreDeterministicAcrossWorkerCounts(t *testing.T) {
	datasets := testkit.GenerateAtlas(testkit.Config{Seed: 42, LanguagesPerFeature: 60})

	run := func(workers int) []float64 {
		rep, err := service(datasets).Run(context.Background(), AnalysisRequest{
			Seed: 42, Workers: workers, PermutationRounds: 120,
		})
		require.NoError(t, err)
		out := make([]float64, 0, len(rep.Features)*2)
		for _, f := range rep.Features {
			require.True(t, f.SpatialOK(), f.Rule.Label)
			out = append(out, f.Moran.I)
			if f.Permutation != nil {
				out = append(out, f.Permutation.PValue)
			}
		}
		return out
	}

	assert.Equal(t, run(1), run(8))
}

func TestRunFeatureFailureDoesNotSuppressOthers(t *testing.T) {
	datasets := testkit.GenerateAtlas(testkit.Config{Seed: 42, LanguagesPerFeature: 60})
	// a chapter too small for the k-NN precondition
	datasets = append(datasets, atlas.FeatureDataset{
		FeatureID:   "9A",
		FeatureName: "Tiny Chapter",
		Languages: []atlas.LanguageObservation{
			{ID: "t1", Name: "T1", Latitude: 1, Longitude: 1, Value: 1},
			{ID: "t2", Name: "T2", Latitude: 2, Longitude: 2, Value: 2},
		},
	})

	rules := append(atlas.DefaultRules(),
		atlas.FeatureRule{FeatureID: "9A", TargetValues: []int{1}, Label: "Tiny Feature"},
		atlas.FeatureRule{FeatureID: "404A", TargetValues: []int{1}, Label: "Missing Feature"},
	)

	rep, err := service(datasets).Run(context.Background(), AnalysisRequest{Rules: rules, Seed: 42})
	require.NoError(t, err)
	require.Len(t, rep.Features, 8)

	healthy := 0
	for _, f := range rep.Features {
		switch f.Rule.Label {
		case "Tiny Feature":
			assert.False(t, f.SpatialOK())
			assert.NotNil(t, f.Enrichment, "enrichment survives a spatial failure")
		case "Missing Feature":
			assert.False(t, f.SpatialOK())
			assert.True(t, strings.Contains(f.SpatialFailure, "no dataset"))
		default:
			if f.SpatialOK() {
				healthy++
			}
		}
	}
	assert.Equal(t, 6, healthy, "all six standard features should still report")
}

func TestRunMalformedObservationsAreDroppedAndCounted(t *testing.T) {
	datasets := []atlas.FeatureDataset{{
		FeatureID:   "1A",
		FeatureName: "Consonant Inventories",
		Languages: []atlas.LanguageObservation{
			{ID: "good1", Name: "G1", Latitude: 10, Longitude: 10, Value: 1},
			{ID: "", Name: "no id", Latitude: 10, Longitude: 10, Value: 1},
			{ID: "bad-lat", Name: "B", Latitude: 95, Longitude: 10, Value: 1},
			{ID: "no-value", Name: "B", Latitude: 10, Longitude: 10, Value: 0},
			{ID: "good2", Name: "G2", Latitude: -20, Longitude: 30, Value: 2},
		},
	}}

	rep, err := service(datasets).Run(context.Background(), AnalysisRequest{
		Rules: []atlas.FeatureRule{{FeatureID: "1A", TargetValues: []int{1}, Label: "x"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.PopulationSize)
	assert.Equal(t, 3, rep.DroppedObservations)
	assert.Equal(t, 2, rep.Features[0].TotalWithData, "denominator excludes malformed records")
}

func TestRunEmptyInputIsFatal(t *testing.T) {
	svc := service([]atlas.FeatureDataset{{FeatureID: "1A", FeatureName: "Empty"}})
	_, err := svc.Run(context.Background(), AnalysisRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAnalysisFailed, apperrors.GetCode(err))
	assert.True(t, errors.Is(err, core.ErrEmptyInput), "cause must stay reachable through the envelope")
}

type failingSource struct{ err error }

func (s failingSource) Load(ctx context.Context) ([]atlas.FeatureDataset, error) {
	return nil, s.err
}

func TestRunSourceFailureCarriesIngestCode(t *testing.T) {
	cause := errors.New("1a.xml: no such file")
	svc := NewAnalysisService(failingSource{err: cause}, rng.NewSeededSource())

	_, err := svc.Run(context.Background(), AnalysisRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeIngestFailed, apperrors.GetCode(err))
	assert.True(t, errors.Is(err, cause))
}

func TestRunMetaCarriesInputFingerprint(t *testing.T) {
	first, err := service(threeLanguageScenario()).Run(context.Background(), AnalysisRequest{})
	require.NoError(t, err)
	require.False(t, first.Meta.InputFingerprint.IsEmpty())

	second, err := service(threeLanguageScenario()).Run(context.Background(), AnalysisRequest{})
	require.NoError(t, err)
	assert.True(t, first.Meta.InputFingerprint.Equals(second.Meta.InputFingerprint),
		"identical inputs must fingerprint identically")

	changed := threeLanguageScenario()
	changed[0].Languages[0].Value = 9
	third, err := service(changed).Run(context.Background(), AnalysisRequest{})
	require.NoError(t, err)
	assert.False(t, first.Meta.InputFingerprint.Equals(third.Meta.InputFingerprint),
		"a changed value must change the fingerprint")
}
