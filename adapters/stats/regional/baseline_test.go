package regional

import (
	"math"
	"testing"

	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
)

const tol = 1e-9

func obs(id string, lat, lon float64) atlas.LanguageObservation {
	return atlas.LanguageObservation{ID: id, Name: id, Latitude: lat, Longitude: lon, Value: 1}
}

func mustPopulation(t *testing.T, languages ...atlas.LanguageObservation) *atlas.Population {
	t.Helper()
	pop, err := atlas.BuildPopulation([]atlas.FeatureDataset{{FeatureID: "1A", Languages: languages}})
	if err != nil {
		t.Fatalf("BuildPopulation failed: %v", err)
	}
	return pop
}

// TestComputeBaselineCounts tests region counting over a crafted population
func TestComputeBaselineCounts(t *testing.T) {
	pop := mustPopulation(t,
		obs("am1", 0, -40),   // Americas
		obs("am2", 10, -75),  // Americas
		obs("sa1", -5, 130),  // Sahul
		obs("ca1", 40, 45),   // Caucasus
		obs("ot1", 48, 10),   // Other
		obs("ot2", -5, 120),  // Wallacea band, excluded from Sahul
	)

	base, err := ComputeBaseline(pop)
	if err != nil {
		t.Fatalf("ComputeBaseline failed: %v", err)
	}

	if base.Total != 6 {
		t.Fatalf("Expected total 6, got %d", base.Total)
	}
	if base.Count(geo.Americas) != 2 {
		t.Errorf("Americas count = %d, expected 2", base.Count(geo.Americas))
	}
	if base.Count(geo.Sahul) != 1 {
		t.Errorf("Sahul count = %d, expected 1", base.Count(geo.Sahul))
	}
	if base.Count(geo.Caucasus) != 1 {
		t.Errorf("Caucasus count = %d, expected 1", base.Count(geo.Caucasus))
	}
	if base.Count(geo.Other) != 2 {
		t.Errorf("Other count = %d, expected 2", base.Count(geo.Other))
	}

	if base.RefugiaCount != 4 {
		t.Errorf("Refugia count = %d, expected 4", base.RefugiaCount)
	}
	wantRefPct := 100.0 * 4 / 6
	if math.Abs(base.RefugiaPercent-wantRefPct) > tol {
		t.Errorf("Refugia percent = %v, expected %v", base.RefugiaPercent, wantRefPct)
	}
	if math.Abs(base.RefugiaPercent+base.NonRefugiaPercent-100) > tol {
		t.Errorf("Refugia and non-refugia percentages do not sum to 100")
	}
}

// TestBaselinePercentagesSumTo100 tests the closure property for any
// non-empty population
func TestBaselinePercentagesSumTo100(t *testing.T) {
	populations := []*atlas.Population{
		mustPopulation(t, obs("a", 0, -40)),
		mustPopulation(t, obs("a", 0, -40), obs("b", 40, 45), obs("c", -5, 130)),
		mustPopulation(t,
			obs("a", 12, -80), obs("b", -30, 150), obs("c", 41, 44),
			obs("d", 60, 100), obs("e", 0, 0), obs("f", -5, 118), obs("g", 2, 140),
		),
	}

	for i, pop := range populations {
		base, err := ComputeBaseline(pop)
		if err != nil {
			t.Fatalf("Population %d: %v", i, err)
		}
		sum := 0.0
		for _, r := range geo.AllRegions() {
			sum += base.Percent(r)
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("Population %d: percentages sum to %v, expected 100", i, sum)
		}
	}
}

// TestComputeBaselineEmptyInput tests the EmptyInput failure mode
func TestComputeBaselineEmptyInput(t *testing.T) {
	_, err := ComputeBaseline(nil)
	if !core.IsEmptyInput(err) {
		t.Errorf("Expected EmptyInput for nil population, got %v", err)
	}

	_, err = ComputeBaseline(&atlas.Population{})
	if !core.IsEmptyInput(err) {
		t.Errorf("Expected EmptyInput for empty population, got %v", err)
	}
}

// TestComputeChapterBaseline tests the per-feature appendix baseline
func TestComputeChapterBaseline(t *testing.T) {
	ds := atlas.FeatureDataset{
		FeatureID: "2A",
		Languages: []atlas.LanguageObservation{obs("a", 0, -40), obs("b", 48, 10)},
	}
	base, err := ComputeChapterBaseline(ds)
	if err != nil {
		t.Fatalf("ComputeChapterBaseline failed: %v", err)
	}
	if base.Total != 2 {
		t.Errorf("Expected total 2, got %d", base.Total)
	}
	if math.Abs(base.RefugiaPercent-50) > tol {
		t.Errorf("Refugia percent = %v, expected 50", base.RefugiaPercent)
	}

	_, err = ComputeChapterBaseline(atlas.FeatureDataset{FeatureID: "2A"})
	if !core.IsEmptyInput(err) {
		t.Errorf("Expected EmptyInput for empty chapter, got %v", err)
	}
}
