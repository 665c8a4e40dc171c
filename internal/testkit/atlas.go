// Package testkit generates deterministic synthetic atlases: feature
// datasets with controlled regional clustering, plus small geometric
// fixtures for the spatial engine. Everything is seeded, so tests and the
// demo pipeline reproduce exactly.
package testkit

import (
	"fmt"
	"math/rand"

	"refugia/adapters/stats/spatial"
	"refugia/domain/atlas"
	"refugia/domain/core"
)

// Config controls synthetic atlas generation.
type Config struct {
	Seed int64
	// LanguagesPerFeature is the number of languages coded per feature.
	LanguagesPerFeature int
	// RefugiaMatchBias is the probability that a refugium language carries
	// a matching value; non-refugium languages match at 1 - bias. Values
	// above 0.5 plant the clustered signal the analysis should detect.
	RefugiaMatchBias float64
}

// DefaultConfig returns the standard demo settings.
func DefaultConfig() Config {
	return Config{Seed: 42, LanguagesPerFeature: 120, RefugiaMatchBias: 0.75}
}

// anchor regions for synthetic coordinates; jitter stays well inside each
// region's classification predicate.
var anchors = []struct {
	name     string
	lat, lon float64
	refugium bool
}{
	{"amazonia", -5, -65, true},
	{"andes", -15, -72, true},
	{"sahul", -20, 135, true},
	{"new-guinea", -6, 145, true},
	{"caucasus", 42, 44, true},
	{"west-africa", 8, 0, false},
	{"south-asia", 22, 80, false},
	{"east-asia", 35, 105, false},
	{"europe", 50, 15, false},
}

// GenerateAtlas builds synthetic datasets for the default six-rule registry:
// chapters 1A, 2A, 18A, and 131A with value codes drawn so that refugium
// languages carry matching values at the configured bias. The same language
// IDs recur across chapters, exercising population deduplication.
func GenerateAtlas(cfg Config) []atlas.FeatureDataset {
	if cfg.LanguagesPerFeature <= 0 {
		cfg.LanguagesPerFeature = 120
	}
	if cfg.RefugiaMatchBias <= 0 {
		cfg.RefugiaMatchBias = 0.75
	}

	chapters := []struct {
		id, name    string
		matchValues []int
		otherValues []int
	}{
		{"1A", "Consonant Inventories", []int{1}, []int{2, 3, 4, 5}},
		{"2A", "Vowel Quality Inventories", []int{1}, []int{2, 3}},
		{"18A", "Absence of Common Consonants", []int{2, 3, 4, 5, 6}, []int{1}},
		{"131A", "Numeral Bases", []int{6}, []int{1, 2, 3, 4}},
	}

	datasets := make([]atlas.FeatureDataset, 0, len(chapters))
	for _, ch := range chapters {
		rng := rand.New(rand.NewSource(core.DeriveSeed("testkit/"+ch.id, cfg.Seed)))
		ds := atlas.FeatureDataset{FeatureID: ch.id, FeatureName: ch.name}

		for i := 0; i < cfg.LanguagesPerFeature; i++ {
			anchorIdx := i % len(anchors)
			a := anchors[anchorIdx]
			lat := a.lat + (rng.Float64()-0.5)*4
			lon := a.lon + (rng.Float64()-0.5)*4

			match := rng.Float64() < cfg.RefugiaMatchBias
			if !a.refugium {
				match = !match
			}
			var value int
			if match {
				// one matching value per anchor, so each specific code
				// clusters geographically instead of scattering across
				// every refugium
				value = ch.matchValues[anchorIdx%len(ch.matchValues)]
			} else {
				value = ch.otherValues[rng.Intn(len(ch.otherValues))]
			}

			ds.Languages = append(ds.Languages, atlas.LanguageObservation{
				ID:        fmt.Sprintf("syn-%03d", i),
				Name:      fmt.Sprintf("Synthetic %s %d", a.name, i),
				Latitude:  lat,
				Longitude: lon,
				Value:     value,
			})
		}
		datasets = append(datasets, ds)
	}
	return datasets
}

// CheckerboardGrid returns a small regular grid of points with perfectly
// alternating 0/1 indicator values. Moran's I over it must come out
// negative: neighbors always disagree.
func CheckerboardGrid(rows, cols int) ([]spatial.Point, []float64) {
	points := make([]spatial.Point, 0, rows*cols)
	x := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, spatial.Point{Lat: float64(r), Lon: float64(c)})
			x = append(x, float64((r+c)%2))
		}
	}
	return points, x
}

// ClusteredField returns two well-separated point bands where every "1" sits
// in the first band and every "0" in the second. Moran's I over it must come
// out positive: neighbors always agree.
func ClusteredField(perBand int) ([]spatial.Point, []float64) {
	points := make([]spatial.Point, 0, 2*perBand)
	x := make([]float64, 0, 2*perBand)
	for i := 0; i < perBand; i++ {
		points = append(points, spatial.Point{Lat: 10 + float64(i)*0.1, Lon: 10})
		x = append(x, 1)
	}
	for i := 0; i < perBand; i++ {
		points = append(points, spatial.Point{Lat: -40 + float64(i)*0.1, Lon: -60})
		x = append(x, 0)
	}
	return points, x
}
