package render

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
	"refugia/domain/report"
	"refugia/domain/stats"
)

func fixtureReport(t *testing.T) *report.Report {
	t.Helper()

	base := &stats.Baseline{
		Total: 100,
		Counts: map[geo.Region]int{
			geo.Americas: 30, geo.Sahul: 10, geo.Caucasus: 5, geo.Other: 55,
		},
		Percents: map[geo.Region]float64{
			geo.Americas: 30, geo.Sahul: 10, geo.Caucasus: 5, geo.Other: 55,
		},
		RefugiaCount:      45,
		RefugiaPercent:    45,
		NonRefugiaPercent: 55,
	}

	enrich := &stats.Enrichment{
		SampleSize: 20,
		Regions: map[geo.Region]stats.RegionEnrichment{
			geo.Americas: {Count: 12, Percent: 60, Factor: stats.DefinedFactor(2)},
			geo.Sahul:    {Count: 4, Percent: 20, Factor: stats.DefinedFactor(2)},
			geo.Caucasus: {Count: 0, Percent: 0, Factor: stats.DefinedFactor(0)},
			geo.Other:    {Count: 4, Percent: 20, Factor: stats.DefinedFactor(20.0 / 55.0)},
		},
		RefugiaCount:      16,
		RefugiaPercent:    80,
		NonRefugiaPercent: 20,
		RefugiaFactor:     stats.DefinedFactor(80.0 / 45.0),
	}

	ok := report.FeatureResult{
		Rule:          atlas.FeatureRule{FeatureID: "18A", TargetValues: []int{4, 5, 6}, Label: "Absence of Nasals"},
		FeatureName:   "Absence of Common Consonants",
		TotalWithData: 60,
		MatchCount:    20,
		MatchPercent:  100 * 20.0 / 60.0,
		Enrichment:    enrich,
		Moran: &stats.MoranResult{
			I: 0.3121, ExpectedI: -1.0 / 59.0, Variance: 0.004,
			ZScore: 5.21, PValue: 0.0000002, N: 60, K: 5,
		},
	}

	failed := report.FeatureResult{
		Rule:           atlas.FeatureRule{FeatureID: "131A", TargetValues: []int{6}, Label: "Restricted Numeral Systems"},
		FeatureName:    "Numeral Bases",
		TotalWithData:  3,
		MatchCount:     1,
		MatchPercent:   100.0 / 3,
		Enrichment:     &stats.Enrichment{SampleSize: 1, Regions: map[geo.Region]stats.RegionEnrichment{}},
		SpatialFailure: "insufficient sample for analysis: n=3, minimum=6",
	}

	meta := report.RunMeta{
		RunID:            core.NewRunID(),
		GeneratedAt:      time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Seed:             42,
		Neighbors:        5,
		InputFingerprint: core.NewHash([]byte("fixture")),
	}

	pop := &atlas.Population{Languages: make([]atlas.LanguageObservation, 100)}
	chapters := []report.ChapterBaseline{
		{FeatureID: "18A", FeatureName: "Absence of Common Consonants", Baseline: base},
	}
	return report.Assemble(meta, pop, base, chapters, []report.FeatureResult{ok, failed})
}

func TestTextSinkRendersTables(t *testing.T) {
	var sb strings.Builder
	sink := NewTextSink(&sb)

	require.NoError(t, sink.Write(context.Background(), fixtureReport(t)))
	out := sb.String()

	assert.Contains(t, out, "REFUGIA LINGUISTIC ANALYSIS")
	assert.Contains(t, out, "Input fingerprint: "+string(core.NewHash([]byte("fixture")))[:12])
	assert.Contains(t, out, "TABLE 1: Summary Statistics for All Features")
	assert.Contains(t, out, "DETAILED REGIONAL BREAKDOWN")
	assert.Contains(t, out, "Absence of Nasals")
	assert.Contains(t, out, "1.78x") // 80/45 refugia factor
	assert.Contains(t, out, "< 0.001")
	// the failed feature reports its marker, not numbers
	assert.Contains(t, out, "insufficient sample")
	assert.Contains(t, out, "failed")
}

func TestMarkdownSinkRendersTables(t *testing.T) {
	var sb strings.Builder
	sink := NewMarkdownSink(&sb)

	require.NoError(t, sink.Write(context.Background(), fixtureReport(t)))
	out := sb.String()

	assert.Contains(t, out, "# Refugia Linguistic Analysis")
	assert.Contains(t, out, "| Absence of Nasals |")
	assert.Contains(t, out, "Spatial test not available")
}

func TestHTMLSinkProducesCompletePage(t *testing.T) {
	var sb strings.Builder
	sink := NewHTMLSink(&sb)

	require.NoError(t, sink.Write(context.Background(), fixtureReport(t)))
	out := sb.String()

	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Refugia Linguistic Analysis")
	assert.Contains(t, out, "<table>")
}

func TestXLSXSinkWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	sink := NewXLSXSink(path)

	require.NoError(t, sink.Write(context.Background(), fixtureReport(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Regional Breakdown", "Chapters"}, f.GetSheetList())

	// full-precision Moran I lands in the summary sheet, not a display string
	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)

	found := false
	for _, row := range rows {
		if len(row) > 4 && row[0] == "Absence of Nasals" {
			assert.Equal(t, "0.3121", row[4])
			found = true
		}
	}
	assert.True(t, found, "summary sheet missing the feature row")
}

func TestPValueString(t *testing.T) {
	assert.Equal(t, "< 0.001", pValueString(0.0004))
	assert.Equal(t, "0.0423", pValueString(0.0423))
}

func TestFactorString(t *testing.T) {
	assert.Equal(t, "n/a", factorString(stats.UndefinedFactor()))
	assert.Equal(t, "1.78x", factorString(stats.DefinedFactor(1.7777)))
}
