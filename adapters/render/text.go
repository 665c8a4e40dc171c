package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"refugia/domain/geo"
	"refugia/domain/report"
)

// TextSink renders the classic fixed-width report tables to a writer.
type TextSink struct {
	out io.Writer
}

// NewTextSink creates a text sink writing to out.
func NewTextSink(out io.Writer) *TextSink {
	return &TextSink{out: out}
}

// Name identifies the sink.
func (s *TextSink) Name() string { return "text" }

// Write renders the full report.
func (s *TextSink) Write(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	rule := strings.Repeat("=", 70)
	b.WriteString(rule + "\n")
	b.WriteString("REFUGIA LINGUISTIC ANALYSIS\n")
	b.WriteString("Statistical Analysis of Feature Distributions\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Run %s at %s (seed %d, k=%d",
		rep.Meta.RunID, rep.Meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		rep.Meta.Seed, rep.Meta.Neighbors)
	if rep.Meta.PermutationRounds > 0 {
		fmt.Fprintf(&b, ", %d permutations", rep.Meta.PermutationRounds)
	}
	b.WriteString(")\n")
	if !rep.Meta.InputFingerprint.IsEmpty() {
		fmt.Fprintf(&b, "Input fingerprint: %.12s\n", rep.Meta.InputFingerprint)
	}

	s.writeBaseline(&b, rep)
	s.writeChapters(&b, rep)
	for _, f := range rep.Features {
		s.writeFeature(&b, rep, f)
	}
	s.writeSummaryTable(&b, rep)
	s.writeRegionalTable(&b, rep)

	b.WriteString("\n" + rule + "\n")
	b.WriteString("ANALYSIS COMPLETE\n")
	b.WriteString(rule + "\n")

	_, err := io.WriteString(s.out, b.String())
	return err
}

func (s *TextSink) writeBaseline(b *strings.Builder, rep *report.Report) {
	base := rep.Baseline
	b.WriteString("\nBASELINE (combined unique languages)\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(b, "Total languages: %d", rep.PopulationSize)
	if rep.DroppedObservations > 0 {
		fmt.Fprintf(b, " (%d malformed records dropped)", rep.DroppedObservations)
	}
	b.WriteString("\n")
	for _, r := range geo.AllRegions() {
		fmt.Fprintf(b, "  %-12s %4d (%5.1f%%)\n", r.Label()+":", base.Count(r), base.Percent(r))
	}
	fmt.Fprintf(b, "\n  >>> REFUGIA TOTAL: %d (%.2f%%) <<<\n", base.RefugiaCount, base.RefugiaPercent)
}

func (s *TextSink) writeChapters(b *strings.Builder, rep *report.Report) {
	if len(rep.Chapters) == 0 {
		return
	}
	b.WriteString("\nPER-CHAPTER BASELINES\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, ch := range rep.Chapters {
		fmt.Fprintf(b, "  %s: N=%3d, Refugia=%.1f%%\n",
			ch.FeatureID, ch.Baseline.Total, ch.Baseline.RefugiaPercent)
	}
}

func (s *TextSink) writeFeature(b *strings.Builder, rep *report.Report, f report.FeatureResult) {
	rule := strings.Repeat("=", 70)
	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(b, "FEATURE: %s\n", f.Rule.Label)
	fmt.Fprintf(b, "WALS Chapter: %s - %s\n", f.Rule.FeatureID, f.FeatureName)
	b.WriteString(rule + "\n")

	b.WriteString("\nSample Size:\n")
	fmt.Fprintf(b, "  Total languages in chapter: %d\n", f.TotalWithData)
	fmt.Fprintf(b, "  Languages with target feature: %d (%.1f%%)\n", f.MatchCount, f.MatchPercent)

	e := f.Enrichment
	b.WriteString("\nRegional Distribution:\n")
	for _, r := range geo.AllRegions() {
		re := e.Region(r)
		fmt.Fprintf(b, "  %-12s %3d (%.1f%%)\n", r.Label()+":", re.Count, re.Percent)
	}

	b.WriteString("\nEnrichment Analysis:\n")
	fmt.Fprintf(b, "  Baseline refugia %%: %.1f%%\n", rep.Baseline.RefugiaPercent)
	fmt.Fprintf(b, "  Feature refugia %%:  %.1f%%\n", e.RefugiaPercent)
	fmt.Fprintf(b, "  Enrichment factor:  %s\n", factorString(e.RefugiaFactor))

	b.WriteString("\nSpatial Autocorrelation (Moran's I):\n")
	if f.SpatialOK() {
		fmt.Fprintf(b, "  Moran's I: %.4f\n", f.Moran.I)
		fmt.Fprintf(b, "  Z-score:   %.2f\n", f.Moran.ZScore)
		fmt.Fprintf(b, "  P-value:   %.6f\n", f.Moran.PValue)
		if f.Permutation != nil {
			fmt.Fprintf(b, "  Permutation P-value: %.4f (%d rounds)\n",
				f.Permutation.PValue, f.Permutation.Rounds)
		}
	} else {
		fmt.Fprintf(b, "  not available: %s\n", f.SpatialFailure)
	}

	if n := len(f.TargetLanguages); n > 0 {
		fmt.Fprintf(b, "\nTarget Languages (%d total):\n", n)
		for _, l := range f.TargetLanguages {
			fmt.Fprintf(b, "  %s (%s): %s\n", l.Name, l.ID, l.Region.Label())
		}
	}
}

func (s *TextSink) writeSummaryTable(b *strings.Builder, rep *report.Report) {
	wide := strings.Repeat("=", 105)
	b.WriteString("\n" + wide + "\n")
	b.WriteString("TABLE 1: Summary Statistics for All Features\n")
	b.WriteString(wide + "\n")
	fmt.Fprintf(b, "%-40s %10s %10s %12s %10s %12s\n",
		"Feature Name", "% Refugia", "% Non-Ref", "Enrichment", "Moran I", "P-value")
	b.WriteString(strings.Repeat("-", 105) + "\n")

	base := rep.Baseline
	fmt.Fprintf(b, "%-40s %9.1f%% %9.1f%% %12s %10s %12s\n",
		"Total (Global Baseline)", base.RefugiaPercent, base.NonRefugiaPercent, "1.00x", "~0", "N/A")
	b.WriteString(strings.Repeat("-", 105) + "\n")

	for _, f := range rep.FeaturesByEnrichment() {
		e := f.Enrichment
		iStr, pStr := spatialCells(f)
		fmt.Fprintf(b, "%-40s %9.1f%% %9.1f%% %12s %10s %12s\n",
			f.Rule.Label, e.RefugiaPercent, e.NonRefugiaPercent,
			factorString(e.RefugiaFactor), iStr, pStr)
	}
	b.WriteString(wide + "\n")
}

func (s *TextSink) writeRegionalTable(b *strings.Builder, rep *report.Report) {
	wide := strings.Repeat("=", 90)
	b.WriteString("\n" + wide + "\n")
	b.WriteString("DETAILED REGIONAL BREAKDOWN\n")
	b.WriteString(wide + "\n")
	fmt.Fprintf(b, "%-35s %12s %12s %12s %12s\n",
		"Feature", "Americas", "Sahul", "Caucasus", "Non-Ref")
	b.WriteString(strings.Repeat("-", 90) + "\n")

	for _, f := range rep.FeaturesByEnrichmentDesc() {
		e := f.Enrichment
		if e.SampleSize == 0 {
			continue
		}
		label := f.Rule.Label
		if len(label) > 35 {
			label = label[:35]
		}
		fmt.Fprintf(b, "%-35s", label)
		for _, r := range geo.AllRegions() {
			re := e.Region(r)
			fmt.Fprintf(b, " %5d (%4.1f%%)", re.Count, re.Percent)
		}
		b.WriteString("\n")
	}
	b.WriteString(wide + "\n")
}
