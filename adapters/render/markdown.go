package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"refugia/domain/geo"
	"refugia/domain/report"
)

// MarkdownSink renders the report as a Markdown document.
type MarkdownSink struct {
	out io.Writer
}

// NewMarkdownSink creates a markdown sink writing to out.
func NewMarkdownSink(out io.Writer) *MarkdownSink {
	return &MarkdownSink{out: out}
}

// Name identifies the sink.
func (s *MarkdownSink) Name() string { return "markdown" }

// Write renders the full report as Markdown.
func (s *MarkdownSink) Write(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.out, renderMarkdown(rep))
	return err
}

// HTMLSink renders the Markdown document through gomarkdown into a complete
// HTML page.
type HTMLSink struct {
	out io.Writer
}

// NewHTMLSink creates an HTML sink writing to out.
func NewHTMLSink(out io.Writer) *HTMLSink {
	return &HTMLSink{out: out}
}

// Name identifies the sink.
func (s *HTMLSink) Name() string { return "html" }

// Write renders the full report as an HTML page.
func (s *HTMLSink) Write(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(renderMarkdown(rep)))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Refugia Linguistic Analysis",
		Flags: html.CommonFlags | html.CompletePage,
	})

	_, err := s.out.Write(markdown.Render(doc, renderer))
	return err
}

func renderMarkdown(rep *report.Report) string {
	var b strings.Builder

	b.WriteString("# Refugia Linguistic Analysis\n\n")
	fmt.Fprintf(&b, "Run `%s` at %s — seed %d, k=%d",
		rep.Meta.RunID, rep.Meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		rep.Meta.Seed, rep.Meta.Neighbors)
	if rep.Meta.PermutationRounds > 0 {
		fmt.Fprintf(&b, ", %d permutation rounds", rep.Meta.PermutationRounds)
	}
	if !rep.Meta.InputFingerprint.IsEmpty() {
		fmt.Fprintf(&b, ", input `%.12s`", rep.Meta.InputFingerprint)
	}
	b.WriteString("\n\n")

	base := rep.Baseline
	b.WriteString("## Baseline\n\n")
	fmt.Fprintf(&b, "%d unique languages", rep.PopulationSize)
	if rep.DroppedObservations > 0 {
		fmt.Fprintf(&b, " (%d malformed records dropped)", rep.DroppedObservations)
	}
	b.WriteString("\n\n")
	b.WriteString("| Region | Languages | Share |\n|---|---:|---:|\n")
	for _, r := range geo.AllRegions() {
		fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", r.Label(), base.Count(r), base.Percent(r))
	}
	fmt.Fprintf(&b, "| **Refugia total** | **%d** | **%.2f%%** |\n\n", base.RefugiaCount, base.RefugiaPercent)

	if len(rep.Chapters) > 0 {
		b.WriteString("## Per-Chapter Baselines\n\n")
		b.WriteString("| Chapter | N | Refugia |\n|---|---:|---:|\n")
		for _, ch := range rep.Chapters {
			fmt.Fprintf(&b, "| %s — %s | %d | %.1f%% |\n",
				ch.FeatureID, ch.FeatureName, ch.Baseline.Total, ch.Baseline.RefugiaPercent)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary (sorted by enrichment)\n\n")
	b.WriteString("| Feature | % Refugia | % Non-Ref | Enrichment | Moran I | P-value |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| Total (Global Baseline) | %.1f%% | %.1f%% | 1.00x | ~0 | N/A |\n",
		base.RefugiaPercent, base.NonRefugiaPercent)
	for _, f := range rep.FeaturesByEnrichment() {
		e := f.Enrichment
		iStr, pStr := spatialCells(f)
		fmt.Fprintf(&b, "| %s | %.1f%% | %.1f%% | %s | %s | %s |\n",
			f.Rule.Label, e.RefugiaPercent, e.NonRefugiaPercent,
			factorString(e.RefugiaFactor), iStr, pStr)
	}
	b.WriteString("\n")

	b.WriteString("## Regional Breakdown\n\n")
	b.WriteString("| Feature | Americas | Sahul | Caucasus | Non-Ref |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, f := range rep.FeaturesByEnrichmentDesc() {
		e := f.Enrichment
		if e.SampleSize == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s |", f.Rule.Label)
		for _, r := range geo.AllRegions() {
			re := e.Region(r)
			fmt.Fprintf(&b, " %d (%.1f%%) |", re.Count, re.Percent)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Feature Details\n\n")
	for _, f := range rep.Features {
		fmt.Fprintf(&b, "### %s\n\n", f.Rule.Label)
		fmt.Fprintf(&b, "WALS chapter %s — %s. %d languages coded, %d matching (%.1f%%).\n\n",
			f.Rule.FeatureID, f.FeatureName, f.TotalWithData, f.MatchCount, f.MatchPercent)
		if f.SpatialOK() {
			fmt.Fprintf(&b, "Moran's I %.4f, z = %.2f, p = %.6f.",
				f.Moran.I, f.Moran.ZScore, f.Moran.PValue)
			if f.Permutation != nil {
				fmt.Fprintf(&b, " Permutation p = %.4f over %d rounds.",
					f.Permutation.PValue, f.Permutation.Rounds)
			}
			b.WriteString("\n\n")
		} else {
			fmt.Fprintf(&b, "Spatial test not available: %s.\n\n", f.SpatialFailure)
		}
	}

	return b.String()
}
