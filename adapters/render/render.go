// Package render implements the report sinks: the classic text tables, a
// Markdown/HTML rendering, and an XLSX workbook. Sinks format and write
// only; every number is read from the assembled report at full precision and
// rounded at display time.
package render

import (
	"fmt"

	"refugia/domain/report"
	"refugia/domain/stats"
)

// factorString renders an enrichment factor, or "n/a" when the baseline
// share of the region was zero and the ratio is undefined.
func factorString(f stats.Factor) string {
	if !f.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", f.Value)
}

// pValueString renders a p-value the way the summary table expects:
// "< 0.001" below the reporting threshold, four decimals otherwise.
func pValueString(p float64) string {
	if p < 0.001 {
		return "< 0.001"
	}
	return fmt.Sprintf("%.4f", p)
}

// spatialCells returns the Moran's I and p-value display strings for a
// feature, or the failure marker when the spatial stage did not produce a
// result.
func spatialCells(f report.FeatureResult) (iStr, pStr string) {
	if !f.SpatialOK() {
		return "failed", "failed"
	}
	return fmt.Sprintf("%.4f", f.Moran.I), pValueString(f.Moran.PValue)
}
