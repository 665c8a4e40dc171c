package render

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"refugia/domain/geo"
	"refugia/domain/report"
)

// XLSXSink writes the report as a workbook: a summary sheet, a regional
// breakdown sheet, and a chapter baselines sheet. Numeric cells carry the
// full float64 values; any rounding is left to the spreadsheet.
type XLSXSink struct {
	path string
}

// NewXLSXSink creates a workbook sink writing to the given path.
func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{path: path}
}

// Name identifies the sink.
func (s *XLSXSink) Name() string { return "xlsx" }

// Write renders the full report into the workbook file.
func (s *XLSXSink) Write(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()

	if err := s.writeSummary(f, rep); err != nil {
		return err
	}
	if err := s.writeRegional(f, rep); err != nil {
		return err
	}
	if err := s.writeChapters(f, rep); err != nil {
		return err
	}

	// The summary replaces the default sheet.
	if idx, err := f.GetSheetIndex("Summary"); err == nil && idx != -1 {
		f.SetActiveSheet(idx)
	}

	return f.SaveAs(s.path)
}

func (s *XLSXSink) writeSummary(f *excelize.File, rep *report.Report) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := []interface{}{
		"Feature", "% Refugia", "% Non-Refugia", "Enrichment Factor",
		"Moran I", "Z-score", "P-value", "Permutation P", "Spatial Failure",
	}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}

	base := rep.Baseline
	baselineRow := []interface{}{
		"Total (Global Baseline)", base.RefugiaPercent, base.NonRefugiaPercent,
		1.0, nil, nil, nil, nil, "",
	}
	if err := writeRow(f, sheet, 2, baselineRow); err != nil {
		return err
	}

	for i, fr := range rep.FeaturesByEnrichment() {
		e := fr.Enrichment
		row := []interface{}{fr.Rule.Label, e.RefugiaPercent, e.NonRefugiaPercent}
		if e.RefugiaFactor.Defined {
			row = append(row, e.RefugiaFactor.Value)
		} else {
			row = append(row, "n/a")
		}
		if fr.SpatialOK() {
			row = append(row, fr.Moran.I, fr.Moran.ZScore, fr.Moran.PValue)
		} else {
			row = append(row, nil, nil, nil)
		}
		if fr.Permutation != nil {
			row = append(row, fr.Permutation.PValue)
		} else {
			row = append(row, nil)
		}
		row = append(row, fr.SpatialFailure)

		if err := writeRow(f, sheet, i+3, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *XLSXSink) writeRegional(f *excelize.File, rep *report.Report) error {
	const sheet = "Regional Breakdown"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{"Feature", "Sample Size"}
	for _, r := range geo.AllRegions() {
		headers = append(headers, r.Label()+" Count", r.Label()+" %", r.Label()+" Factor")
	}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i, fr := range rep.FeaturesByEnrichmentDesc() {
		e := fr.Enrichment
		row := []interface{}{fr.Rule.Label, e.SampleSize}
		for _, r := range geo.AllRegions() {
			re := e.Region(r)
			row = append(row, re.Count, re.Percent)
			if re.Factor.Defined {
				row = append(row, re.Factor.Value)
			} else {
				row = append(row, "n/a")
			}
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *XLSXSink) writeChapters(f *excelize.File, rep *report.Report) error {
	const sheet = "Chapters"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{"Chapter", "Name", "N", "Refugia Count", "Refugia %"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i, ch := range rep.Chapters {
		row := []interface{}{
			ch.FeatureID, ch.FeatureName, ch.Baseline.Total,
			ch.Baseline.RefugiaCount, ch.Baseline.RefugiaPercent,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("xlsx: cell %s: %w", cell, err)
		}
	}
	return nil
}
