package ports

import (
	"context"

	"refugia/domain/report"
)

// ReportSink renders an assembled report to some destination: a terminal,
// a file, a workbook. Sinks only format and write; they never recompute.
type ReportSink interface {
	// Name identifies the sink in logs and CLI output.
	Name() string

	// Write renders the full report. Implementations must read every number
	// from the report itself so no precision is lost before display.
	Write(ctx context.Context, rep *report.Report) error
}
