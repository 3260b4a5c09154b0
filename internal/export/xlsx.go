package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// Sheet names of the XLSX report.
const (
	ReportSheet  = "Report"
	SummarySheet = "Summary"
)

// WriteXLSX writes the report as a workbook. The report sheet is streamed
// row by row so large reports are not held twice in memory.
func WriteXLSX(w io.Writer, result *report.Result, category types.Category) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// =========================================================================
	// REPORT SHEET
	// =========================================================================

	sw, err := f.NewStreamWriter(ReportSheet)
	if err != nil {
		return fmt.Errorf("failed to open report sheet: %w", err)
	}

	if err := sw.SetRow("A1", cells(result.Header), excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for i, row := range result.Filter(category) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row.Record())); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", row.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush report sheet: %w", err)
	}

	// =========================================================================
	// SUMMARY SHEET
	// =========================================================================

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Mode", result.Mode.Label()},
		{"Filter", FilterLabel(category)},
		{"Total Rows", result.TotalRows},
		{"Matches", result.Matches},
		{"Mismatches", result.Mismatches},
		{"Missing", result.Missing},
		{"Reference Keys", result.Stats.ReferenceKeys},
		{"Governing Keys", result.Stats.GoverningKeys},
		{"Reference Duplicates", result.Stats.ReferenceDuplicates},
		{"Governing Duplicates", result.Stats.GoverningDuplicates},
	}
	for i, values := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
