// =============================================================================
// Tariff Reconciler - Report Export Module
// =============================================================================
//
// This module writes a reconciliation result in the user-facing formats:
//
//   csv  - the report table, RFC 4180 quoted, header from the mode profile
//   xlsx - a "Report" sheet with the same table plus a "Summary" sheet
//   json - the result document (summary, details, fullReport)
//
// Every format accepts a category so a filtered view (match, mismatch,
// missing) can be exported instead of the full report. Counters always
// describe the whole run.
//
// FILE NAMES:
//   Laporan_Validasi_<MODE>_<FILTER>.<ext>, where FILTER is "Full" for the
//   whole report (configurable through report_name_format).
//
// =============================================================================

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
	"github.com/ginjaninja78/tariff-reconciler/pkg/utils"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat converts user input to a Format. An empty string means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, xlsx or json)", s)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FilterLabel returns the file name label of a category.
func FilterLabel(category types.Category) string {
	switch category {
	case types.CategoryAll:
		return "Full"
	case types.CategoryMissing:
		return "BLANK"
	default:
		return strings.ToUpper(string(category))
	}
}

// ReportName builds the report file name from a name format.
//
// PARAMETERS:
//   - nameFormat: e.g. "Laporan_Validasi_{mode}_{filter}".
//   - mode: Provides the {mode} label.
//   - category: Provides the {filter} label.
//   - format: Provides the extension.
func ReportName(nameFormat string, mode types.Mode, category types.Category, format Format) string {
	return utils.GenerateOutputFileName(nameFormat, map[string]string{
		"mode":   mode.Label(),
		"filter": FilterLabel(category),
	}, format.Extension())
}

// Write exports result in format, restricted to category.
func Write(w io.Writer, format Format, result *report.Result, category types.Category) error {
	if result == nil {
		return fmt.Errorf("nothing to export: %w", types.ErrNotFound)
	}

	switch format {
	case FormatCSV:
		return WriteCSV(w, result, category)
	case FormatXLSX:
		return WriteXLSX(w, result, category)
	case FormatJSON:
		return WriteJSON(w, result, category)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
