package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// WriteCSV writes the report table: the profile header, then one record per
// row in report order. Values containing the delimiter, quotes or line
// breaks are quoted.
func WriteCSV(w io.Writer, result *report.Result, category types.Category) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(result.Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, row := range result.Filter(category) {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", row.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
