package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
)

// PrintSummary renders the counters of result as a table.
func PrintSummary(w io.Writer, result *report.Result) error {
	table := tablewriter.NewTable(w)
	table.Header("Mode", "Total", "Match", "Mismatch", "Missing")
	if err := table.Append(
		result.Mode.Label(),
		fmt.Sprint(result.TotalRows),
		fmt.Sprint(result.Matches),
		fmt.Sprint(result.Mismatches),
		fmt.Sprint(result.Missing),
	); err != nil {
		return err
	}
	return table.Render()
}

// PrintDetails renders up to limit detail records. limit <= 0 prints all.
func PrintDetails(w io.Writer, result *report.Result, limit int) error {
	details := result.Details
	if limit > 0 && len(details) > limit {
		details = details[:limit]
	}

	table := tablewriter.NewTable(w)
	table.Header("Row", "Key", "Verdict", "Reasons")
	for _, d := range details {
		if err := table.Append(fmt.Sprint(d.RowID), d.Key, string(d.Verdict), strings.Join(d.Reasons, ", ")); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if hidden := len(result.Details) - len(details); hidden > 0 {
		fmt.Fprintf(w, "... %d more\n", hidden)
	}
	return nil
}
