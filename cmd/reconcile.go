// =============================================================================
// Tariff Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, which runs one reconciliation
// of a governing file against a reference file.
//
// COMMAND USAGE:
//   reconciler reconcile --mode tariff --reference master.csv --governing it.csv
//
// FLAGS:
//   --mode        : tariff (TARIF) or cost (BIAYA)
//   --reference   : The reference (master data) file
//   --governing   : The governing (IT data) file
//   --format      : Report formats to write (csv, xlsx, json); repeatable
//   --filter      : Report rows to write (all, match, mismatch, missing)
//   --output-dir  : Where reports are written
//   --no-history  : Do not record the run in history
//   --summary-log : Also write a run summary text file
//   --details     : Number of non-matching rows to print (0 = none)
//
// PROCESSING PIPELINE:
//   1. Load configuration and profiles
//   2. Reconcile the two files
//   3. Write the requested reports
//   4. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	reconcileMode      string
	reconcileReference string
	reconcileGoverning string
	reconcileFormats   []string
	reconcileFilter    string
	reconcileNoHistory bool
	reconcileSummary   bool
	reconcileDetails   int
)

// =============================================================================
// RECONCILE COMMAND DEFINITION
// =============================================================================

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a governing file against a reference file",
	Long: `The reconcile command reads both files in fixed-size windows, pairs their
rows by key, compares the configured fields and writes the validation report.

Missing required columns or a reference file without usable rows abort the
run; nothing is written or recorded in that case.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&reconcileMode, "mode", "m", "tariff", "Reconciliation mode (tariff|cost)")
	reconcileCmd.Flags().StringVarP(&reconcileReference, "reference", "r", "", "Reference (master data) CSV file")
	reconcileCmd.Flags().StringVarP(&reconcileGoverning, "governing", "g", "", "Governing (IT data) CSV file")
	reconcileCmd.Flags().StringSliceVarP(&reconcileFormats, "format", "f", []string{"csv"}, "Report formats (csv, xlsx, json)")
	reconcileCmd.Flags().StringVar(&reconcileFilter, "filter", "all", "Report rows to write (all, match, mismatch, missing)")
	reconcileCmd.Flags().String("output-dir", "", "Output directory (overrides output_dir)")
	reconcileCmd.Flags().Int("chunk-size", 0, "Reader window size in bytes (overrides chunk_size)")
	reconcileCmd.Flags().String("history", "", "History backend (memory, file, sqlite, redis)")
	reconcileCmd.Flags().BoolVar(&reconcileNoHistory, "no-history", false, "Do not record the run in history")
	reconcileCmd.Flags().BoolVar(&reconcileSummary, "summary-log", false, "Write a run summary text file")
	reconcileCmd.Flags().IntVar(&reconcileDetails, "details", 10, "Number of non-matching rows to print")

	reconcileCmd.MarkFlagRequired("reference")
	reconcileCmd.MarkFlagRequired("governing")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReconcile(cmd *cobra.Command) error {
	mode, err := types.ParseMode(reconcileMode)
	if err != nil {
		return err
	}
	category, err := types.ParseCategory(reconcileFilter)
	if err != nil {
		return err
	}

	formats := make([]export.Format, 0, len(reconcileFormats))
	for _, f := range reconcileFormats {
		format, err := export.ParseFormat(f)
		if err != nil {
			return err
		}
		formats = append(formats, format)
	}

	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	// =========================================================================
	// STEP 1: RECONCILE
	// =========================================================================

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Tariff Reconciler (%s) ===\n", mode.Label())

	run, err := svc.ReconcileFiles(ctx, mode, reconcileReference, reconcileGoverning, reconcileNoHistory,
		func(percent int) {
			logger.Debug().Int("progress", percent).Msg("Reconciling")
		})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	// =========================================================================
	// STEP 2: WRITE REPORTS
	// =========================================================================

	var outputs []string
	for _, format := range formats {
		path, err := svc.WriteReport(run.Result, format, category)
		if err != nil {
			return err
		}
		outputs = append(outputs, path)
	}

	if reconcileSummary {
		path, err := svc.WriteSummary(run, outputs)
		if err != nil {
			return err
		}
		outputs = append(outputs, path)
	}

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	if err := export.PrintSummary(out, run.Result); err != nil {
		return err
	}
	if reconcileDetails > 0 && len(run.Result.Details) > 0 {
		if err := export.PrintDetails(out, run.Result, reconcileDetails); err != nil {
			return err
		}
	}

	for _, p := range outputs {
		fmt.Fprintf(out, "  ✓ %s\n", p)
	}
	if run.Entry != nil {
		fmt.Fprintf(out, "History ID:   %s\n", run.Entry.ID)
	}
	if run.HistoryError != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: run not recorded in history: %v\n", run.HistoryError)
	}
	fmt.Fprintf(out, "Time elapsed: %s\n", run.Elapsed)

	return nil
}
