// =============================================================================
// Tariff Reconciler - History Command
// =============================================================================
//
// COMMAND USAGE:
//   reconciler history list [--mode tariff|cost]
//   reconciler history show ID [--export csv|xlsx|json] [--filter ...]
//   reconciler history clear --yes
//
// History is kept by the configured backend (history.backend). The memory
// backend does not survive the process, so these commands are only useful
// with the file, sqlite or redis backends.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

var (
	historyMode   string
	historyYes    bool
	historyExport string
	historyFilter string
)

// historyCmd groups the history subcommands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, inspect or clear recorded runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var mode types.Mode
		if historyMode != "" {
			m, err := types.ParseMode(historyMode)
			if err != nil {
				return err
			}
			mode = m
		}

		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		entries, err := svc.History().List(cmd.Context(), mode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No recorded runs.")
			return nil
		}

		table := tablewriter.NewTable(out)
		table.Header("ID", "Time", "Mode", "Reference", "Governing", "Total", "Match", "Mismatch", "Missing")
		for _, e := range entries {
			var total, matches, mismatches, missing int
			if e.Result != nil {
				total, matches, mismatches, missing = e.Result.TotalRows, e.Result.Matches, e.Result.Mismatches, e.Result.Missing
			}
			if err := table.Append(
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.EffectiveMode().Label(),
				e.ReferenceFile,
				e.GoverningFile,
				fmt.Sprint(total),
				fmt.Sprint(matches),
				fmt.Sprint(mismatches),
				fmt.Sprint(missing),
			); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a recorded run and optionally export its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := types.ParseCategory(historyFilter)
		if err != nil {
			return err
		}

		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		entry, err := svc.Restore(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if entry.Result == nil {
			return fmt.Errorf("history entry %s has no result: %w", entry.ID, types.ErrNotFound)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s (%s)\n", entry.ID, entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Reference: %s\nGoverning: %s\n", entry.ReferenceFile, entry.GoverningFile)

		if err := export.PrintSummary(out, entry.Result); err != nil {
			return err
		}
		if len(entry.Result.Details) > 0 {
			if err := export.PrintDetails(out, entry.Result, 20); err != nil {
				return err
			}
		}

		if historyExport != "" {
			format, err := export.ParseFormat(historyExport)
			if err != nil {
				return err
			}
			path, err := svc.WriteReport(entry.Result, format, category)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  ✓ %s\n", path)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recorded run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.History().Clear(cmd.Context(), historyYes); err != nil {
			return fmt.Errorf("%w (pass --yes to confirm)", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)

	historyCmd.PersistentFlags().String("history", "", "History backend (memory, file, sqlite, redis)")

	historyListCmd.Flags().StringVarP(&historyMode, "mode", "m", "", "Only list runs of this mode")

	historyShowCmd.Flags().StringVar(&historyExport, "export", "", "Write the report in this format (csv, xlsx, json)")
	historyShowCmd.Flags().StringVar(&historyFilter, "filter", "all", "Report rows to export (all, match, mismatch, missing)")
	historyShowCmd.Flags().String("output-dir", "", "Output directory (overrides output_dir)")

	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "Confirm removal of every recorded run")
}
