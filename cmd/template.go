package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

var (
	templateMode string
	templateSide string
)

// templateCmd writes example input files.
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write example input files for a mode",
	Long: `Writes Template_Master_Data_<MODE>.csv (reference) and/or
Template_Data_IT_<MODE>.csv (governing) into the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := types.ParseMode(templateMode)
		if err != nil {
			return err
		}

		sides := []types.Side{types.SideReference, types.SideGoverning}
		if templateSide != "" {
			side, err := types.ParseSide(templateSide)
			if err != nil {
				return err
			}
			sides = []types.Side{side}
		}

		for _, side := range sides {
			path, err := export.WriteTemplate(appConfig.OutputDir, mode, side)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateMode, "mode", "m", "tariff", "Reconciliation mode (tariff|cost)")
	templateCmd.Flags().StringVarP(&templateSide, "side", "s", "", "reference (master) or governing (it); both when empty")
	templateCmd.Flags().String("output-dir", "", "Output directory (overrides output_dir)")
}
