package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tariff-reconciler/internal/server"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation HTTP API",
	Long: `Serves the HTTP API on server.addr. Runs are synchronous: an upload returns
once its reconciliation has finished. Only one run executes at a time; a
second upload while a run is in progress is answered with 409.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := server.New(svc, logger.With().Str("component", "http").Logger(), appConfig.Server.Addr)
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().String("output-dir", "", "Output directory (overrides output_dir)")
	serveCmd.Flags().Int("chunk-size", 0, "Reader window size in bytes (overrides chunk_size)")
	serveCmd.Flags().String("history", "", "History backend (memory, file, sqlite, redis)")
}
