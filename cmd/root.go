// =============================================================================
// Tariff Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── reconcileCmd (reconciler reconcile)
//   ├── historyCmd   (reconciler history list|show|clear)
//   ├── templateCmd  (reconciler template)
//   ├── serveCmd     (reconciler serve)
//   └── versionCmd   (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Loading .env files and the layered configuration (see config.go)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tariff-reconciler/internal/app"
	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/history"
	"github.com/ginjaninja78/tariff-reconciler/internal/logging"
	"github.com/ginjaninja78/tariff-reconciler/internal/metrics"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when present; --config names a file that must exist.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is an optional .env file loaded before the environment is read.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded by the root command's pre-run hook.
var appConfig *config.MainConfig

// logger is the process logger, configured once appConfig is loaded.
var logger = zerolog.Nop()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Tariff Reconciler - Compare IT tariff and cost data against master data",
	Long: `Tariff Reconciler compares a governing dataset (IT data) against a
reference dataset (master data) and reports, per key, whether the compared
fields match, differ, or have no counterpart.

Modes:
  tariff (TARIF)  rows are paired by SYS_CODE
  cost   (BIAYA)  rows are paired by destination and service family

Example Usage:
  reconciler reconcile --mode tariff --reference master.csv --governing it.csv
  reconciler history list --mode cost
  reconciler template --mode tariff --side governing
  reconciler serve --addr :8080`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger = logging.New(logging.Config{Level: level, Format: cfg.LogFormat})
		logging.SetDefault(logger)

		logger.Debug().Str("config", cfgFile).Msg("Configuration loaded")
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the command's context.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newService builds the application service from appConfig. The caller
// must Close it.
func newService(ctx context.Context) (*app.Service, error) {
	profiles, err := config.LoadProfiles(appConfig.ProfilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	store, err := history.Open(ctx, appConfig.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	logger.Debug().
		Str("backend", appConfig.History.Backend).
		Int("profiles", len(profiles)).
		Msg("Service ready")

	return app.New(appConfig, profiles, store, metrics.New(), logger), nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		"",
		"Additional .env file to load (.env and .env.local are always tried)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (auto, console, json)")
}
