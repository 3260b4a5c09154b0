// =============================================================================
// Tariff Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Tariff Reconciler CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   reconciler reconcile    - Reconcile a governing file against a reference file
//   reconciler history      - List, show or clear recorded runs
//   reconciler template     - Write example input files
//   reconciler serve        - Serve the HTTP API
//   reconciler version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core reconciliation logic and its services
//   - pkg/           : Shared file utilities
//   - profiles/      : Mode profiles (column matching, fields, remarks)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/tariff-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
