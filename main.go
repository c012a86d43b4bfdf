// =============================================================================
// Invoice Receipts - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Invoice Receipts CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   receipts process   - Process all invoice files in the input directory
//   receipts version   - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/       : Contains all CLI command definitions (Cobra)
//   - internal/  : Contains core business logic (not for external import)
//   - pkg/       : Contains shared utilities
//   - vendors/   : Contains vendor-specific YAML configurations
//
// =============================================================================

package main

import (
	"github.com/fintech-etl/invoice-receipts/cmd"
)

func main() {
	cmd.Execute()
}
