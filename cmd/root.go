// =============================================================================
// Invoice Receipts - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'version') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (receipts)
//   ├── processCmd (receipts process)
//   └── versionCmd (receipts version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Delegating configuration loading to the individual commands
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "receipts",

	Short: "Invoice Receipts - Transform vendor invoice exports into receipt JSON",

	Long: `Invoice Receipts is a CLI tool that transforms CSV and XLSX invoice
exports from beverage vendors into normalized receipt JSON documents.

Key Features:
  - Vendor-specific configuration: column aliases, GL-code and unit vocabularies
  - Category and quantity normalization for beer, wine and spirits invoices
  - Product code extraction with zero-padding to standard width
  - Per-invoice receipt assembly with validation and review flags
  - Concurrent processing and automatic file archival

Example Usage:
  receipts process                    # Process all files in the input directory
  receipts process --config ./my.yaml # Use a custom configuration file
  receipts process --file ./inv.csv --vendor sgws`,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
