// =============================================================================
// Invoice Receipts - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command for transforming
// vendor invoice exports into receipt JSON documents.
//
// COMMAND USAGE:
//   receipts process [flags]
//
// FLAGS:
//   --file           : Process only the specified file
//   --vendor         : Force a specific vendor configuration by code
//   --prune-archives : Remove archived files older than this many days
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Discover input files (.csv, .xlsx) in the input directory
//   3. Match each file to a vendor configuration
//   4. For each file (concurrently, bounded by max_concurrency):
//      a. Parse the file with the vendor's settings
//      b. Normalize fields and group rows into invoices
//      c. Validate each receipt
//      d. Write one JSON file per receipt
//      e. Archive processed files
//   5. Generate summary and error logs
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fintech-etl/invoice-receipts/internal/config"
	"github.com/fintech-etl/invoice-receipts/internal/converter"
	"github.com/fintech-etl/invoice-receipts/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// singlePath restricts processing to one file.
var singlePath string

// vendorCode forces a vendor configuration instead of pattern matching.
var vendorCode string

// pruneArchiveDays removes archived files older than this many days.
// Zero disables pruning.
var pruneArchiveDays int

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process vendor invoice files into receipt JSON",
	Long: `The process command scans the input directory for vendor invoice exports,
matches them to the appropriate vendor configuration, and transforms them into
normalized receipt JSON documents, one file per invoice.

Processing is done concurrently. Each file is processed independently, and
errors in one file do not affect the processing of others.

On successful processing:
  - Receipt JSON files are placed in the output directory
  - The original export is moved to the input archive
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The original export remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&singlePath,
		"file",
		"",
		"Process only the specified file",
	)

	processCmd.Flags().StringVar(
		&vendorCode,
		"vendor",
		"",
		"Force a vendor configuration by code instead of pattern matching",
	)

	processCmd.Flags().IntVar(
		&pruneArchiveDays,
		"prune-archives",
		0,
		"Remove archived files older than this many days (0 disables)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates one processing run.
func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Invoice Receipts ===")
	fmt.Println("Loading configuration...")

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		mainConfig.LogLevel = "debug"
	}

	vendorConfigs, err := config.LoadVendorConfigs(mainConfig.VendorsDir)
	if err != nil {
		return fmt.Errorf("failed to load vendor configs: %w", err)
	}

	fmt.Printf("Loaded %d vendor configuration(s)\n", len(vendorConfigs))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	var inputFiles []string
	if singlePath != "" {
		if !utils.FileExists(singlePath) {
			return fmt.Errorf("file not found: %s", singlePath)
		}
		inputFiles = []string{singlePath}
	} else {
		fmt.Println("Discovering input files...")
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No invoice files found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Each file runs in its own goroutine; a semaphore bounds the number
	// in flight to max_concurrency.

	fmt.Println("Processing files...")

	var wg sync.WaitGroup
	results := make(chan converter.Result, len(inputFiles))

	maxInFlight := mainConfig.MaxConcurrency
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	semaphore := make(chan struct{}, maxInFlight)

	for _, file := range inputFiles {
		wg.Add(1)

		go func(filePath string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			vendorConfig := selectVendor(filePath, vendorConfigs)
			if vendorConfig == nil {
				results <- converter.Result{
					FilePath: filePath,
					Success:  false,
					Error:    fmt.Errorf("no vendor configuration with code %q", vendorCode),
				}
				return
			}

			conv := converter.New(filePath, vendorConfig, mainConfig)
			results <- conv.Run()
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}
	var errorEntries []utils.ErrorLogEntry

	for result := range results {
		summary.TotalRows += result.Stats.RowsProcessed
		summary.TotalReceipts += result.Stats.ReceiptsCreated
		summary.TotalLineItems += result.Stats.LineItemsCreated
		summary.UnassignedRows += result.Stats.UnassignedRows
		summary.ValidationErrors += result.Stats.ValidationErrors

		if result.Success {
			summary.SuccessfulFiles++
			fmt.Printf("  ✓ %s -> %d receipt(s)\n",
				filepath.Base(result.FilePath), result.Stats.ReceiptsCreated)
		} else {
			summary.FailedFiles++
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     filepath.Base(result.FilePath),
				ErrorType:    "processing",
				ErrorMessage: result.Error.Error(),
			})
		}
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: WRITE LOGS AND PRINT SUMMARY
	// =========================================================================

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:       %d\n", summary.TotalFiles)
	fmt.Printf("Successful:        %d\n", summary.SuccessfulFiles)
	fmt.Printf("Failed:            %d\n", summary.FailedFiles)
	fmt.Printf("Receipts created:  %d\n", summary.TotalReceipts)
	fmt.Printf("Unassigned rows:   %d\n", summary.UnassignedRows)
	fmt.Printf("Validation errors: %d\n", summary.ValidationErrors)
	fmt.Printf("Time elapsed:      %s\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))

	if summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err == nil {
		fmt.Printf("Summary written to: %s\n", summaryPath)
	}

	if len(errorEntries) > 0 {
		if logPath, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir); err == nil && logPath != "" {
			fmt.Printf("Errors logged to:   %s\n", logPath)
		}
	}

	// =========================================================================
	// STEP 6: PRUNE OLD ARCHIVES
	// =========================================================================

	if pruneArchiveDays > 0 {
		maxAge := time.Duration(pruneArchiveDays) * 24 * time.Hour
		for _, dir := range []string{mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir} {
			removed, err := utils.CleanOldArchives(dir, maxAge)
			if err != nil {
				fmt.Printf("Failed to prune %s: %v\n", dir, err)
				continue
			}
			if removed > 0 {
				fmt.Printf("Pruned %d archived file(s) from %s\n", removed, dir)
			}
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d file(s) failed to process", summary.FailedFiles)
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectVendor finds the vendor configuration for a file. The --vendor
// flag forces a configuration by code (nil if the code is unknown);
// otherwise the file name is matched against each vendor's patterns in
// vendor-code order, so overlapping patterns resolve deterministically.
// A file matching no pattern gets the default configuration: canonical
// column names, default vocabularies.
func selectVendor(filePath string, vendorConfigs map[string]*config.VendorConfig) *config.VendorConfig {
	if vendorCode != "" {
		return vendorConfigs[vendorCode]
	}

	fileName := filepath.Base(filePath)

	codes := make([]string, 0, len(vendorConfigs))
	for code := range vendorConfigs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		for _, pattern := range vendorConfigs[code].FileMatchingPatterns {
			matched, err := filepath.Match(pattern, fileName)
			if err != nil {
				// Invalid pattern, skip it.
				continue
			}
			if matched {
				return vendorConfigs[code]
			}
		}
	}

	return config.DefaultVendorConfig()
}
