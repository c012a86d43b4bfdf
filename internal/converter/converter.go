// =============================================================================
// Invoice Receipts - Converter Module
// =============================================================================
//
// This module contains the per-file orchestration logic. It drives the whole
// pipeline for a single vendor export, from parsing to receipt JSON output.
//
// CONVERSION PIPELINE:
//   1. Read the input file (CSV or XLSX)
//   2. Parse rows using the vendor's settings
//   3. Rename vendor columns to the canonical names
//   4. Build the rule engine from the vendor's vocabularies
//   5. Group rows into invoices and assemble receipts
//   6. Validate each receipt
//   7. Write one JSON file per receipt
//   8. Archive the processed files
//
// CONCURRENCY:
//   Each file is processed in its own goroutine. The converter holds no
//   shared mutable state and is safe to run concurrently.
//
// =============================================================================

package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fintech-etl/invoice-receipts/internal/config"
	"github.com/fintech-etl/invoice-receipts/internal/csvparser"
	"github.com/fintech-etl/invoice-receipts/internal/jsonwriter"
	"github.com/fintech-etl/invoice-receipts/internal/processor"
	"github.com/fintech-etl/invoice-receipts/internal/rules"
	"github.com/fintech-etl/invoice-receipts/internal/schema"
	"github.com/fintech-etl/invoice-receipts/internal/validation"
	"github.com/fintech-etl/invoice-receipts/internal/xlsxparser"
	"github.com/fintech-etl/invoice-receipts/pkg/utils"
	"github.com/google/uuid"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles are the paths of the generated receipt JSON files.
	// One file is written per invoice in the input.
	OutputFiles []string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	// This is nil if processing was successful.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows read from the input.
	RowsProcessed int

	// ReceiptsCreated is the number of receipts assembled.
	ReceiptsCreated int

	// LineItemsCreated is the total number of line items across receipts.
	LineItemsCreated int

	// UnassignedRows is the number of rows without an invoice number.
	UnassignedRows int

	// RuleFlags is the number of soft errors raised by the rules while
	// normalizing fields.
	RuleFlags int

	// ValidationErrors is the number of validation errors encountered.
	// If ContinueOnError is true, processing continues despite these errors.
	ValidationErrors int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single vendor export into receipts.
type Converter struct {
	// inputPath is the path to the input file.
	inputPath string

	// vendorConfig is the vendor-specific configuration.
	vendorConfig *config.VendorConfig

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// logger is used for logging.
	logger Logger
}

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input file (.csv or .xlsx).
//   - vendorConfig: The vendor-specific configuration.
//   - mainConfig: The main application configuration.
func New(inputPath string, vendorConfig *config.VendorConfig, mainConfig *config.MainConfig) *Converter {
	return &Converter{
		inputPath:    inputPath,
		vendorConfig: vendorConfig,
		mainConfig:   mainConfig,
		logger:       NewLogger(mainConfig.LogLevel),
	}
}

// SetLogger replaces the converter's logger.
func (c *Converter) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{
		FilePath: c.inputPath,
		Success:  false,
	}

	// =========================================================================
	// STEP 1: READ INPUT FILE
	// =========================================================================
	// The raw bytes feed both the parser and the source fingerprint that
	// becomes part of each receipt's document identifier.

	c.logger.Info("Processing file: %s", c.inputPath)

	contents, err := os.ReadFile(c.inputPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	// =========================================================================
	// STEP 2: PARSE ROWS
	// =========================================================================
	// CSV files go through the vendor's CSV settings (delimiter, header
	// rows, encoding); XLSX workbooks are read from their first sheet.

	rows, err := c.parseRows(contents)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse input: %w", err)
		return result
	}

	result.Stats.RowsProcessed = len(rows)
	c.logger.Debug("Parsed %d rows from %s", len(rows), filepath.Base(c.inputPath))

	// =========================================================================
	// STEP 3: RENAME COLUMNS
	// =========================================================================
	// Vendor-specific headers are renamed to the canonical column names
	// so the rules never have to know about per-vendor naming.

	rows = ApplyAliases(rows, c.vendorConfig.ColumnAliases)

	// =========================================================================
	// STEP 4: BUILD RULE ENGINE
	// =========================================================================
	// An invalid vocabulary is a configuration error, fatal for the file.

	engine, err := rules.New(rules.Tables{
		Categories:    categoryEntries(c.vendorConfig.Categories),
		Units:         unitEntries(c.vendorConfig.Units),
		BeerPackSizes: c.vendorConfig.BeerPackSizes,
	})
	if err != nil {
		result.Error = fmt.Errorf("invalid vendor vocabulary: %w", err)
		return result
	}

	// =========================================================================
	// STEP 5: ASSEMBLE RECEIPTS
	// =========================================================================
	// Rows are grouped by invoice number in first-seen order; each group
	// becomes one receipt. Rows without an invoice number are set aside.

	output, err := processor.New(engine).Process(rows, processor.SourceOf(c.inputPath, contents))
	if err != nil {
		result.Error = fmt.Errorf("failed to assemble receipts: %w", err)
		return result
	}

	result.Stats.ReceiptsCreated = len(output.Receipts)
	result.Stats.UnassignedRows = len(output.Unassigned)
	result.Stats.RuleFlags = len(output.Flags)
	for _, r := range output.Receipts {
		result.Stats.LineItemsCreated += len(r.LineItems)
	}

	for _, flag := range output.Flags {
		c.logger.Warn("Rule flag: %s", flag.String())
	}

	if len(output.Unassigned) > 0 {
		c.logger.Warn("File contains %d rows without an invoice number", len(output.Unassigned))
		if c.mainConfig.RejectUnassigned {
			result.Error = fmt.Errorf("%d rows have no invoice number", len(output.Unassigned))
			return result
		}
	}

	c.logger.Debug("Assembled %d receipts", len(output.Receipts))

	// =========================================================================
	// STEP 6: VALIDATE RECEIPTS
	// =========================================================================
	// Structural checks on each receipt. Warnings are logged; errors fail
	// the file unless ContinueOnError is set.

	for i := range output.Receipts {
		check := validation.CheckReceipt(&output.Receipts[i])
		result.Stats.ValidationErrors += check.ErrorCount

		for _, finding := range check.Findings {
			c.logger.Warn("Validation: %s", finding.Error())
		}
	}

	if result.Stats.ValidationErrors > 0 && !c.mainConfig.ContinueOnError {
		result.Error = fmt.Errorf("validation failed with %d errors", result.Stats.ValidationErrors)
		return result
	}

	c.logger.Debug("Validation complete with %d errors", result.Stats.ValidationErrors)

	// =========================================================================
	// STEP 7: WRITE OUTPUT FILES
	// =========================================================================
	// One JSON file per receipt, named according to OutputNameFormat.

	for i := range output.Receipts {
		outputPath, err := c.writeReceipt(&output.Receipts[i])
		if err != nil {
			result.Error = fmt.Errorf("failed to write output: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, outputPath)
		c.logger.Info("Wrote receipt %s to: %s", output.Receipts[i].ReceiptID, outputPath)
	}

	// =========================================================================
	// STEP 8: ARCHIVE FILES
	// =========================================================================
	// Move the processed files to the archive directories.

	if err := c.archiveFiles(result.OutputFiles); err != nil {
		// Log the error but don't fail the processing.
		c.logger.Warn("Failed to archive files: %v", err)
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parseRows decodes the input by extension. CSV is the primary path;
// XLSX covers vendors that only export workbooks.
func (c *Converter) parseRows(contents []byte) ([]schema.RawRow, error) {
	switch strings.ToLower(filepath.Ext(c.inputPath)) {
	case ".csv", ".txt":
		data, err := csvparser.Parse(contents, c.vendorConfig.CSVSettings)
		if err != nil {
			return nil, err
		}
		return data.Rows, nil

	case ".xlsx":
		data, err := xlsxparser.Parse(contents)
		if err != nil {
			return nil, err
		}
		return data.Rows, nil

	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(c.inputPath))
	}
}

// categoryEntries converts configuration mappings to rule entries.
func categoryEntries(mappings []config.CategoryMapping) []rules.CategoryEntry {
	entries := make([]rules.CategoryEntry, len(mappings))
	for i, m := range mappings {
		entries[i] = rules.CategoryEntry{Match: m.Match, Category: m.Category}
	}
	return entries
}

// unitEntries converts configuration mappings to rule entries.
func unitEntries(mappings []config.UnitMapping) []rules.UnitEntry {
	entries := make([]rules.UnitEntry, len(mappings))
	for i, m := range mappings {
		entries[i] = rules.UnitEntry{Code: m.Code, Unit: m.Unit}
	}
	return entries
}

// writeReceipt writes one receipt to the output directory.
//
// FILE NAMING:
//   The output file is named according to the OutputNameFormat in the main
//   configuration. Placeholders are replaced with actual values:
//   - {uuid}: A random UUID
//   - {timestamp}: Current timestamp
//   - {vendor}: Vendor code
//   - {invoice}: Invoice number
func (c *Converter) writeReceipt(r *schema.Receipt) (string, error) {
	fileName := c.generateOutputFileName(r)
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	if err := jsonwriter.Write(r, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// generateOutputFileName generates the output file name for a receipt.
func (c *Converter) generateOutputFileName(r *schema.Receipt) string {
	fileName := c.mainConfig.OutputNameFormat
	fileName = strings.ReplaceAll(fileName, "{uuid}", uuid.New().String())
	fileName = strings.ReplaceAll(fileName, "{timestamp}", time.Now().Format("20060102_150405"))
	fileName = strings.ReplaceAll(fileName, "{vendor}", safeNamePart(c.vendorConfig.VendorCode))
	fileName = strings.ReplaceAll(fileName, "{invoice}", safeNamePart(r.ReceiptID))

	// Ensure the file has a .json extension.
	if filepath.Ext(fileName) != ".json" {
		fileName += ".json"
	}

	return fileName
}

// safeNamePart strips path separators and whitespace from values that
// end up in file names. Invoice numbers come from vendor data.
func safeNamePart(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "_")
	return replacer.Replace(s)
}

// archiveFiles moves the processed files to the archive directories.
//
// ARCHIVAL LOGIC:
//   - The input file is moved to the input archive directory.
//   - Each receipt JSON is copied to the output archive directory.
func (c *Converter) archiveFiles(outputPaths []string) error {
	fm := utils.NewFileManager(
		c.mainConfig.InputDir,
		c.mainConfig.OutputDir,
		c.mainConfig.InputArchiveDir,
		c.mainConfig.OutputArchiveDir,
	)

	if _, err := fm.ArchiveInputFile(c.inputPath); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}

	for _, outputPath := range outputPaths {
		if _, err := fm.ArchiveOutputFile(outputPath); err != nil {
			return fmt.Errorf("failed to archive output file: %w", err)
		}
	}

	return nil
}
