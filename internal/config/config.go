// =============================================================================
// Invoice Receipts - Configuration Module
// =============================================================================
//
// This module loads and manages all configuration files. It handles both
// the main application configuration and vendor-specific configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Vendor Configs (vendors/*.yaml): Vendor-specific vocabularies
//
// ARCHITECTURE:
//   The configuration system is designed to be:
//   - Modular: Each vendor has its own configuration file
//   - Extensible: New vendors can be added without code changes
//   - Validated: All configurations are validated on load
//
// The vendor vocabularies (GL-code -> category, unit-code -> unit of
// measure, beer pack sizes) live here rather than in the rules engine so
// that per-vendor overrides never require touching the rule logic.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration, loaded from the
// main config.yaml file.
type MainConfig struct {
	// InputDir is the directory scanned for vendor invoice exports
	// (.csv or .xlsx). Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where receipt JSON files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is where processed input files are moved after
	// successful processing. Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir is where generated receipt files are archived for
	// long-term storage. Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// VendorsDir is the directory containing vendor-specific
	// configurations. Each YAML file represents one vendor's vocabulary.
	// Default: "./vendors"
	VendorsDir string `yaml:"vendors_dir"`

	// LogLevel controls logging verbosity: "debug", "info", "warn",
	// "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// OutputNameFormat defines receipt output file names. Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Processing timestamp (YYYYMMDD_HHMMSS)
	//   {vendor}    - Vendor code
	//   {invoice}   - Invoice number
	// Default: "{vendor}_{invoice}_{uuid}.json"
	OutputNameFormat string `yaml:"output_name_format"`

	// MaxConcurrency is the maximum number of files processed at once.
	// Set to 1 for sequential processing. Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// RejectUnassigned fails a file that contains rows with a blank
	// invoice number. When false (default) those rows are reported for
	// review and the rest of the file is processed.
	RejectUnassigned bool `yaml:"reject_unassigned"`
}

// =============================================================================
// VENDOR CONFIGURATION STRUCTURE
// =============================================================================

// VendorConfig holds one vendor's file matching rules, parsing settings
// and rule vocabularies.
type VendorConfig struct {
	// VendorName is the human-readable vendor name, used in logs.
	VendorName string `yaml:"vendor_name"`

	// VendorCode is a short code for the vendor, used in output file
	// names.
	VendorCode string `yaml:"vendor_code"`

	// FileMatchingPatterns is a list of glob patterns; a file matching
	// any of them is processed with this vendor's configuration.
	// Examples: "southern_glazer_*.csv", "*_invoices_*.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings configures decoding of this vendor's CSV exports.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// ColumnAliases renames vendor columns to the canonical names the
	// rules read ("Invoice Number", "GL Code", ...). Key is the vendor's
	// header, value is the canonical header.
	//
	// CUSTOMIZATION: add aliases here when a vendor renames a column;
	// the rules themselves never change.
	ColumnAliases map[string]string `yaml:"column_aliases,omitempty"`

	// Categories maps GL codes (or GL-code fragments) to categories, in
	// match priority order. When empty, the default table applies.
	Categories []CategoryMapping `yaml:"categories,omitempty"`

	// Units maps short vendor unit codes to units of measure. When
	// empty, the default table applies.
	Units []UnitMapping `yaml:"units,omitempty"`

	// BeerPackSizes lists packs-per-case values that trigger the
	// units-per-pack multiplier for beer. Default: [12, 24]
	BeerPackSizes []int64 `yaml:"beer_pack_sizes,omitempty"`
}

// CategoryMapping is one GL-code -> category entry.
type CategoryMapping struct {
	// Match is the GL code or fragment, matched case-insensitively.
	Match string `yaml:"match"`

	// Category is the target category name: BEER, WINE, SPIRITS,
	// NON-ALCOHOLIC or MISCELLANEOUS.
	Category string `yaml:"category"`
}

// UnitMapping is one unit-code -> unit entry.
type UnitMapping struct {
	// Code is the short vendor code, matched case-insensitively.
	Code string `yaml:"code"`

	// Unit is the target unit name: case, bottle, each or unit.
	Unit string `yaml:"unit"`
}

// CSVSettings contains settings for decoding CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Common values: "," (comma), "|"
	// (pipe), "\t" (tab). Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins. Default: 2
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of the file. Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// DEFAULT VOCABULARIES
// =============================================================================

// DefaultCategories is the built-in GL-code vocabulary, applied when a
// vendor configuration does not override it. Fragments, not full codes:
// vendor GL codes are composites like "5010-BEER-DOMESTIC".
func DefaultCategories() []CategoryMapping {
	return []CategoryMapping{
		{Match: "BEER", Category: "BEER"},
		{Match: "WINE", Category: "WINE"},
		{Match: "SPIRIT", Category: "SPIRITS"},
		{Match: "NONALCOHOL", Category: "NON-ALCOHOLIC"},
		{Match: "NON-ALCOHOL", Category: "NON-ALCOHOLIC"},
		{Match: "MISC", Category: "MISCELLANEOUS"},
	}
}

// DefaultUnits is the built-in unit-code vocabulary.
func DefaultUnits() []UnitMapping {
	return []UnitMapping{
		{Code: "CA", Unit: "case"},
		{Code: "CASE", Unit: "case"},
		{Code: "BO", Unit: "bottle"},
		{Code: "BOTTLE", Unit: "bottle"},
		{Code: "EA", Unit: "each"},
		{Code: "EACH", Unit: "each"},
		{Code: "UN", Unit: "unit"},
		{Code: "UNIT", Unit: "unit"},
	}
}

// DefaultBeerPackSizes are the pack configurations with special beer
// handling.
func DefaultBeerPackSizes() []int64 {
	return []int64{12, 24}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and validates it.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for unset options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.VendorsDir == "" {
		config.VendorsDir = "./vendors"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{vendor}_{invoice}_{uuid}.json"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
}

// validateMainConfig ensures required directories exist, creating them
// when missing.
func validateMainConfig(config *MainConfig) error {
	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.VendorsDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// LoadVendorConfigs loads all vendor configurations from a directory,
// keyed by vendor code (or file name when no code is set).
func LoadVendorConfigs(vendorsDir string) (map[string]*VendorConfig, error) {
	configs := make(map[string]*VendorConfig)

	files, err := filepath.Glob(filepath.Join(vendorsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor configs: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(vendorsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor configs: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := loadVendorConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := config.VendorCode
		if key == "" {
			key = filepath.Base(file)
		}
		configs[key] = config
	}

	return configs, nil
}

// loadVendorConfig loads a single vendor configuration file.
func loadVendorConfig(filePath string) (*VendorConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config VendorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	ApplyVendorDefaults(&config)

	return &config, nil
}

// ApplyVendorDefaults fills unset vendor settings, including the default
// rule vocabularies.
func ApplyVendorDefaults(config *VendorConfig) {
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}

	if len(config.Categories) == 0 {
		config.Categories = DefaultCategories()
	}
	if len(config.Units) == 0 {
		config.Units = DefaultUnits()
	}
	if len(config.BeerPackSizes) == 0 {
		config.BeerPackSizes = DefaultBeerPackSizes()
	}
}

// DefaultVendorConfig returns the configuration used for files that match
// no vendor pattern: canonical column names, default vocabularies.
func DefaultVendorConfig() *VendorConfig {
	config := &VendorConfig{
		VendorName: "Default",
		VendorCode: "default",
	}
	ApplyVendorDefaults(config)
	return config
}
