// =============================================================================
// Invoice Receipts - CSV Parser Module
// =============================================================================
//
// This module decodes vendor invoice CSV exports into RawRow maps. It
// handles the format quirks of legacy vendor systems:
//   - Different delimiters (comma, pipe, tab)
//   - Multi-line headers
//   - Custom data start rows
//   - Non-UTF-8 encodings (ISO-8859-1, Windows-1252)
//   - Inconsistent column counts across rows
//
// Decoding stops here: everything downstream consumes field-name -> value
// maps and never touches bytes.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/fintech-etl/invoice-receipts/internal/config"
	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents one decoded CSV file.
type CSVData struct {
	// Headers contains the column headers. For multi-line headers, these
	// are the merged headers.
	Headers []string

	// Rows contains the data rows as column -> value maps.
	Rows []schema.RawRow

	// SourceFile is the path to the source file, when read from disk.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads and decodes a CSV file from disk.
func ParseFile(filePath string, settings config.CSVSettings) (*CSVData, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, err := Parse(contents, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// Parse decodes CSV contents already in memory.
//
// PROCESS:
//   1. Decode the byte stream with the configured character encoding
//   2. Read all records with the configured delimiter
//   3. Merge header rows into a single header set
//   4. Convert each data row to a column -> value map
func Parse(contents []byte, settings config.CSVSettings) (*CSVData, error) {
	reader, err := decodingReader(contents, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &CSVData{
		Headers: headers,
		Rows:    extractDataRows(allRows, headers, settings),
	}, nil
}

// decodingReader wraps the contents in a reader for the configured
// encoding. UTF-8 input passes through untouched.
func decodingReader(contents []byte, encoding string) (io.Reader, error) {
	base := bytes.NewReader(contents)

	switch strings.ToUpper(strings.TrimSpace(encoding)) {
	case "", "UTF-8", "UTF8":
		return base, nil
	case "ISO-8859-1", "LATIN1":
		return transform.NewReader(base, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(base, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// configureReader applies the delimiter and leniency settings. Vendor
// exports are not strict CSV: rows drop trailing columns and quoting is
// inconsistent.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// extractHeaders merges the configured number of header rows into one
// header set. Multi-line headers concatenate the non-empty cells of each
// column top to bottom ("Invoice" / "Number" -> "Invoice Number").
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	if settings.HeaderRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if settings.HeaderRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < settings.HeaderRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < settings.HeaderRows; row++ {
			if col < len(allRows[row]) {
				if value := strings.TrimSpace(allRows[row][col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names blank ones by position so row maps
// never collide on "".
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// extractDataRows converts data rows to maps, skipping empty rows. A row
// shorter than the header set gets "" for its missing columns.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []schema.RawRow {
	startIndex := settings.DataStartRow - 1
	if startIndex < 0 {
		startIndex = settings.HeaderRows
	}
	if startIndex >= len(allRows) {
		return []schema.RawRow{}
	}

	dataRows := make([]schema.RawRow, 0, len(allRows)-startIndex)
	for _, row := range allRows[startIndex:] {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(schema.RawRow, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				rowMap[header] = ""
			}
		}
		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty reports whether every cell of a row is blank.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
