// =============================================================================
// Invoice Receipts - XLSX Parser Module
// =============================================================================
//
// This module decodes vendor invoice XLSX exports into the same RawRow maps
// the CSV parser produces. Several distributors ship spreadsheets instead
// of CSV; after this module the pipeline cannot tell the difference.
//
// Only the first sheet is read. Excelize returns formatted cell values, so
// dates and numbers arrive as the strings the vendor's export wrote, which
// is exactly what the rules engine expects.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// XLSXData represents one decoded XLSX file.
type XLSXData struct {
	// SheetName is the sheet the rows were read from.
	SheetName string

	// Headers contains the column headers from the first row.
	Headers []string

	// Rows contains the data rows as column -> value maps.
	Rows []schema.RawRow

	// SourceFile is the path to the source file, when read from disk.
	SourceFile string
}

// ParseFile reads and decodes an XLSX file from disk.
func ParseFile(filePath string) (*XLSXData, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, err := Parse(contents)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// Parse decodes XLSX contents already in memory. The first sheet's first
// row is the header row; every following non-empty row becomes a RawRow.
func Parse(contents []byte) (*XLSXData, error) {
	book, err := excelize.OpenReader(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	allRows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	headers := cleanHeaders(allRows[0])

	dataRows := make([]schema.RawRow, 0, len(allRows)-1)
	for _, row := range allRows[1:] {
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

	return &XLSXData{
		SheetName: sheet,
		Headers:   headers,
		Rows:      dataRows,
	}, nil
}

// cleanHeaders trims headers and names blank ones by position.
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

// isRowEmpty reports whether every cell of a row is blank.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
