// =============================================================================
// Invoice Receipts - Code Extractor
// =============================================================================
//
// Selects and formats a product identifier from the three candidate UPC
// columns. Vendors populate the columns unevenly depending on packaging
// granularity, so the extractor tries a fixed priority order and takes the
// first non-blank candidate:
//
//   Pack UPC  ->  Clean UPC  ->  Case UPC
//
// A row with no candidate yields an absent primary code; callers must
// handle an item without a product code.
//
// =============================================================================

package rules

import (
	"strings"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// codeWidth is the fixed width of a formatted product code (GTIN-14).
const codeWidth = 14

// upcColumns lists the candidate columns in priority order. Expressed as a
// slice rather than nested conditionals so the priority is visible in one
// place.
var upcColumns = []string{"Pack UPC", "Clean UPC", "Case UPC"}

// colCaseUPC is the source of the secondary (SKU) code.
const colCaseUPC = "Case UPC"

// ExtractCodes selects the primary and secondary product codes for a row.
// The primary code is the first non-blank candidate from upcColumns; the
// secondary is the Case UPC, independently formatted. Either may be ""
// (absent); that is not an error condition.
func ExtractCodes(row schema.RawRow, d *Diagnostics, rowNum int) (primary, secondary string) {
	for _, col := range upcColumns {
		code, oversize := FormatCode(row.Text(col))
		if code == "" {
			continue
		}
		if oversize {
			d.Addf(rowNum, col, FlagOversizeCode, "code %q exceeds %d digits, kept as-is for review", code, codeWidth)
		}
		primary = code
		break
	}

	code, oversize := FormatCode(row.Text(colCaseUPC))
	if oversize {
		d.Addf(rowNum, colCaseUPC, FlagOversizeCode, "code %q exceeds %d digits, kept as-is for review", code, codeWidth)
	}
	secondary = code

	return primary, secondary
}

// FormatCode normalizes one raw code value: non-digit characters are
// stripped and the result is left-padded with zeros to 14 digits. A code
// that is still longer than 14 digits after stripping is returned as-is
// (never truncated, truncation would corrupt the identifier) with
// oversize=true so the row can be flagged for review. A value with no
// digits at all formats to "" (absent).
func FormatCode(raw string) (code string, oversize bool) {
	digits := stripNonDigits(raw)
	if digits == "" {
		return "", false
	}
	if len(digits) > codeWidth {
		return digits, true
	}
	return strings.Repeat("0", codeWidth-len(digits)) + digits, false
}

// stripNonDigits removes everything but ASCII digits. Vendors embed
// hyphens, spaces and check-digit separators in UPC exports.
func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
