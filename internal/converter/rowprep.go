// =============================================================================
// Invoice Receipts - Row Preparation
// =============================================================================
//
// Vendors rarely agree on column names: one exports "Invoice #", another
// "INV_NUM". Row preparation renames vendor columns to the canonical
// names before any rule sees the data, so the rules themselves stay
// vendor-agnostic.
//
// VENDOR-SPECIFIC ALIASES:
//   Each vendor can define column aliases in their configuration file.
//   Common use cases include:
//   - Invoice number column renames ("Invoice #" -> "Invoice Number")
//   - Code column renames ("ItemUPC" -> "Clean UPC")
//   - Quantity column renames ("Qty Shipped" -> "Quantity")
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// ApplyAliases renames columns on every row according to the vendor's
// alias table. Keys are the vendor's headers, values the canonical
// names. Columns without an alias pass through unchanged; an alias
// never overwrites a column the row already has under the canonical
// name.
//
// The input rows are not modified.
func ApplyAliases(rows []schema.RawRow, aliases map[string]string) []schema.RawRow {
	if len(aliases) == 0 || len(rows) == 0 {
		return rows
	}

	// Alias headers are matched case-insensitively; vendors are not
	// consistent about capitalization between exports.
	folded := make(map[string]string, len(aliases))
	for from, to := range aliases {
		folded[foldHeader(from)] = to
	}

	prepared := make([]schema.RawRow, len(rows))
	for i, row := range rows {
		out := make(schema.RawRow, len(row))

		// Canonical columns first, so aliases cannot clobber them.
		for column, value := range row {
			if _, isAliased := folded[foldHeader(column)]; !isAliased {
				out[column] = value
			}
		}
		for column, value := range row {
			canonical, isAliased := folded[foldHeader(column)]
			if !isAliased {
				continue
			}
			if _, exists := out[canonical]; !exists {
				out[canonical] = value
			}
		}

		prepared[i] = out
	}

	return prepared
}

// foldHeader normalizes a header for alias matching.
func foldHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
