// =============================================================================
// Invoice Receipts - Field Normalizer
// =============================================================================
//
// Canonicalizes raw vendor unit-of-measure and category codes into the fixed
// vocabulary. These are pure lookups over the engine's tables:
// case-insensitive, whitespace-trimmed, and total. Unknown input produces
// the fallback variant (OTHER / UNKNOWN) so one bad vendor code cannot halt
// an entire invoice.
//
// =============================================================================

package rules

import (
	"strings"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// Source columns read by the normalizer.
const (
	colGLCode       = "GL Code"
	colProductClass = "Product Class"
	colUnit         = "Unit Of Measure"
)

// NormalizeUnit maps a short vendor unit code to a UnitOfMeasure. A blank
// code means "unit"; an unrecognized code passes through as OTHER carrying
// the raw code for diagnostics, never silently dropped.
func (e *Engine) NormalizeUnit(raw string) schema.UnitOfMeasure {
	code := normalizeKey(raw)
	if code == "" {
		return schema.UnitOfMeasure{Kind: schema.UnitUnit}
	}
	if kind, ok := e.units[code]; ok {
		return schema.UnitOfMeasure{Kind: kind}
	}
	return schema.UnitOfMeasure{Kind: schema.UnitOther, Raw: strings.TrimSpace(raw)}
}

// NormalizeCategory maps a GL code to a Category. The normalized code is
// looked up exactly first; failing that, table entries are scanned in
// declaration order for a fragment contained in the code (GL codes are
// frequently composites like "5010-BEER-DOMESTIC"). Unknown codes map to
// CategoryUnknown and never fail.
func (e *Engine) NormalizeCategory(glCode string) schema.Category {
	code := normalizeKey(glCode)
	if code == "" {
		return schema.CategoryUnknown
	}
	if cat, ok := e.categoryExact[code]; ok {
		return cat
	}
	for _, pattern := range e.categoryScan {
		if strings.Contains(code, pattern.fragment) {
			return pattern.category
		}
	}
	return schema.CategoryUnknown
}

// CategorizeRow derives the category for one row: NormalizeCategory on the
// GL code, refined by the Product Class column: a non-alcoholic GL code
// whose product class reads MISCELLANEOUS is reclassified, because vendors
// file sundries (cups, ice, CO2) under the non-alcoholic ledger.
func (e *Engine) CategorizeRow(row schema.RawRow, d *Diagnostics, rowNum int) schema.Category {
	cat := e.NormalizeCategory(row.Text(colGLCode))

	if cat == schema.CategoryNonAlcoholic {
		if strings.Contains(normalizeKey(row.Text(colProductClass)), "MISCELLANEOUS") {
			return schema.CategoryMiscellaneous
		}
	}

	if cat == schema.CategoryUnknown && row.Has(colGLCode) {
		d.Addf(rowNum, colGLCode, FlagUnknownCategory, "unrecognized GL code %q", row.Text(colGLCode))
	}
	return cat
}

// UnitForRow derives the unit of measure for one row, flagging codes that
// fall through to OTHER.
func (e *Engine) UnitForRow(row schema.RawRow, d *Diagnostics, rowNum int) schema.UnitOfMeasure {
	unit := e.NormalizeUnit(row.Text(colUnit))
	if unit.Kind == schema.UnitOther {
		d.Addf(rowNum, colUnit, FlagUnknownUnit, "unrecognized unit code %q", unit.Raw)
	}
	return unit
}
