// =============================================================================
// Invoice Receipts - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - rules
//   - processor
//   - validation
//   - jsonwriter
//
// =============================================================================

package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW ROW
// =============================================================================

// RawRow is a single decoded CSV/XLSX line: column name -> raw string value.
// Values are untyped and may be blank; the rules engine resolves them to
// safe defaults. A RawRow is ephemeral and consumed once.
type RawRow map[string]string

// Text returns the trimmed value of a column, or "" when the column is
// missing. Blank and missing columns are deliberately indistinguishable:
// vendors omit optional columns entirely or ship them empty, and both
// cases mean "no value".
func (r RawRow) Text(key string) string {
	return strings.TrimSpace(r[key])
}

// Has reports whether the column carries a non-blank value.
func (r RawRow) Has(key string) bool {
	return r.Text(key) != ""
}

// SourceRow pairs a RawRow with its position in the source file, for
// diagnostics and for preserving line-item order inside a receipt.
type SourceRow struct {
	// Number is the 1-indexed data row number in the source file.
	Number int

	// Fields contains the decoded column values.
	Fields RawRow
}

// =============================================================================
// CATEGORY
// =============================================================================

// Category is the normalized product category derived from a vendor
// general-ledger code. Unknown GL codes map to CategoryUnknown; they must
// never abort processing.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBeer
	CategoryWine
	CategorySpirits
	CategoryNonAlcoholic
	CategoryMiscellaneous
)

// String returns the canonical wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryBeer:
		return "BEER"
	case CategoryWine:
		return "WINE"
	case CategorySpirits:
		return "SPIRITS"
	case CategoryNonAlcoholic:
		return "NON-ALCOHOLIC"
	case CategoryMiscellaneous:
		return "MISCELLANEOUS"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory maps a category name (as written in vendor configuration
// files) to its Category value. Unrecognized names yield CategoryUnknown.
func ParseCategory(name string) Category {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BEER":
		return CategoryBeer
	case "WINE":
		return CategoryWine
	case "SPIRITS":
		return CategorySpirits
	case "NON-ALCOHOLIC", "NON_ALCOHOLIC", "NONALCOHOLIC":
		return CategoryNonAlcoholic
	case "MISCELLANEOUS", "MISC":
		return CategoryMiscellaneous
	default:
		return CategoryUnknown
	}
}

// =============================================================================
// UNIT OF MEASURE
// =============================================================================

// UnitKind enumerates the recognized unit-of-measure variants.
type UnitKind int

const (
	UnitUnit UnitKind = iota
	UnitCase
	UnitBottle
	UnitEach
	UnitOther
)

// UnitOfMeasure is the normalized unit derived from a short vendor unit
// code (CA, BO, EA, ...). Unrecognized codes become UnitOther and keep the
// raw code for diagnostics instead of being silently dropped.
type UnitOfMeasure struct {
	Kind UnitKind

	// Raw is the original vendor code. Set only for UnitOther.
	Raw string
}

// String returns the canonical wire name of the unit. UnitOther passes the
// original vendor code through, lowercased.
func (u UnitOfMeasure) String() string {
	switch u.Kind {
	case UnitCase:
		return "case"
	case UnitBottle:
		return "bottle"
	case UnitEach:
		return "each"
	case UnitOther:
		if u.Raw != "" {
			return strings.ToLower(u.Raw)
		}
		return "unit"
	default:
		return "unit"
	}
}

// ParseUnitKind maps a unit name (as written in vendor configuration
// files) to its UnitKind. Unrecognized names yield UnitOther.
func ParseUnitKind(name string) UnitKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "case":
		return UnitCase
	case "bottle":
		return UnitBottle
	case "each":
		return UnitEach
	case "unit":
		return UnitUnit
	default:
		return UnitOther
	}
}

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is one derived invoice line. It is immutable once built:
// quantity is never negative, code fields are fixed-width numeric strings
// or empty (empty means absent).
type LineItem struct {
	// Name is the product description.
	Name string

	// Qty is the effective shipped quantity after pack-size expansion.
	Qty int64

	// Price is the unit price from the invoice line.
	Price decimal.Decimal

	// Discount is the discount magnitude for the line.
	Discount decimal.Decimal

	// Tax is the tax amount for the line.
	Tax decimal.Decimal

	// UPC is the primary product code: first non-blank of Pack UPC,
	// Clean UPC, Case UPC, formatted to 14 digits. Empty when no
	// candidate column carried a value.
	UPC string

	// SKU is the secondary code, formatted from the Case UPC column.
	SKU string

	// Text is the original product description segment.
	Text string

	// UnitOfMeasure is the normalized unit.
	UnitOfMeasure UnitOfMeasure

	// Category is the normalized product category.
	Category Category

	// Notes concatenates the non-zero adjustment columns, or "" when the
	// line carries no adjustments.
	Notes string
}

// =============================================================================
// RECEIPT
// =============================================================================

// Receipt is the normalized record produced for one invoice group. It is
// constructed once per processing run and handed to the delivery layer
// unchanged.
type Receipt struct {
	// ReceiptID is the vendor invoice number.
	ReceiptID string

	// Vendor is the vendor name from the invoice header.
	Vendor string

	// Date is the invoice date.
	Date time.Time

	// TotalAmount is the invoice total. Vendor-supplied header totals are
	// trusted over a sum of line items; see processor.Assemble.
	TotalAmount decimal.Decimal

	// SalesTax is the invoice-level tax amount.
	SalesTax decimal.Decimal

	// Subtotal is the pre-tax amount.
	Subtotal decimal.Decimal

	// ItemCount is always len(LineItems), recomputed and never trusted
	// from the source file.
	ItemCount int

	// LineItems holds the derived lines in source row order.
	LineItems []LineItem

	// SourceFile identifies the originating file.
	SourceFile string

	// DocumentID is the traceability key: source hash + invoice number +
	// processing timestamp.
	DocumentID string

	// ProcessedAt is the processing timestamp used in DocumentID.
	ProcessedAt time.Time

	// Warnings records group-level soft errors (header fields that
	// disagreed across rows, header counts that did not match). They do
	// not fail the receipt.
	Warnings []string
}
