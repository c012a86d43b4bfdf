// =============================================================================
// Invoice Receipts - Price Resolver
// =============================================================================
//
// Extracts the money fields of a line: unit price, discount and tax, each
// read from its own source column, never inferred from price deltas.
// Amounts are decimal.Decimal end to end; float64 drift on money columns is
// exactly the class of bug this module exists to avoid.
//
// Blank and non-numeric values resolve to zero. Malformed (non-blank,
// non-numeric) text additionally flags the row so it surfaces for review
// instead of aborting the invoice.
//
// =============================================================================

package rules

import (
	"github.com/shopspring/decimal"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// Money source columns.
const (
	colExtendedPrice = "Extended Price"
	colDiscountAdj   = "Discount Adjustment Total"
	colDepositAdj    = "DepositAdjustmentTotal"
	colMiscAdj       = "Miscellaneous Adjustment Total"
	colTaxAdj        = "Tax Adjustment Total"
	colDeliveryAdj   = "Delivery Adjustment Total"
)

// PriceFields carries the resolved money components of one line. All
// values are non-negative.
type PriceFields struct {
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
}

// ResolvePrice reads the price, discount and tax columns of a row.
// Discounts arrive as negative adjustment totals in vendor exports; the
// resolver reports the magnitude. A negative price or tax is floored at
// zero and flagged: negative money on those columns is vendor data
// corruption, not a business meaning.
func ResolvePrice(row schema.RawRow, d *Diagnostics, rowNum int) PriceFields {
	price := ParseDecimal(row, colExtendedPrice, d, rowNum)
	if price.IsNegative() {
		d.Addf(rowNum, colExtendedPrice, FlagNegativeAmount, "negative price %s treated as 0", price)
		price = decimal.Zero
	}

	tax := ParseDecimal(row, colTaxAdj, d, rowNum)
	if tax.IsNegative() {
		d.Addf(rowNum, colTaxAdj, FlagNegativeAmount, "negative tax %s treated as 0", tax)
		tax = decimal.Zero
	}

	return PriceFields{
		UnitPrice: price,
		Discount:  ParseDecimal(row, colDiscountAdj, d, rowNum).Abs(),
		Tax:       tax,
	}
}

// AdjustmentNotes concatenates the non-zero adjustment columns into the
// free-text notes field ("Discount: -1.50; Deposit: 0.30"), or returns ""
// when the line carries no adjustments.
func AdjustmentNotes(row schema.RawRow) string {
	adjustments := []struct {
		label string
		col   string
	}{
		{"Discount", colDiscountAdj},
		{"Deposit", colDepositAdj},
		{"Miscellaneous", colMiscAdj},
		{"Delivery", colDeliveryAdj},
	}

	var notes string
	for _, adj := range adjustments {
		value := ParseDecimal(row, adj.col, nil, 0)
		if value.IsZero() {
			continue
		}
		if notes != "" {
			notes += "; "
		}
		notes += adj.label + ": " + value.StringFixed(2)
	}
	return notes
}

// ParseDecimal reads a numeric column with exact decimal semantics. Blank
// or missing columns resolve to zero silently; malformed text resolves to
// zero and flags the row.
func ParseDecimal(row schema.RawRow, key string, d *Diagnostics, rowNum int) decimal.Decimal {
	text := row.Text(key)
	if text == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		d.Addf(rowNum, key, FlagMalformedNumber, "value %q is not numeric, treated as 0", text)
		return decimal.Zero
	}
	return value
}
