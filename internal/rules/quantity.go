// =============================================================================
// Invoice Receipts - Quantity Calculator
// =============================================================================
//
// Computes the effective shipped quantity for a line. Vendors report case
// counts, but downstream billing wants sellable units, so the raw quantity
// is expanded by category-specific pack multipliers.
//
// Decision order (first matching rule wins):
//   1. Unit BOTTLE: the raw quantity is already in sellable units.
//   2. Raw quantity 0: short-circuit to 0 before touching pack columns,
//      which may themselves be malformed on zero-quantity adjustment rows.
//   3. BEER: qty x packs-per-case, and additionally x units-per-pack when
//      packs-per-case is one of the configured special sizes (12/24-pack
//      configurations, where the vendor subdivides the case).
//   4. WINE: qty x packs-per-case only. Wine cases are not subdivided into
//      multi-unit packs in this rule set.
//   5. SPIRITS / NON-ALCOHOLIC / MISCELLANEOUS / UNKNOWN: qty x
//      packs-per-case. UNKNOWN intentionally behaves like SPIRITS so an
//      unrecognized GL code still yields a sane quantity.
//
// A missing or non-positive multiplier column is treated as 1 (identity),
// never 0: a missing optional column must not zero out a line.
//
// =============================================================================

package rules

import (
	"github.com/shopspring/decimal"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// Pack-size source columns.
const (
	colQuantity     = "Quantity"
	colPacksPerCase = "Packs Per Case"
	colUnitsPerPack = "Units Per Pack"
)

// ComputeQuantity returns the effective quantity for a row given its
// normalized unit and category. The result is never negative.
func (e *Engine) ComputeQuantity(row schema.RawRow, unit schema.UnitOfMeasure, category schema.Category, d *Diagnostics, rowNum int) int64 {
	qty := ParseDecimal(row, colQuantity, d, rowNum)

	if unit.Kind == schema.UnitBottle {
		return clampQty(qty.IntPart())
	}

	if !qty.IsPositive() {
		return 0
	}

	packs := multiplier(row, colPacksPerCase, d, rowNum)

	switch category {
	case schema.CategoryBeer:
		if e.beerPacks[packs.IntPart()] {
			units := multiplier(row, colUnitsPerPack, d, rowNum)
			return qty.Mul(packs).Mul(units).IntPart()
		}
		return qty.Mul(packs).IntPart()

	case schema.CategoryWine:
		// Never apply units-per-pack here, even when the column is populated.
		return qty.Mul(packs).IntPart()

	default:
		return qty.Mul(packs).IntPart()
	}
}

// multiplier reads a pack-size column as a multiplier: blank, malformed or
// non-positive values become the identity.
func multiplier(row schema.RawRow, key string, d *Diagnostics, rowNum int) decimal.Decimal {
	value := ParseDecimal(row, key, d, rowNum)
	if !value.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return value
}

func clampQty(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q
}
