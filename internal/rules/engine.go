// =============================================================================
// Invoice Receipts - Rules Engine
// =============================================================================
//
// The Engine holds the injected vendor vocabularies (GL-code -> category,
// unit-code -> unit of measure, beer pack sizes) and exposes the business
// rules that turn a raw invoice row into line-item fields:
//
//   - NormalizeUnit / NormalizeCategory (field normalizer)
//   - ExtractCodes                      (UPC/SKU extraction)
//   - ResolvePrice                      (price, discount, tax)
//   - ComputeQuantity                   (pack-size expansion)
//
// The engine is stateless per invocation and safe for concurrent use: the
// tables are fixed at construction and never mutated afterwards, so one
// Engine can serve any number of files in parallel.
//
// =============================================================================

package rules

import (
	"fmt"
	"strings"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// =============================================================================
// LOOKUP TABLES
// =============================================================================

// CategoryEntry maps a GL-code fragment to a category name. Entries are
// matched in order: an exact match on the normalized GL code wins, then the
// first entry whose fragment is contained in the GL code.
type CategoryEntry struct {
	// Match is the GL-code value or fragment, compared case-insensitively.
	Match string

	// Category is the target category name ("BEER", "WINE", ...).
	Category string
}

// UnitEntry maps a short vendor unit code to a unit name.
type UnitEntry struct {
	// Code is the vendor code ("CA", "BO", ...), compared case-insensitively.
	Code string

	// Unit is the target unit name ("case", "bottle", "each", "unit").
	Unit string
}

// Tables carries the injected vendor vocabularies. They are configuration,
// not code: per-vendor overrides extend them without touching the rules.
type Tables struct {
	// Categories maps GL codes to categories, in match priority order.
	Categories []CategoryEntry

	// Units maps short unit codes to units of measure.
	Units []UnitEntry

	// BeerPackSizes lists the packs-per-case values that trigger the
	// units-per-pack multiplier for beer (12 and 24 in every vendor
	// vocabulary seen so far).
	BeerPackSizes []int64
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies the business rules for one vendor vocabulary.
type Engine struct {
	categoryExact map[string]schema.Category
	categoryScan  []categoryPattern
	units         map[string]schema.UnitKind
	beerPacks     map[int64]bool
}

type categoryPattern struct {
	fragment string
	category schema.Category
}

// New builds an Engine from the given tables. Missing tables are a fatal
// error: without them every row would be unprocessable, so this fails
// immediately rather than degrading per row.
func New(tables Tables) (*Engine, error) {
	if len(tables.Categories) == 0 {
		return nil, fmt.Errorf("rules: category lookup table is empty")
	}
	if len(tables.Units) == 0 {
		return nil, fmt.Errorf("rules: unit lookup table is empty")
	}

	e := &Engine{
		categoryExact: make(map[string]schema.Category, len(tables.Categories)),
		units:         make(map[string]schema.UnitKind, len(tables.Units)),
		beerPacks:     make(map[int64]bool, len(tables.BeerPackSizes)),
	}

	for _, entry := range tables.Categories {
		match := normalizeKey(entry.Match)
		if match == "" {
			return nil, fmt.Errorf("rules: category entry with blank match (category %q)", entry.Category)
		}
		cat := schema.ParseCategory(entry.Category)
		if cat == schema.CategoryUnknown {
			return nil, fmt.Errorf("rules: category entry %q maps to unrecognized category %q", entry.Match, entry.Category)
		}
		if _, dup := e.categoryExact[match]; !dup {
			e.categoryExact[match] = cat
		}
		e.categoryScan = append(e.categoryScan, categoryPattern{fragment: match, category: cat})
	}

	for _, entry := range tables.Units {
		code := normalizeKey(entry.Code)
		if code == "" {
			return nil, fmt.Errorf("rules: unit entry with blank code (unit %q)", entry.Unit)
		}
		kind := schema.ParseUnitKind(entry.Unit)
		if kind == schema.UnitOther {
			return nil, fmt.Errorf("rules: unit entry %q maps to unrecognized unit %q", entry.Code, entry.Unit)
		}
		if _, dup := e.units[code]; !dup {
			e.units[code] = kind
		}
	}

	for _, size := range tables.BeerPackSizes {
		if size > 0 {
			e.beerPacks[size] = true
		}
	}

	return e, nil
}

// normalizeKey canonicalizes a lookup key: trimmed, uppercased.
func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
