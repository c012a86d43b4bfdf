package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/fintech-etl/invoice-receipts/internal/rules"
	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	engine, err := rules.New(rules.Tables{
		Categories: []rules.CategoryEntry{
			{Match: "BEER", Category: "BEER"},
			{Match: "WINE", Category: "WINE"},
			{Match: "SPIRIT", Category: "SPIRITS"},
			{Match: "NONALCOHOL", Category: "NON-ALCOHOLIC"},
			{Match: "MISC", Category: "MISCELLANEOUS"},
		},
		Units: []rules.UnitEntry{
			{Code: "CA", Unit: "case"},
			{Code: "BO", Unit: "bottle"},
			{Code: "EA", Unit: "each"},
		},
		BeerPackSizes: []int64{12, 24},
	})
	if err != nil {
		t.Fatalf("rules.New: %v", err)
	}

	p := New(engine)
	p.Clock = func() time.Time {
		return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return p
}

func TestGroupByInvoice(t *testing.T) {
	rows := []schema.RawRow{
		{"Invoice Number": "B", "Product Description": "first B"},
		{"Invoice Number": "A", "Product Description": "first A"},
		{"Invoice Number": "B", "Product Description": "second B"},
		{"Product Description": "orphan"},
		{"Invoice Number": "  ", "Product Description": "blank orphan"},
	}

	groups, unassigned := GroupByInvoice(rows)

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	// First-seen order, not sorted.
	if groups[0].InvoiceNumber != "B" || groups[1].InvoiceNumber != "A" {
		t.Errorf("group order = [%s, %s], want [B, A]", groups[0].InvoiceNumber, groups[1].InvoiceNumber)
	}
	if len(groups[0].Rows) != 2 || len(groups[1].Rows) != 1 {
		t.Errorf("group sizes = [%d, %d], want [2, 1]", len(groups[0].Rows), len(groups[1].Rows))
	}
	if groups[0].Rows[0].Number != 1 || groups[0].Rows[1].Number != 3 {
		t.Errorf("row numbers in B = [%d, %d], want [1, 3]",
			groups[0].Rows[0].Number, groups[0].Rows[1].Number)
	}

	if len(unassigned) != 2 {
		t.Fatalf("got %d unassigned rows, want 2", len(unassigned))
	}
	if unassigned[0].Number != 4 || unassigned[1].Number != 5 {
		t.Errorf("unassigned row numbers = [%d, %d], want [4, 5]",
			unassigned[0].Number, unassigned[1].Number)
	}
}

func TestProcessRejectsNilInputs(t *testing.T) {
	p := testProcessor(t)
	if _, err := p.Process(nil, Source{}); err == nil {
		t.Error("expected error for nil rows")
	}

	bare := &Processor{Clock: time.Now}
	if _, err := bare.Process([]schema.RawRow{}, Source{}); err == nil {
		t.Error("expected error for missing engine")
	}
}

func TestProcessEmptyRowSet(t *testing.T) {
	p := testProcessor(t)
	out, err := p.Process([]schema.RawRow{}, Source{Path: "empty.csv"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Receipts) != 0 || len(out.Unassigned) != 0 {
		t.Errorf("empty input should produce empty output, got %+v", out)
	}
}

// TestProcessBeverageInvoice walks a realistic two-line invoice through
// the full pipeline: a 24-pack beer case and a wine case, with header
// totals supplied by the vendor.
func TestProcessBeverageInvoice(t *testing.T) {
	p := testProcessor(t)

	rows := []schema.RawRow{
		{
			"Invoice Number":      "100277702",
			"Vendor Name":         "Southern Glazers",
			"Invoice Date":        "03/10/2026",
			"Invoice Amount":      "1234.56",
			"Invoice Subtotal":    "1200.00",
			"Invoice Item Count":  "2",
			"Quantity":            "1",
			"Unit Of Measure":     "CA",
			"GL Code":             "5010-BEER-DOMESTIC",
			"Product Description": "Lager 24pk",
			"Packs Per Case":      "24",
			"Units Per Pack":      "24",
			"Pack UPC":            "12345678",
			"Extended Price":      "720.00",
		},
		{
			"Invoice Number":      "100277702",
			"Vendor Name":         "Southern Glazers",
			"Invoice Date":        "03/10/2026",
			"Invoice Amount":      "1234.56",
			"Quantity":            "2",
			"Unit Of Measure":     "CA",
			"GL Code":             "WINE",
			"Product Description": "Pinot Noir",
			"Packs Per Case":      "6",
			"Units Per Pack":      "4",
			"Clean UPC":           "87654321",
			"Case UPC":            "87654300",
			"Extended Price":      "480.00",
		},
	}

	out, err := p.Process(rows, Source{Path: "sg_20260310.csv", Hash: "abc123def456"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(out.Receipts))
	}

	r := out.Receipts[0]
	if r.ReceiptID != "100277702" {
		t.Errorf("ReceiptID = %q, want 100277702", r.ReceiptID)
	}
	if r.Vendor != "Southern Glazers" {
		t.Errorf("Vendor = %q", r.Vendor)
	}
	if r.Date.Format("2006-01-02") != "2026-03-10" {
		t.Errorf("Date = %s, want 2026-03-10", r.Date.Format("2006-01-02"))
	}
	if r.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", r.ItemCount)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}

	// Beer case: 1 x 24 packs x 24 units (24 is a configured pack size).
	beer := r.LineItems[0]
	if beer.Qty != 576 {
		t.Errorf("beer Qty = %d, want 576", beer.Qty)
	}
	if beer.Category != schema.CategoryBeer {
		t.Errorf("beer Category = %v", beer.Category)
	}
	if beer.UPC != "00000012345678" {
		t.Errorf("beer UPC = %q, want 00000012345678", beer.UPC)
	}

	// Wine case: 2 x 6 packs, units-per-pack ignored.
	wine := r.LineItems[1]
	if wine.Qty != 12 {
		t.Errorf("wine Qty = %d, want 12", wine.Qty)
	}
	if wine.UPC != "00000087654321" {
		t.Errorf("wine UPC = %q (Clean UPC should win when Pack UPC is absent)", wine.UPC)
	}
	if wine.SKU != "00000087654300" {
		t.Errorf("wine SKU = %q, want the Case UPC", wine.SKU)
	}

	// Vendor header totals are trusted over a line-item sum.
	if r.Subtotal.StringFixed(2) != "1200.00" {
		t.Errorf("Subtotal = %s, want 1200.00", r.Subtotal)
	}
	if r.TotalAmount.StringFixed(2) != "1234.56" {
		t.Errorf("TotalAmount = %s, want 1234.56", r.TotalAmount)
	}
	if r.SalesTax.StringFixed(2) != "34.56" {
		t.Errorf("SalesTax = %s, want 34.56", r.SalesTax)
	}

	// Document identifier: content hash, invoice number, UTC timestamp.
	wantID := "abc123def456-100277702-20260315T103000Z"
	if r.DocumentID != wantID {
		t.Errorf("DocumentID = %q, want %q", r.DocumentID, wantID)
	}
	if r.SourceFile != "sg_20260310.csv" {
		t.Errorf("SourceFile = %q", r.SourceFile)
	}
}

func TestFillTotalsFromLinesWhenHeaderAbsent(t *testing.T) {
	p := testProcessor(t)

	rows := []schema.RawRow{
		{
			"Invoice Number":       "INV-9",
			"Quantity":             "2",
			"Unit Of Measure":      "BO",
			"GL Code":              "WINE",
			"Extended Price":       "15.00",
			"Tax Adjustment Total": "1.20",
		},
	}

	out, err := p.Process(rows, Source{Path: "x.csv", Hash: "h"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	r := out.Receipts[0]

	// (15.00 - 0) x 2 = 30.00, plus line tax.
	if r.Subtotal.StringFixed(2) != "30.00" {
		t.Errorf("Subtotal = %s, want 30.00", r.Subtotal)
	}
	if r.SalesTax.StringFixed(2) != "1.20" {
		t.Errorf("SalesTax = %s, want 1.20", r.SalesTax)
	}
	if r.TotalAmount.StringFixed(2) != "31.20" {
		t.Errorf("TotalAmount = %s, want 31.20", r.TotalAmount)
	}
}

func TestAssembleFirstRowWinsOnHeaderDisagreement(t *testing.T) {
	p := testProcessor(t)

	rows := []schema.RawRow{
		{"Invoice Number": "INV-1", "Vendor Name": "Acme", "Quantity": "1", "Extended Price": "1.00"},
		{"Invoice Number": "INV-1", "Vendor Name": "Acme Beverages", "Quantity": "1", "Extended Price": "1.00"},
	}

	out, err := p.Process(rows, Source{Path: "x.csv", Hash: "h"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	r := out.Receipts[0]

	if r.Vendor != "Acme" {
		t.Errorf("Vendor = %q, first row must win", r.Vendor)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "Vendor Name") {
		t.Errorf("expected a Vendor Name disagreement warning, got %v", r.Warnings)
	}
}

func TestAssembleEmptyGroup(t *testing.T) {
	p := testProcessor(t)

	r := p.Assemble(InvoiceGroup{InvoiceNumber: "INV-0"}, Source{Path: "x.csv", Hash: "h"}, nil)

	if r.ReceiptID != "INV-0" {
		t.Errorf("ReceiptID = %q, want INV-0", r.ReceiptID)
	}
	if r.ItemCount != 0 || len(r.LineItems) != 0 {
		t.Errorf("empty group must yield no line items, got %+v", r)
	}
	if r.DocumentID != "" {
		t.Errorf("DocumentID = %q, want empty for an empty group", r.DocumentID)
	}
}

func TestAssembleItemCountDisagreementWarns(t *testing.T) {
	p := testProcessor(t)

	rows := []schema.RawRow{
		{"Invoice Number": "INV-2", "Invoice Item Count": "5", "Quantity": "1", "Extended Price": "1.00"},
	}

	out, err := p.Process(rows, Source{Path: "x.csv", Hash: "h"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	r := out.Receipts[0]

	if r.ItemCount != 1 {
		t.Errorf("ItemCount = %d, recomputed count must be kept", r.ItemCount)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "item count") {
		t.Errorf("expected an item count warning, got %v", r.Warnings)
	}
}

func TestParseInvoiceDateFormats(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		text      string
		want      string
		wantFlags int
	}{
		{"03/10/2026", "2026-03-10", 0},
		{"2026-03-10", "2026-03-10", 0},
		{"", "2026-01-01", 0},
		{"next tuesday", "2026-01-01", 1},
	}

	for _, tt := range tests {
		var d rules.Diagnostics
		got := parseInvoiceDate(tt.text, fallback, &d, 1)
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("parseInvoiceDate(%q) = %s, want %s", tt.text, got.Format("2006-01-02"), tt.want)
		}
		if d.Len() != tt.wantFlags {
			t.Errorf("parseInvoiceDate(%q) flags = %d, want %d", tt.text, d.Len(), tt.wantFlags)
		}
	}
}

func TestSourceOf(t *testing.T) {
	a := SourceOf("a.csv", []byte("contents"))
	b := SourceOf("b.csv", []byte("contents"))
	c := SourceOf("a.csv", []byte("different"))

	if len(a.Hash) != 12 {
		t.Errorf("hash length = %d, want 12", len(a.Hash))
	}
	if a.Hash != b.Hash {
		t.Error("identical contents must hash identically regardless of path")
	}
	if a.Hash == c.Hash {
		t.Error("different contents must hash differently")
	}
}

func TestDocumentIDFallsBackToPathHash(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	id := documentID(Source{Path: "x.csv"}, "INV-1", at)

	parts := strings.Split(id, "-")
	if len(parts[0]) != 12 {
		t.Errorf("hash component %q should be 12 hex chars", parts[0])
	}
	if !strings.HasSuffix(id, "-INV-1-20260315T103000Z") {
		t.Errorf("id = %q, want invoice and timestamp suffix", id)
	}
}
