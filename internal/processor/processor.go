// =============================================================================
// Invoice Receipts - Invoice Processor
// =============================================================================
//
// This module turns one file's decoded rows into receipts. It owns the two
// stages that sit above the per-row rules:
//
//   1. Grouping: rows are partitioned into per-invoice groups keyed by the
//      invoice number, in first-seen order. Rows with a blank invoice
//      number go to a distinguished unassigned bucket; the processor never
//      fabricates an invoice number, the caller decides accept/reject.
//   2. Assembly: each group becomes one Receipt, with header fields from the
//      first row, line items in source row order, totals, and a derived
//      document identifier.
//
// The processor is synchronous and stateless per invocation. All inputs
// are in memory and no I/O happens here, so the caller may process many
// files concurrently with independent Process calls.
//
// =============================================================================

package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech-etl/invoice-receipts/internal/rules"
	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// Header source columns.
const (
	colInvoiceNumber    = "Invoice Number"
	colVendorName       = "Vendor Name"
	colInvoiceDate      = "Invoice Date"
	colInvoiceAmount    = "Invoice Amount"
	colInvoiceSubtotal  = "Invoice Subtotal"
	colInvoiceItemCount = "Invoice Item Count"
	colProductDesc      = "Product Description"
)

// =============================================================================
// SOURCE IDENTITY
// =============================================================================

// Source identifies the originating file or message of a row set. The hash
// component keeps the document identifier traceable to its exact content
// even when a file is renamed or re-delivered.
type Source struct {
	// Path is the file path or object name, used as the receipt's
	// source_file reference.
	Path string

	// Hash is a short stable content hash.
	Hash string
}

// SourceOf builds a Source from a path and the raw file contents.
func SourceOf(path string, contents []byte) Source {
	sum := sha256.Sum256(contents)
	return Source{Path: path, Hash: hex.EncodeToString(sum[:])[:12]}
}

// =============================================================================
// GROUPING
// =============================================================================

// InvoiceGroup is an ordered run of rows sharing one invoice number.
type InvoiceGroup struct {
	// InvoiceNumber is the grouping key, never blank.
	InvoiceNumber string

	// Rows holds the group's rows in source file order.
	Rows []schema.SourceRow
}

// GroupByInvoice partitions rows into per-invoice groups. Groups come back
// in first-seen order of their invoice number (not sorted), so receipts
// are emitted in the order invoices appear in the file; within a group,
// row order matches the source. Rows with a blank or missing invoice
// number are returned separately in the unassigned bucket.
func GroupByInvoice(rows []schema.RawRow) (groups []InvoiceGroup, unassigned []schema.SourceRow) {
	index := make(map[string]int)

	for i, row := range rows {
		src := schema.SourceRow{Number: i + 1, Fields: row}

		key := row.Text(colInvoiceNumber)
		if key == "" {
			unassigned = append(unassigned, src)
			continue
		}

		pos, seen := index[key]
		if !seen {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, InvoiceGroup{InvoiceNumber: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, src)
	}

	return groups, unassigned
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor assembles receipts using a rules engine.
type Processor struct {
	engine *rules.Engine

	// Clock supplies the processing timestamp; replaceable in tests.
	Clock func() time.Time
}

// New creates a Processor around a rules engine.
func New(engine *rules.Engine) *Processor {
	return &Processor{engine: engine, Clock: time.Now}
}

// Output is the result of processing one file's rows.
type Output struct {
	// Receipts holds one receipt per invoice group, in first-seen invoice
	// order.
	Receipts []schema.Receipt

	// Unassigned holds rows with a blank invoice number. They need
	// review; they are never merged into a named invoice.
	Unassigned []schema.SourceRow

	// Flags holds the row-level soft errors observed while building line
	// items.
	Flags []rules.Flag
}

// Process groups the rows and assembles one receipt per invoice. A nil row
// set or a processor without an engine is a fatal error (every row would
// be unprocessable) and returns immediately. Soft errors (malformed
// fields, unknown codes, header disagreements) never do: they degrade to
// defaults and are reported through Output.Flags and Receipt.Warnings.
func (p *Processor) Process(rows []schema.RawRow, src Source) (*Output, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("processor: no rules engine configured")
	}
	if rows == nil {
		return nil, fmt.Errorf("processor: row set is nil")
	}

	groups, unassigned := GroupByInvoice(rows)

	diags := &rules.Diagnostics{}
	out := &Output{Unassigned: unassigned}
	for _, group := range groups {
		out.Receipts = append(out.Receipts, p.Assemble(group, src, diags))
	}
	out.Flags = diags.Flags()

	return out, nil
}

// =============================================================================
// RECEIPT ASSEMBLY
// =============================================================================

// Assemble builds one receipt from an invoice group. Header fields come
// from the group's first row; if later rows disagree, the first row wins
// and the discrepancy is recorded as a warning. Vendor-supplied invoice
// totals are trusted over a sum of line items, because they may include
// adjustments not representable as lines; when absent, totals are computed
// from the lines. ItemCount is always recomputed. A group with no rows
// (never produced by Process, but possible for a direct caller) yields a
// receipt carrying only the invoice number.
func (p *Processor) Assemble(group InvoiceGroup, src Source, diags *rules.Diagnostics) schema.Receipt {
	if len(group.Rows) == 0 {
		return schema.Receipt{ReceiptID: group.InvoiceNumber}
	}

	first := group.Rows[0]
	now := p.Clock()

	receipt := schema.Receipt{
		ReceiptID:   group.InvoiceNumber,
		Vendor:      headerVendor(first.Fields),
		Date:        parseInvoiceDate(first.Fields.Text(colInvoiceDate), now, diags, first.Number),
		SourceFile:  src.Path,
		DocumentID:  documentID(src, group.InvoiceNumber, now),
		ProcessedAt: now,
		Warnings:    headerWarnings(group),
	}

	for _, row := range group.Rows {
		receipt.LineItems = append(receipt.LineItems, p.buildLineItem(row, diags))
	}
	receipt.ItemCount = len(receipt.LineItems)

	p.fillTotals(&receipt, first, diags)

	return receipt
}

// buildLineItem applies the per-row rules to produce one line.
func (p *Processor) buildLineItem(row schema.SourceRow, diags *rules.Diagnostics) schema.LineItem {
	fields := row.Fields

	unit := p.engine.UnitForRow(fields, diags, row.Number)
	category := p.engine.CategorizeRow(fields, diags, row.Number)
	price := rules.ResolvePrice(fields, diags, row.Number)
	upc, sku := rules.ExtractCodes(fields, diags, row.Number)

	name := fields.Text(colProductDesc)

	return schema.LineItem{
		Name:          name,
		Qty:           p.engine.ComputeQuantity(fields, unit, category, diags, row.Number),
		Price:         price.UnitPrice,
		Discount:      price.Discount,
		Tax:           price.Tax,
		UPC:           upc,
		SKU:           sku,
		Text:          name,
		UnitOfMeasure: unit,
		Category:      category,
		Notes:         rules.AdjustmentNotes(fields),
	}
}

// fillTotals resolves subtotal, sales tax and total amount for a receipt.
func (p *Processor) fillTotals(r *schema.Receipt, first schema.SourceRow, diags *rules.Diagnostics) {
	lineSubtotal := decimal.Zero
	lineTax := decimal.Zero
	for _, item := range r.LineItems {
		net := item.Price.Sub(item.Discount).Mul(decimal.NewFromInt(item.Qty))
		lineSubtotal = lineSubtotal.Add(net)
		lineTax = lineTax.Add(item.Tax)
	}

	r.Subtotal = lineSubtotal
	if first.Fields.Has(colInvoiceSubtotal) {
		r.Subtotal = rules.ParseDecimal(first.Fields, colInvoiceSubtotal, diags, first.Number)
	}

	if first.Fields.Has(colInvoiceAmount) {
		r.TotalAmount = rules.ParseDecimal(first.Fields, colInvoiceAmount, diags, first.Number)
		r.SalesTax = r.TotalAmount.Sub(r.Subtotal)
		if r.SalesTax.IsNegative() {
			r.SalesTax = decimal.Zero
		}
	} else {
		r.SalesTax = lineTax
		r.TotalAmount = r.Subtotal.Add(lineTax)
	}

	if first.Fields.Has(colInvoiceItemCount) {
		declared := rules.ParseDecimal(first.Fields, colInvoiceItemCount, nil, 0)
		if declared.IntPart() != int64(r.ItemCount) {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"header item count %s disagrees with %d line items; recomputed count kept",
				declared, r.ItemCount))
		}
	}
}

// =============================================================================
// HEADER HELPERS
// =============================================================================

// headerVendor reads the vendor name, defaulting when the column is blank.
func headerVendor(row schema.RawRow) string {
	if v := row.Text(colVendorName); v != "" {
		return v
	}
	return "Unknown Vendor"
}

// headerColumns are the invoice-level fields expected to be identical
// across every row of a group.
var headerColumns = []string{colVendorName, colInvoiceDate, colInvoiceAmount}

// headerWarnings compares header fields across the group's rows. The first
// row's values always win; disagreements are soft.
func headerWarnings(group InvoiceGroup) []string {
	var warnings []string
	first := group.Rows[0]

	for _, col := range headerColumns {
		want := first.Fields.Text(col)
		for _, row := range group.Rows[1:] {
			if got := row.Fields.Text(col); got != want {
				warnings = append(warnings, fmt.Sprintf(
					"row %d %s %q disagrees with first row %q; first row kept",
					row.Number, col, got, want))
				break
			}
		}
	}
	return warnings
}

// invoiceDateFormats are tried in order. Vendor exports use US-style
// dates; some newer feeds ship ISO dates.
var invoiceDateFormats = []string{"01/02/2006", "2006-01-02"}

// parseInvoiceDate parses the invoice date, falling back to the processing
// date when the value is blank or unparseable.
func parseInvoiceDate(text string, fallback time.Time, diags *rules.Diagnostics, rowNum int) time.Time {
	if text == "" {
		return fallback
	}
	for _, format := range invoiceDateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return t
		}
	}
	diags.Addf(rowNum, colInvoiceDate, rules.FlagBadDate, "unparseable date %q, processing date used", text)
	return fallback
}

// documentID derives the traceability key for a receipt: the source
// content hash, the invoice number, and the processing timestamp.
// Reprocessing the same file yields a new identifier (the timestamp
// differs) while staying traceable to its source and invoice.
func documentID(src Source, invoiceNumber string, at time.Time) string {
	hash := src.Hash
	if hash == "" {
		sum := sha256.Sum256([]byte(src.Path))
		hash = hex.EncodeToString(sum[:])[:12]
	}
	return fmt.Sprintf("%s-%s-%s", hash, invoiceNumber, at.UTC().Format("20060102T150405Z"))
}
