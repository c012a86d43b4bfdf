// =============================================================================
// Invoice Receipts - JSON Writer Module
// =============================================================================
//
// This module serializes assembled receipts into the interop payload
// consumed by downstream billing systems. The payload shape is the contract;
// the in-memory Receipt type is not:
//
//   {
//     "source_file": "...",
//     "receiptId":   "100277702",
//     "vendor":      "Southern Distributing",
//     "date":        "2024-01-15",
//     "totalAmount": 62.35,
//     "salesTax":    0.00,
//     "subtotal":    62.35,
//     "itemCount":   2,
//     "document_id": "9f2c4a1be0d3-100277702-20240115T120102Z",
//     "lineItems": [
//       {"name": "...", "qty": 576, "price": 38.35, "discount": 0.00,
//        "upc": "00000123456789", "sku": "", "text": "...",
//        "unitOfMeasure": "case", "category": "BEER", "tax": 0.00,
//        "notes": ""}
//     ]
//   }
//
// Money fields are emitted as exact two-decimal JSON numbers via
// json.Number, so a 38.35 on the invoice is a 38.35 on the wire and a
// whole-dollar amount still reads as money (12.00, not 12).
//
// =============================================================================

package jsonwriter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// =============================================================================
// PAYLOAD TYPES
// =============================================================================

// ReceiptPayload is the wire form of one receipt.
type ReceiptPayload struct {
	SourceFile  string           `json:"source_file"`
	ReceiptID   string           `json:"receiptId"`
	Vendor      string           `json:"vendor"`
	Date        string           `json:"date"`
	TotalAmount json.Number      `json:"totalAmount"`
	SalesTax    json.Number      `json:"salesTax"`
	Subtotal    json.Number      `json:"subtotal"`
	ItemCount   int              `json:"itemCount"`
	DocumentID  string           `json:"document_id"`
	LineItems   []LineItemPayload `json:"lineItems"`
}

// LineItemPayload is the wire form of one line item.
type LineItemPayload struct {
	Name          string      `json:"name"`
	Qty           int64       `json:"qty"`
	Price         json.Number `json:"price"`
	Discount      json.Number `json:"discount"`
	UPC           string      `json:"upc"`
	SKU           string      `json:"sku"`
	Text          string      `json:"text"`
	UnitOfMeasure string      `json:"unitOfMeasure"`
	Category      string      `json:"category"`
	Tax           json.Number `json:"tax"`
	Notes         string      `json:"notes"`
}

// =============================================================================
// PAYLOAD CONSTRUCTION
// =============================================================================

// Payload maps a receipt to its wire form.
func Payload(r *schema.Receipt) ReceiptPayload {
	items := make([]LineItemPayload, len(r.LineItems))
	for i, item := range r.LineItems {
		items[i] = LineItemPayload{
			Name:          item.Name,
			Qty:           item.Qty,
			Price:         number(item.Price),
			Discount:      number(item.Discount),
			UPC:           item.UPC,
			SKU:           item.SKU,
			Text:          item.Text,
			UnitOfMeasure: item.UnitOfMeasure.String(),
			Category:      item.Category.String(),
			Tax:           number(item.Tax),
			Notes:         item.Notes,
		}
	}

	return ReceiptPayload{
		SourceFile:  r.SourceFile,
		ReceiptID:   r.ReceiptID,
		Vendor:      r.Vendor,
		Date:        r.Date.Format("2006-01-02"),
		TotalAmount: number(r.TotalAmount),
		SalesTax:    number(r.SalesTax),
		Subtotal:    number(r.Subtotal),
		ItemCount:   r.ItemCount,
		DocumentID:  r.DocumentID,
		LineItems:   items,
	}
}

// number renders a decimal as an unquoted JSON number with two decimal
// places, the fixed money precision of the payload.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate serializes one receipt to indented JSON.
func Generate(r *schema.Receipt) ([]byte, error) {
	data, err := json.MarshalIndent(Payload(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt %s: %w", r.ReceiptID, err)
	}
	return append(data, '\n'), nil
}

// Write serializes one receipt and writes it to the given path.
func Write(r *schema.Receipt, path string) error {
	data, err := Generate(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write receipt file: %w", err)
	}
	return nil
}
