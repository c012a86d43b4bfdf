package jsonwriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

func sampleReceipt(t *testing.T) *schema.Receipt {
	t.Helper()
	money := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return d
	}

	return &schema.Receipt{
		ReceiptID:   "100277702",
		Vendor:      "Southern Distributing",
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: money("62.35"),
		SalesTax:    money("0"),
		Subtotal:    money("62.35"),
		ItemCount:   1,
		SourceFile:  "southern_20260115.csv",
		DocumentID:  "9f2c4a1be0d3-100277702-20260115T120102Z",
		LineItems: []schema.LineItem{
			{
				Name:          "Lager 24pk",
				Qty:           576,
				Price:         money("38.35"),
				Discount:      money("0"),
				Tax:           money("0"),
				UPC:           "00000123456789",
				Text:          "Lager 24pk",
				UnitOfMeasure: schema.UnitOfMeasure{Kind: schema.UnitCase},
				Category:      schema.CategoryBeer,
			},
		},
	}
}

func TestGeneratePayloadShape(t *testing.T) {
	data, err := Generate(sampleReceipt(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	for _, key := range []string{
		"source_file", "receiptId", "vendor", "date",
		"totalAmount", "salesTax", "subtotal", "itemCount",
		"document_id", "lineItems",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}

	if decoded["date"] != "2026-01-15" {
		t.Errorf("date = %v, want 2026-01-15", decoded["date"])
	}

	items := decoded["lineItems"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("got %d line items, want 1", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["unitOfMeasure"] != "case" {
		t.Errorf("unitOfMeasure = %v, want case", item["unitOfMeasure"])
	}
	if item["category"] != "BEER" {
		t.Errorf("category = %v, want BEER", item["category"])
	}
	if item["upc"] != "00000123456789" {
		t.Errorf("upc = %v", item["upc"])
	}
}

func TestGenerateEmitsExactNumbers(t *testing.T) {
	data, err := Generate(sampleReceipt(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Money must appear as an unquoted two-decimal JSON number, not a
	// float rendering and not a bare integer for whole amounts.
	text := string(data)
	if !strings.Contains(text, `"totalAmount": 62.35`) {
		t.Errorf("totalAmount not emitted as exact number:\n%s", text)
	}
	if !strings.Contains(text, `"price": 38.35`) {
		t.Errorf("price not emitted as exact number:\n%s", text)
	}
	if !strings.Contains(text, `"salesTax": 0.00`) {
		t.Errorf("salesTax not emitted with money precision:\n%s", text)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.json")

	if err := Write(sampleReceipt(t), path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var payload ReceiptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.ReceiptID != "100277702" {
		t.Errorf("ReceiptID = %q", payload.ReceiptID)
	}
	if payload.TotalAmount.String() != "62.35" {
		t.Errorf("TotalAmount = %s, want 62.35", payload.TotalAmount)
	}
}

func TestPayloadUnitOtherKeepsRawCode(t *testing.T) {
	r := sampleReceipt(t)
	r.LineItems[0].UnitOfMeasure = schema.UnitOfMeasure{Kind: schema.UnitOther, Raw: "PALLET"}

	payload := Payload(r)
	if payload.LineItems[0].UnitOfMeasure != "pallet" {
		t.Errorf("unitOfMeasure = %q, want lowercased raw code", payload.LineItems[0].UnitOfMeasure)
	}
}
