package converter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fintech-etl/invoice-receipts/internal/config"
	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

func testMainConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:         filepath.Join(dir, "input"),
		OutputDir:        filepath.Join(dir, "output"),
		InputArchiveDir:  filepath.Join(dir, "input_archive"),
		OutputArchiveDir: filepath.Join(dir, "output_archive"),
		LogLevel:         "error",
		OutputNameFormat: "{vendor}_{invoice}.json",
		ContinueOnError:  true,
	}
	for _, d := range []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	mainConfig := testMainConfig(t)
	vendorConfig := config.DefaultVendorConfig()

	csvContents := strings.Join([]string{
		"Invoice Number,Vendor Name,Invoice Date,Quantity,Unit Of Measure,GL Code,Product Description,Packs Per Case,Units Per Pack,Pack UPC,Extended Price",
		"100277702,Southern Glazers,03/10/2026,1,CA,BEER,Lager 24pk,24,24,12345678,720.00",
		"100277702,Southern Glazers,03/10/2026,2,CA,WINE,Pinot Noir,6,4,87654321,480.00",
		"100277800,Southern Glazers,03/11/2026,3,BO,SPIRIT,Bourbon,,,55555555,45.60",
	}, "\n")

	inputPath := filepath.Join(mainConfig.InputDir, "sg_20260310.csv")
	if err := os.WriteFile(inputPath, []byte(csvContents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result := New(inputPath, vendorConfig, mainConfig).Run()
	if !result.Success {
		t.Fatalf("Run failed: %v", result.Error)
	}

	if result.Stats.RowsProcessed != 3 {
		t.Errorf("RowsProcessed = %d, want 3", result.Stats.RowsProcessed)
	}
	if result.Stats.ReceiptsCreated != 2 {
		t.Errorf("ReceiptsCreated = %d, want 2", result.Stats.ReceiptsCreated)
	}
	if result.Stats.LineItemsCreated != 3 {
		t.Errorf("LineItemsCreated = %d, want 3", result.Stats.LineItemsCreated)
	}
	if len(result.OutputFiles) != 2 {
		t.Fatalf("got %d output files, want 2", len(result.OutputFiles))
	}

	// Receipts come out in first-seen invoice order.
	if filepath.Base(result.OutputFiles[0]) != "default_100277702.json" {
		t.Errorf("first output = %s", filepath.Base(result.OutputFiles[0]))
	}

	var payload struct {
		ReceiptID string `json:"receiptId"`
		LineItems []struct {
			Qty      int64  `json:"qty"`
			Category string `json:"category"`
		} `json:"lineItems"`
	}
	data, err := os.ReadFile(result.OutputFiles[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.ReceiptID != "100277702" {
		t.Errorf("receiptId = %q", payload.ReceiptID)
	}
	if payload.LineItems[0].Qty != 576 || payload.LineItems[0].Category != "BEER" {
		t.Errorf("beer line = %+v", payload.LineItems[0])
	}
	if payload.LineItems[1].Qty != 12 || payload.LineItems[1].Category != "WINE" {
		t.Errorf("wine line = %+v", payload.LineItems[1])
	}

	// The input file was archived and the receipts copied alongside.
	if _, err := os.Stat(inputPath); !os.IsNotExist(err) {
		t.Error("input file should have been moved to the archive")
	}
	if _, err := os.Stat(filepath.Join(mainConfig.InputArchiveDir, "sg_20260310.csv")); err != nil {
		t.Errorf("archived input missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(mainConfig.OutputArchiveDir, "default_100277702.json")); err != nil {
		t.Errorf("archived output missing: %v", err)
	}
}

func TestRunRejectsUnassignedWhenConfigured(t *testing.T) {
	mainConfig := testMainConfig(t)
	mainConfig.RejectUnassigned = true
	vendorConfig := config.DefaultVendorConfig()

	csvContents := "Invoice Number,Quantity,Extended Price\n,1,5.00\nINV-1,1,5.00\n"
	inputPath := filepath.Join(mainConfig.InputDir, "orphans.csv")
	if err := os.WriteFile(inputPath, []byte(csvContents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result := New(inputPath, vendorConfig, mainConfig).Run()
	if result.Success {
		t.Fatal("expected failure for unassigned rows")
	}
	if result.Stats.UnassignedRows != 1 {
		t.Errorf("UnassignedRows = %d, want 1", result.Stats.UnassignedRows)
	}
	// The failed input stays put for review.
	if _, err := os.Stat(inputPath); err != nil {
		t.Errorf("failed input should remain in place: %v", err)
	}
}

func TestRunUnsupportedExtension(t *testing.T) {
	mainConfig := testMainConfig(t)
	inputPath := filepath.Join(mainConfig.InputDir, "invoices.pdf")
	if err := os.WriteFile(inputPath, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result := New(inputPath, config.DefaultVendorConfig(), mainConfig).Run()
	if result.Success {
		t.Fatal("expected failure for unsupported file type")
	}
}

func TestRunMissingFile(t *testing.T) {
	mainConfig := testMainConfig(t)
	result := New(filepath.Join(mainConfig.InputDir, "nope.csv"), config.DefaultVendorConfig(), mainConfig).Run()
	if result.Success {
		t.Fatal("expected failure for missing file")
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	mainConfig := testMainConfig(t)
	mainConfig.OutputNameFormat = "{vendor}_{invoice}_{uuid}"
	vendorConfig := config.DefaultVendorConfig()
	vendorConfig.VendorCode = "sgws"

	c := New("in.csv", vendorConfig, mainConfig)
	name := c.generateOutputFileName(&schema.Receipt{ReceiptID: "INV 7/B"})

	if !strings.HasPrefix(name, "sgws_INV_7-B_") {
		t.Errorf("name = %q, want sanitized vendor and invoice prefix", name)
	}
	if !strings.HasSuffix(name, ".json") {
		t.Errorf("name = %q, want .json extension appended", name)
	}
}

func TestApplyAliases(t *testing.T) {
	rows := []schema.RawRow{
		{"Invoice #": "INV-1", "Qty Shipped": "2", "Quantity": "9"},
	}
	aliases := map[string]string{
		"invoice #":   "Invoice Number",
		"Qty Shipped": "Quantity",
	}

	prepared := ApplyAliases(rows, aliases)

	if prepared[0]["Invoice Number"] != "INV-1" {
		t.Errorf("Invoice Number = %q, alias matching must be case-insensitive", prepared[0]["Invoice Number"])
	}
	// The canonical column already present wins over the alias.
	if prepared[0]["Quantity"] != "9" {
		t.Errorf("Quantity = %q, existing canonical column must win", prepared[0]["Quantity"])
	}
	// The source rows are untouched.
	if _, ok := rows[0]["Invoice Number"]; ok {
		t.Error("ApplyAliases must not mutate its input")
	}
}

func TestApplyAliasesNoAliases(t *testing.T) {
	rows := []schema.RawRow{{"A": "1"}}
	got := ApplyAliases(rows, nil)
	if len(got) != 1 || got[0]["A"] != "1" {
		t.Errorf("nil alias table should pass rows through, got %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"debug", levelDebug},
		{"info", levelInfo},
		{"WARN", levelWarn},
		{"warning", levelWarn},
		{"error", levelError},
		{"", levelInfo},
		{"loud", levelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.text); got != tt.want {
			t.Errorf("parseLevel(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
