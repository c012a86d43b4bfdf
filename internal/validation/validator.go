// =============================================================================
// Invoice Receipts - Validation Engine
// =============================================================================
//
// Structural checks on assembled receipts before they leave the pipeline.
// Validation never mutates a receipt; it collects findings so the operator
// can review them alongside the rule diagnostics.
//
// VALIDATION STRATEGY:
//   1. Receipt-level: identifier, totals, item count consistency
//   2. Line-level: quantity and code invariants
//
// ERROR HANDLING:
//   - Findings are collected, not thrown on first failure
//   - Each finding includes the receipt and line context
//   - Severity "error" means the receipt should not be delivered;
//     "warning" means it needs review but may proceed
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/fintech-etl/invoice-receipts/internal/schema"
)

// =============================================================================
// FINDING TYPES
// =============================================================================

// Severity levels for findings.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding is one validation observation on a receipt.
type Finding struct {
	// Severity is "error" or "warning".
	Severity string

	// ReceiptID identifies the receipt.
	ReceiptID string

	// Line is the 1-indexed line item, 0 for receipt-level findings.
	Line int

	// Field names the offending field.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (f *Finding) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("[%s] receipt %s, line %d, field %q: %s",
			strings.ToUpper(f.Severity), f.ReceiptID, f.Line, f.Field, f.Message)
	}
	return fmt.Sprintf("[%s] receipt %s, field %q: %s",
		strings.ToUpper(f.Severity), f.ReceiptID, f.Field, f.Message)
}

// Result aggregates findings for one receipt.
type Result struct {
	// IsValid is true when there are no error-severity findings.
	IsValid bool

	// Findings contains all findings, warnings included.
	Findings []*Finding

	// ErrorCount is the number of error-severity findings.
	ErrorCount int

	// WarningCount is the number of warning-severity findings.
	WarningCount int
}

// =============================================================================
// VALIDATION
// =============================================================================

// maxCodeWidth is the expected width of a formatted product code. Codes
// wider than this were preserved rather than truncated and need review.
const maxCodeWidth = 14

// CheckReceipt validates one assembled receipt.
func CheckReceipt(r *schema.Receipt) *Result {
	result := &Result{}

	if strings.TrimSpace(r.ReceiptID) == "" {
		result.add(SeverityError, r, 0, "receiptId", "receipt has no invoice number")
	}
	if r.ItemCount != len(r.LineItems) {
		result.add(SeverityError, r, 0, "itemCount",
			fmt.Sprintf("item count %d does not match %d line items", r.ItemCount, len(r.LineItems)))
	}
	if r.TotalAmount.IsNegative() {
		result.add(SeverityError, r, 0, "totalAmount",
			fmt.Sprintf("total amount %s is negative", r.TotalAmount))
	}
	if r.DocumentID == "" {
		result.add(SeverityError, r, 0, "document_id", "receipt has no document identifier")
	}

	for i, item := range r.LineItems {
		line := i + 1

		if item.Qty < 0 {
			result.add(SeverityError, r, line, "qty",
				fmt.Sprintf("quantity %d is negative", item.Qty))
		}
		if item.Price.IsNegative() {
			result.add(SeverityError, r, line, "price",
				fmt.Sprintf("price %s is negative", item.Price))
		}

		checkCode(result, r, line, "upc", item.UPC)
		checkCode(result, r, line, "sku", item.SKU)

		if item.Name == "" {
			result.add(SeverityWarning, r, line, "name", "line item has no product description")
		}
		if item.UPC == "" && item.SKU == "" {
			result.add(SeverityWarning, r, line, "upc", "line item has no product code")
		}
	}

	// Group-level soft errors recorded at assembly time surface here as
	// warnings so one report covers the whole receipt.
	for _, warning := range r.Warnings {
		result.add(SeverityWarning, r, 0, "header", warning)
	}

	result.IsValid = result.ErrorCount == 0
	return result
}

// checkCode validates a formatted product code: empty is fine (absent),
// otherwise it must be numeric; oversize codes are review-level.
func checkCode(result *Result, r *schema.Receipt, line int, field, code string) {
	if code == "" {
		return
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			result.add(SeverityError, r, line, field,
				fmt.Sprintf("code %q contains non-digit characters", code))
			return
		}
	}
	if len(code) > maxCodeWidth {
		result.add(SeverityWarning, r, line, field,
			fmt.Sprintf("code %q exceeds %d digits and was kept unmodified", code, maxCodeWidth))
	} else if len(code) != maxCodeWidth {
		result.add(SeverityError, r, line, field,
			fmt.Sprintf("code %q is not %d digits wide", code, maxCodeWidth))
	}
}

func (result *Result) add(severity string, r *schema.Receipt, line int, field, message string) {
	result.Findings = append(result.Findings, &Finding{
		Severity:  severity,
		ReceiptID: r.ReceiptID,
		Line:      line,
		Field:     field,
		Message:   message,
	})
	if severity == SeverityError {
		result.ErrorCount++
	} else {
		result.WarningCount++
	}
}
