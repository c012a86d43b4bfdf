// =============================================================================
// Invoice Receipts - Rule Diagnostics
// =============================================================================
//
// Row-level soft errors never unwind the call stack. When a rule falls back
// to a safe default (0, UNKNOWN, absent code) it records a flag here so the
// caller can surface the row for review while processing continues.
//
// =============================================================================

package rules

import "fmt"

// Flag codes recorded by the rules engine.
const (
	FlagMalformedNumber = "malformed_number"
	FlagOversizeCode    = "oversize_code"
	FlagNegativeAmount  = "negative_amount"
	FlagUnknownCategory = "unknown_category"
	FlagUnknownUnit     = "unknown_unit"
	FlagBadDate         = "bad_date"
)

// Flag is one soft-error observation tied to a source row.
type Flag struct {
	// Row is the 1-indexed data row number in the source file, 0 when the
	// flag is not tied to a specific row.
	Row int

	// Field is the source column involved.
	Field string

	// Code is one of the Flag* constants.
	Code string

	// Message is a human-readable description.
	Message string
}

// String formats the flag for logs and error reports.
func (f Flag) String() string {
	if f.Row > 0 {
		return fmt.Sprintf("row %d, field %q: %s (%s)", f.Row, f.Field, f.Message, f.Code)
	}
	return fmt.Sprintf("field %q: %s (%s)", f.Field, f.Message, f.Code)
}

// Diagnostics accumulates flags during one processing pass. A nil
// *Diagnostics is valid and discards everything, so pure rule calls can
// pass nil when they do not care about observability.
type Diagnostics struct {
	flags []Flag
}

// Add records one flag.
func (d *Diagnostics) Add(row int, field, code, message string) {
	if d == nil {
		return
	}
	d.flags = append(d.flags, Flag{Row: row, Field: field, Code: code, Message: message})
}

// Addf records one flag with a formatted message.
func (d *Diagnostics) Addf(row int, field, code, format string, args ...interface{}) {
	if d == nil {
		return
	}
	d.Add(row, field, code, fmt.Sprintf(format, args...))
}

// Flags returns everything recorded so far.
func (d *Diagnostics) Flags() []Flag {
	if d == nil {
		return nil
	}
	return d.flags
}

// Len returns the number of recorded flags.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.flags)
}
