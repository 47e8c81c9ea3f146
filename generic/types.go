/*
Package generic provides the domain-agnostic primitives of the reconciliation engine.

PURPOSE:
  Billing and payroll exports disagree on almost everything: date encodings,
  number formats, how negative values are written. This package owns the small
  set of primitives every other package agrees on, so the business code above it
  never sees a raw spreadsheet cell.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantities: money and hours are decimal.Decimal, never float64
  - Accounting numbers: "(1,234.56)" is -1234.56
  - Guarded arithmetic: every ratio is zero-guarded

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every sum so recomputation is bit-identical
  2. Total functions: parsers return zero or false, they never panic or error
  3. No business constants: thresholds live in the rules package

USAGE:
  cost := generic.ParseAccounting("(1,683.94)")   // -1683.94
  rate := generic.Percent(billable, payroll)      // 0 when payroll is 0

SEE ALSO:
  - time.go: Day and flexible date parsing
  - period.go: inclusive date windows
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

var (
	// Hundred converts ratios to percentages.
	Hundred = decimal.NewFromInt(100)

	// NegativeHundred is the margin reported for cost with no revenue.
	NegativeHundred = decimal.NewFromInt(-100)
)

// =============================================================================
// NUMBER PARSING
// =============================================================================

// MustParseDecimal parses s or returns zero.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAccounting parses a spreadsheet money or hours cell.
//
// Parentheses and a leading minus both mean negative. Currency symbols,
// thousands separators and surrounding whitespace are ignored. Anything
// that still fails to parse yields zero.
func ParseAccounting(raw string) decimal.Decimal {
	d, _ := LookupAccounting(raw)
	return d
}

// LookupAccounting is ParseAccounting that also reports whether the cell
// held a number. Blank cells report false.
func LookupAccounting(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	// "$(12)" and "($12)" both mean -12.
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		return d.Neg(), true
	}
	return d, true
}

// =============================================================================
// GUARDED ARITHMETIC
// =============================================================================

// SafeDiv returns num/den, or zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Percent returns num/den*100, or zero when den is zero.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	return SafeDiv(num, den).Mul(Hundred)
}

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Float rounds d to two places for presentation.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
