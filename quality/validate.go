/*
Package quality validates source rows and scores the health of a load cycle.

PURPOSE:
  Bad rows never abort a cycle. Each row is checked for required fields and
  ranges; error-severity rows are excluded from aggregation, warnings are
  kept. The findings, the identity matching rate and any disagreement with
  the totals printed by the source system roll up into one quality score with
  categorized issues.

SCORING:
  sourceQuality = valid / (valid + invalid) × 100     (0 with no rows)
  overallScore  = round(mean(billing, payroll, matchingRate))

SEE ALSO:
  - score.go: Issue generation and scoring
  - totals.go: Source-reported totals cross-check
*/
package quality

import (
	"strings"

	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
)

// Validation keeps the rows that passed and everything that was found.
type Validation[T any] struct {
	Valid    []T
	Invalid  int
	Findings []records.Finding
}

// ValidateBilling checks billing rows. A blank name, negative hours or
// amount, or a missing service code is an error; an unparsable session date
// is a warning (the row simply falls outside every window).
func ValidateBilling(rows []records.BillingRow) Validation[records.BillingRow] {
	var out Validation[records.BillingRow]
	for _, r := range rows {
		var errs []records.Finding
		fail := func(field, msg string) {
			errs = append(errs, finding(names.SourceBilling, r.Line, field, msg, records.SeverityError))
		}

		if strings.TrimSpace(r.Employee) == "" {
			fail("employee", "missing employee name")
		}
		if r.Hours.IsNegative() {
			fail("hours", "negative hours")
		}
		if r.Amount.IsNegative() {
			fail("amount", "negative billed amount")
		}
		if r.ServiceCode <= 0 {
			fail("service_code", "missing service code")
		}
		out.Findings = append(out.Findings, errs...)

		if _, ok := generic.ParseFlexibleDate(r.Date); !ok {
			out.Findings = append(out.Findings, finding(names.SourceBilling, r.Line, "date",
				"unparsable session date "+quote(r.Date), records.SeverityWarning))
		}

		if len(errs) > 0 {
			out.Invalid++
			continue
		}
		out.Valid = append(out.Valid, r)
	}
	return out
}

// ValidatePayroll checks payroll rows. Only a blank name is an error; bad
// dates, negative hours, unreadable cost cells and negative cost on a row
// that is not void are warnings.
func ValidatePayroll(rows []records.PayrollRow) Validation[records.PayrollRow] {
	var out Validation[records.PayrollRow]
	for _, r := range rows {
		warn := func(field, msg string) {
			out.Findings = append(out.Findings, finding(names.SourcePayroll, r.Line, field, msg, records.SeverityWarning))
		}

		if strings.TrimSpace(r.Employee) == "" {
			out.Findings = append(out.Findings, finding(names.SourcePayroll, r.Line, "employee",
				"missing employee name", records.SeverityError))
			out.Invalid++
			continue
		}
		if _, ok := generic.ParseFlexibleDate(r.CheckDate); !ok {
			warn("check_date", "unparsable check date "+quote(r.CheckDate))
		}
		if r.Hours.IsNegative() {
			warn("hours", "negative hours")
		}
		if !costReadable(r.CostText) {
			warn("cost", "unreadable cost "+quote(r.CostText)+", counted as 0")
		} else if r.Cost().IsNegative() && !r.IsVoid() {
			warn("cost", "negative cost on a row that is not void")
		}
		out.Valid = append(out.Valid, r)
	}
	return out
}

// costReadable reports whether a cost cell is blank or holds a number.
func costReadable(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	_, ok := generic.LookupAccounting(text)
	return ok
}

func finding(src names.Source, line int, field, msg string, sev records.Severity) records.Finding {
	return records.Finding{Source: src, Line: line, Field: field, Message: msg, Severity: sev}
}

func quote(s string) string {
	return `"` + s + `"`
}
