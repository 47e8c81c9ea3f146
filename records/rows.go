/*
Package records holds the typed source rows and turns them into per-employee sums.

PURPOSE:
  Ingestion hands over billing rows (one per session) and payroll rows (one per
  employee per check). This package filters them to the business windows,
  groups them by canonical employee, splits payroll into HR and billable staff,
  classifies roles from service codes, and pairs billing identities with payroll
  identities.

DATA FLOW:
  []BillingRow ──► Aggregator.Billing ──► BillingAggregate ─┐
                                                            ├─► Resolve ──► Resolution
  []PayrollRow ──► Aggregator.Payroll ──► PayrollAggregate ─┘

INVARIANTS:
  - Rows with unparsable dates fall outside every window
  - Cost cells are parsed with accounting rules and never fail
  - Group order is deterministic (sorted canonical keys)

SEE ALSO:
  - aggregate.go: Window filtering and grouping
  - role.go: Role classification
  - resolve.go: Cross-source identity resolution
*/
package records

import (
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/names"
)

// =============================================================================
// SOURCE ROWS
// =============================================================================

// BillingRow is one billed session. Client and Location are descriptive only.
type BillingRow struct {
	Employee    string
	ServiceCode int
	Date        string
	Hours       decimal.Decimal
	Amount      decimal.Decimal
	Client      string
	Location    string
	Line        int
}

// PayrollRow is one payroll line. Cost is kept as the raw cell text so
// accounting encodings like "(1,234.56)" survive ingestion.
type PayrollRow struct {
	Employee   string
	CheckDate  string
	Hours      decimal.Decimal
	CostText   string
	Department string
	Void       bool
	Line       int
}

// Cost parses the cost cell.
func (r PayrollRow) Cost() decimal.Decimal {
	return generic.ParseAccounting(r.CostText)
}

// IsVoid reports a void flag or a " - Void" check-date annotation.
func (r PayrollRow) IsVoid() bool {
	return r.Void || generic.HasVoidAnnotation(r.CheckDate)
}

// =============================================================================
// FINDINGS
// =============================================================================

// Severity grades a row-level finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a row-level validation result. Error findings exclude the row
// from aggregation; warnings are informational.
type Finding struct {
	Source   names.Source
	Line     int
	Field    string
	Message  string
	Severity Severity
}

// =============================================================================
// INPUT
// =============================================================================

// ReportedTotals are the figures the source system printed itself, used to
// cross-check ingestion. Unset totals are skipped.
type ReportedTotals struct {
	BillingHours  decimal.NullDecimal
	BillingAmount decimal.NullDecimal
	PayrollHours  decimal.NullDecimal
	PayrollCost   decimal.NullDecimal

	BillingNames []string
	PayrollNames []string
}

// Input is everything one load cycle consumes.
type Input struct {
	Billing []BillingRow
	Payroll []PayrollRow

	// Findings the ingestion layer already recorded, typically rows it
	// could not turn into typed values at all.
	BillingFindings []Finding
	PayrollFindings []Finding

	Reported ReportedTotals
}
