/*
Package metrics is the reconciliation engine: it turns one cycle of billing
and payroll rows into a complete, immutable metrics bundle.

PURPOSE:
  Billing says what was sold, payroll says what was paid. The engine joins the
  two per canonical employee and computes the business's headline figures:
  revenue, cost, margins, utilization, the cost of non-billable time, and
  which technicians have the most unbilled capacity.

KEY CONCEPTS:
  - Role segmentation: technicians are judged by utilization, supervisors by
    profit margin, each with its own tier cutoffs
  - HR staff: counted in total cost, excluded from everything "billable"
  - Zero guards: empty inputs yield a zeroed bundle, never NaN or a panic
  - Purity: Compute has no clock, no randomness and no I/O

PIPELINE:
  Input ─► validate ─► window + group ─► resolve identities ─► classify roles
        ─► employee metrics ─► financial metrics ─► opportunities
        ─► matching report ─► quality score ─► self-check ─► Bundle

FORMULAS:
  grossProfit            = revenue − totalPayrollCost
  profitMargin           = grossProfit / revenue × 100              (0 if revenue 0)
  netProfit              = revenue − billableStaffCost
  utilizationRate        = billingHours / billableStaffPayrollHours × 100   (unclamped)
  nonBillableCost        = Σ max(0, payroll − billable) × billableStaffCost / billableStaffHours
  techNonBillableCost    = Σ_TECH max(0, payroll − billable) × technician rate
  marginAfterNonBillable = (revenue − totalPayrollCost − nonBillableCost) / revenue × 100

SEE ALSO:
  - engine.go: Engine and Compute
  - employee.go: Per-employee metrics and tiers
  - financial.go: Aggregate metrics
  - opportunity.go: Opportunity ranking
  - selfcheck.go: Comparison against expected values
*/
package metrics

import (
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/quality"
	"github.com/warp/reconcile-engine/rules"
)

// =============================================================================
// EMPLOYEE METRICS
// =============================================================================

// EmployeeMetric is one canonical employee's cycle.
type EmployeeMetric struct {
	CanonicalName string
	BillingName   string
	PayrollName   string
	Role          rules.Role
	ServiceCodes  []int

	BillableHours    decimal.Decimal
	PayrollHours     decimal.Decimal
	NonBillableHours decimal.Decimal

	Revenue        decimal.Decimal
	PayrollCost    decimal.Decimal
	RevenuePerHour decimal.Decimal

	UtilizationRate decimal.Decimal
	ProfitMargin    decimal.Decimal
	Tier            rules.Tier

	PotentialRevenue decimal.Decimal

	Matched    bool
	HRExcluded bool

	// Set when billing and payroll were joined by fuzzy match.
	MatchStrategy   string
	MatchConfidence float64
}

// =============================================================================
// FINANCIAL METRICS
// =============================================================================

// FinancialMetrics are the cycle's aggregate figures.
type FinancialMetrics struct {
	TotalRevenue      decimal.Decimal
	TotalPayrollCost  decimal.Decimal
	BillableStaffCost decimal.Decimal
	HRCost            decimal.Decimal

	GrossProfit                 decimal.Decimal
	ProfitMargin                decimal.Decimal
	NetProfit                   decimal.Decimal
	ProfitMarginVsBillableStaff decimal.Decimal

	UtilizationRate        decimal.Decimal
	RevenuePerBillableHour decimal.Decimal

	TotalBillableHours decimal.Decimal
	TotalPayrollHours  decimal.Decimal
	HRHours            decimal.Decimal
	NonBillableHours   decimal.Decimal

	NonBillableCost              decimal.Decimal
	TechnicianNonBillableCost    decimal.Decimal
	ProfitMarginAfterNonBillable decimal.Decimal

	EmployeeCount   int
	TechnicianCount int
	SupervisorCount int
	HRCount         int
}

// Value returns the figure a self-check metric name refers to.
func (f FinancialMetrics) Value(metric string) (decimal.Decimal, bool) {
	switch metric {
	case rules.MetricRevenue:
		return f.TotalRevenue, true
	case rules.MetricUtilizationRate:
		return f.UtilizationRate, true
	case rules.MetricNonBillableCost:
		return f.NonBillableCost, true
	case rules.MetricGrossProfit:
		return f.GrossProfit, true
	case rules.MetricProfitMargin:
		return f.ProfitMargin, true
	}
	return decimal.Zero, false
}

// =============================================================================
// OPPORTUNITIES
// =============================================================================

// Priority ranks an opportunity.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// OpportunityMetric is unbilled technician capacity worth chasing.
type OpportunityMetric struct {
	Employee        string
	Role            rules.Role
	UtilizationRate decimal.Decimal
	PayrollHours    decimal.Decimal
	BillableHours   decimal.Decimal
	RevenuePerHour  decimal.Decimal

	PotentialAdditionalHours   decimal.Decimal
	PotentialAdditionalRevenue decimal.Decimal

	// The same hours priced at the cycle's revenue per billable hour. Useful
	// for technicians who billed nothing and so have no rate of their own.
	ProjectedRevenueAtCycleRate decimal.Decimal

	Priority Priority
}

// =============================================================================
// BUNDLE
// =============================================================================

// Bundle is everything one cycle produced. It is plain data; treat it as
// read-only.
type Bundle struct {
	RuleSet string

	Financial     FinancialMetrics
	Employees     []EmployeeMetric
	Opportunities []OpportunityMetric
	Unmatched     []names.UnmatchedEmployee
	DataQuality   quality.DataQualityMetrics
	SelfCheck     SelfCheckResult
	Matching      names.MatchReport
	Windows       WindowStats
}

// WindowStats counts rows by window outcome.
type WindowStats struct {
	BillingInWindow     int
	BillingOutOfWindow  int
	BillingUnparsable   int
	PayrollInWindow     int
	PayrollOutOfWindow  int
	PayrollUnparsable   int
	PayrollVoidIncluded int
	PayrollVoidExcluded int
}

// Employee finds an employee by canonical, billing or payroll name.
func (b *Bundle) Employee(name string) (EmployeeMetric, bool) {
	key := names.Canonicalize(name)
	for _, e := range b.Employees {
		if e.CanonicalName == key ||
			names.Canonicalize(e.BillingName) == key ||
			names.Canonicalize(e.PayrollName) == key {
			return e, true
		}
	}
	return EmployeeMetric{}, false
}
