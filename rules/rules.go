/*
Package rules defines the business rule set the reconciliation engine runs under.

PURPOSE:
  Every business constant the engine needs (date windows, the payroll-to-billing
  name table, HR staff, service-code sets per role, benchmarks, tier cutoffs,
  self-check expectations) lives in one immutable RuleSet value. The engine
  receives it at construction, so tests and deployments can swap rule sets
  without touching algorithmic code.

KEY TYPES:
  - RuleSet: The full rule set for one reporting period
  - RoleRule: Service codes and flat hourly rate for a role
  - TierThresholds: Performance-tier cutoffs for a role
  - Expectation: Expected headline value and tolerance for the self-check

USAGE:
  rs := rules.Default()
  engine, err := metrics.NewEngine(rs)

  // Or from a YAML document
  rs, err := factory.LoadRuleSet("rules/q2-2025.yaml")

SEE ALSO:
  - defaults.go: The Q2 2025 rule set
  - factory/rules.go: YAML rule documents
*/
package rules

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the job classification derived from billed service codes.
type Role string

const (
	RoleTechnician Role = "TECH"
	RoleSupervisor Role = "BCBA"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTechnician || r == RoleSupervisor
}

// RoleRule assigns service codes and a flat hourly rate to a role.
type RoleRule struct {
	ServiceCodes []int
	HourlyRate   decimal.Decimal
}

// =============================================================================
// TIERS
// =============================================================================

// Tier is a performance bucket.
type Tier string

const (
	TierExcellent        Tier = "Excellent"
	TierGood             Tier = "Good"
	TierNeedsImprovement Tier = "NeedsImprovement"
	TierCritical         Tier = "Critical"
)

// TierThresholds are inclusive lower bounds; anything below NeedsImprovement
// is Critical. Technicians are tiered by utilization, supervisors by margin.
type TierThresholds struct {
	Excellent        decimal.Decimal
	Good             decimal.Decimal
	NeedsImprovement decimal.Decimal
}

// TierFor buckets a metric value.
func (t TierThresholds) TierFor(value decimal.Decimal) Tier {
	switch {
	case value.GreaterThanOrEqual(t.Excellent):
		return TierExcellent
	case value.GreaterThanOrEqual(t.Good):
		return TierGood
	case value.GreaterThanOrEqual(t.NeedsImprovement):
		return TierNeedsImprovement
	default:
		return TierCritical
	}
}

// =============================================================================
// OPPORTUNITIES, MATCHING, SELF-CHECK
// =============================================================================

// OpportunityRules tier technician revenue opportunities.
type OpportunityRules struct {
	HighUtilizationBelow  decimal.Decimal
	HighRevenueAbove      decimal.Decimal
	HighPayrollHoursAbove decimal.Decimal
	MediumRevenueAbove    decimal.Decimal
}

// MatchingRules configure identity matching and its quality targets.
type MatchingRules struct {
	Threshold           float64 // fuzzy candidates kept at or above this
	ValidationThreshold float64 // threshold for the matching report
	AutoMatchConfidence float64 // minimum top confidence to auto-resolve
	TargetRate          int     // matching rate below this is an issue
	CriticalRate        int     // below this the issue is high impact
}

// Metric names for self-check expectations.
const (
	MetricRevenue         = "revenue"
	MetricUtilizationRate = "utilization_rate"
	MetricNonBillableCost = "non_billable_cost"
	MetricGrossProfit     = "gross_profit"
	MetricProfitMargin    = "profit_margin"
)

// Expectation is a known headline value with an absolute tolerance.
type Expectation struct {
	Metric    string
	Expected  decimal.Decimal
	Tolerance decimal.Decimal
}

// VoidPolicy controls whether void payroll rows count toward cost.
type VoidPolicy string

const (
	VoidInclude VoidPolicy = "include"
	VoidExclude VoidPolicy = "exclude"
)

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet is the complete, immutable configuration for one reporting period.
// Treat values as read-only once handed to an engine.
type RuleSet struct {
	Name string

	BillingWindow generic.Window
	PayrollWindow generic.Window

	// Payroll spelling -> billing spelling.
	NameMappings map[string]string

	// HR staff, any spelling; compared after canonicalization.
	HRStaff []string

	Roles map[Role]RoleRule
	Tiers map[Role]TierThresholds

	UtilizationBenchmark decimal.Decimal
	MarginBenchmark      decimal.Decimal

	Opportunity OpportunityRules
	Matching    MatchingRules

	Expectations    []Expectation
	TotalsTolerance decimal.Decimal

	VoidPolicy VoidPolicy
}

// Validate checks internal consistency.
func (rs *RuleSet) Validate() error {
	if rs.BillingWindow.End.Before(rs.BillingWindow.Start) {
		return &generic.RuleError{Field: "windows.billing", Message: "end before start"}
	}
	if rs.PayrollWindow.End.Before(rs.PayrollWindow.Start) {
		return &generic.RuleError{Field: "windows.payroll", Message: "end before start"}
	}

	seen := make(map[int]Role)
	for _, role := range []Role{RoleTechnician, RoleSupervisor} {
		rr, ok := rs.Roles[role]
		if !ok {
			return &generic.RuleError{Field: "roles." + string(role), Message: "missing"}
		}
		if rr.HourlyRate.IsNegative() {
			return &generic.RuleError{Field: "roles." + string(role) + ".hourly_rate", Message: "negative"}
		}
		for _, code := range rr.ServiceCodes {
			if other, dup := seen[code]; dup {
				return &generic.RuleError{
					Field:   "roles." + string(role) + ".service_codes",
					Message: "code also assigned to " + string(other),
				}
			}
			seen[code] = role
		}

		t, ok := rs.Tiers[role]
		if !ok {
			return &generic.RuleError{Field: "tiers." + string(role), Message: "missing"}
		}
		if t.Excellent.LessThan(t.Good) || t.Good.LessThan(t.NeedsImprovement) {
			return &generic.RuleError{Field: "tiers." + string(role), Message: "cutoffs must descend"}
		}
	}

	if rs.MarginBenchmark.GreaterThanOrEqual(generic.Hundred) {
		return &generic.RuleError{Field: "benchmarks.profit_margin", Message: "must be below 100"}
	}
	if rs.Matching.Threshold < 0 || rs.Matching.Threshold > 100 {
		return &generic.RuleError{Field: "matching.threshold", Message: "must be within 0-100"}
	}
	switch rs.VoidPolicy {
	case VoidInclude, VoidExclude:
	default:
		return &generic.RuleError{Field: "void_policy", Message: "must be include or exclude"}
	}
	for _, e := range rs.Expectations {
		if e.Tolerance.IsNegative() {
			return &generic.RuleError{Field: "expectations." + e.Metric, Message: "negative tolerance"}
		}
	}
	return nil
}

// CodeRoles inverts Roles into a service-code lookup.
func (rs *RuleSet) CodeRoles() map[int]Role {
	out := make(map[int]Role)
	for role, rr := range rs.Roles {
		for _, code := range rr.ServiceCodes {
			out[code] = role
		}
	}
	return out
}

// HourlyRate returns the flat rate for a role.
func (rs *RuleSet) HourlyRate(role Role) decimal.Decimal {
	return rs.Roles[role].HourlyRate
}

// TiersFor returns the thresholds for a role.
func (rs *RuleSet) TiersFor(role Role) TierThresholds {
	return rs.Tiers[role]
}

// Expectation returns the expectation for a metric, if any.
func (rs *RuleSet) Expectation(metric string) (Expectation, bool) {
	for _, e := range rs.Expectations {
		if e.Metric == metric {
			return e, true
		}
	}
	return Expectation{}, false
}

// Clone returns a deep copy so callers can derive variants safely.
func (rs *RuleSet) Clone() *RuleSet {
	out := *rs

	out.NameMappings = make(map[string]string, len(rs.NameMappings))
	for k, v := range rs.NameMappings {
		out.NameMappings[k] = v
	}
	out.HRStaff = append([]string(nil), rs.HRStaff...)

	out.Roles = make(map[Role]RoleRule, len(rs.Roles))
	for k, v := range rs.Roles {
		v.ServiceCodes = append([]int(nil), v.ServiceCodes...)
		out.Roles[k] = v
	}
	out.Tiers = make(map[Role]TierThresholds, len(rs.Tiers))
	for k, v := range rs.Tiers {
		out.Tiers[k] = v
	}
	out.Expectations = append([]Expectation(nil), rs.Expectations...)
	return &out
}

// SortedMappingKeys returns the payroll spellings in stable order.
func (rs *RuleSet) SortedMappingKeys() []string {
	keys := make([]string, 0, len(rs.NameMappings))
	for k := range rs.NameMappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
