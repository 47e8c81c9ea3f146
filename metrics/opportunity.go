package metrics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/rules"
)

// opportunities lists technicians below the utilization benchmark, ranked by
// potential additional revenue at their own rate. cycleRate only feeds the
// informational projection. Employees must arrive in a fixed order; ties
// keep it.
func opportunities(employees []EmployeeMetric, rs *rules.RuleSet, cycleRate decimal.Decimal) []OpportunityMetric {
	bench := rs.UtilizationBenchmark

	var out []OpportunityMetric
	for _, e := range employees {
		if e.Role != rules.RoleTechnician || e.HRExcluded {
			continue
		}
		if !e.PayrollHours.IsPositive() || !e.UtilizationRate.LessThan(bench) {
			continue
		}

		hours := additionalHours(e.PayrollHours, e.BillableHours, bench)
		revenue := hours.Mul(e.RevenuePerHour)

		out = append(out, OpportunityMetric{
			Employee:                    displayName(e),
			Role:                        e.Role,
			UtilizationRate:             e.UtilizationRate,
			PayrollHours:                e.PayrollHours,
			BillableHours:               e.BillableHours,
			RevenuePerHour:              e.RevenuePerHour,
			PotentialAdditionalHours:    hours,
			PotentialAdditionalRevenue:  revenue,
			ProjectedRevenueAtCycleRate: hours.Mul(cycleRate),
			Priority:                    priority(e, revenue, rs),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialAdditionalRevenue.GreaterThan(out[j].PotentialAdditionalRevenue)
	})
	return out
}

func priority(e EmployeeMetric, potential decimal.Decimal, rs *rules.RuleSet) Priority {
	o := rs.Opportunity
	switch {
	case e.UtilizationRate.LessThan(o.HighUtilizationBelow) &&
		potential.GreaterThan(o.HighRevenueAbove) &&
		e.PayrollHours.GreaterThan(o.HighPayrollHoursAbove):
		return PriorityHigh
	case e.UtilizationRate.LessThan(rs.UtilizationBenchmark) || potential.GreaterThan(o.MediumRevenueAbove):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func displayName(e EmployeeMetric) string {
	if e.BillingName != "" {
		return e.BillingName
	}
	if e.PayrollName != "" {
		return e.PayrollName
	}
	return e.CanonicalName
}
