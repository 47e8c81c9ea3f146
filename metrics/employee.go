package metrics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
)

// employeeMetric computes one identity's figures.
func (e *Engine) employeeMetric(id records.Identity) EmployeeMetric {
	m := EmployeeMetric{
		CanonicalName: id.Key,
		Matched:       id.Matched(),
		HRExcluded:    id.HR,
	}

	var billingRows []records.BillingRow
	if b := id.Billing; b != nil {
		m.BillingName = b.DisplayName
		m.BillableHours = b.Hours
		m.Revenue = b.Amount
		m.ServiceCodes = b.ServiceCodes()
		billingRows = b.Rows
	}
	if p := id.Payroll; p != nil {
		m.PayrollName = p.DisplayName
		m.PayrollHours = p.Hours
		m.PayrollCost = p.Cost
	}
	if id.Match != nil {
		m.MatchStrategy = id.Match.Strategy
		m.MatchConfidence = id.Match.Confidence
	}

	m.Role = records.ClassifyRole(billingRows, e.codeRoles)
	m.NonBillableHours = generic.NonNegative(m.PayrollHours.Sub(m.BillableHours))
	m.RevenuePerHour = generic.SafeDiv(m.Revenue, m.BillableHours)
	m.UtilizationRate = generic.Percent(m.BillableHours, m.PayrollHours)
	m.ProfitMargin = EmployeeProfitMargin(m.Revenue, m.PayrollCost)

	switch {
	case id.HR:
		m.Tier = e.rules.TiersFor(m.Role).TierFor(m.UtilizationRate)
	case m.Role == rules.RoleSupervisor:
		m.Tier = e.rules.TiersFor(m.Role).TierFor(m.ProfitMargin)
		m.PotentialRevenue = supervisorPotential(m.Revenue, m.PayrollCost, e.rules.MarginBenchmark)
	default:
		m.Tier = e.rules.TiersFor(m.Role).TierFor(m.UtilizationRate)
		if m.UtilizationRate.LessThan(e.rules.UtilizationBenchmark) {
			hours := additionalHours(m.PayrollHours, m.BillableHours, e.rules.UtilizationBenchmark)
			m.PotentialRevenue = hours.Mul(m.RevenuePerHour)
		}
	}
	return m
}

// EmployeeProfitMargin is (revenue − cost)/revenue × 100. With no revenue,
// any cost reports −100 and no cost reports 0.
func EmployeeProfitMargin(revenue, cost decimal.Decimal) decimal.Decimal {
	switch {
	case revenue.IsPositive():
		return generic.Percent(revenue.Sub(cost), revenue)
	case cost.IsPositive():
		return generic.NegativeHundred
	default:
		return decimal.Zero
	}
}

// additionalHours is the billable time needed to reach the benchmark.
func additionalHours(payroll, billable, benchmark decimal.Decimal) decimal.Decimal {
	return payroll.Mul(benchmark).Div(generic.Hundred).Sub(billable)
}

// supervisorPotential is the extra revenue needed to hit the margin
// benchmark against current cost, floored at zero.
func supervisorPotential(revenue, cost, benchmark decimal.Decimal) decimal.Decimal {
	keep := decimal.NewFromInt(1).Sub(benchmark.Div(generic.Hundred))
	return generic.NonNegative(generic.SafeDiv(cost, keep).Sub(revenue))
}

// sortEmployees orders by revenue descending, canonical name ascending.
func sortEmployees(es []EmployeeMetric) {
	sort.SliceStable(es, func(i, j int) bool {
		if c := es[i].Revenue.Cmp(es[j].Revenue); c != 0 {
			return c > 0
		}
		return es[i].CanonicalName < es[j].CanonicalName
	})
}
