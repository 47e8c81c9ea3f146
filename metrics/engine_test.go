package metrics_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/metrics"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newEngine(t *testing.T) *metrics.Engine {
	t.Helper()
	e, err := metrics.NewEngine(rules.Default())
	require.NoError(t, err)
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bill(name string, code int, date, hours, amount string) records.BillingRow {
	return records.BillingRow{Employee: name, ServiceCode: code, Date: date, Hours: dec(hours), Amount: dec(amount)}
}

func pay(name, date, hours, cost string) records.PayrollRow {
	return records.PayrollRow{Employee: name, CheckDate: date, Hours: dec(hours), CostText: cost}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %s, got %s", msg, want, got)
}

// singleTechnician is one technician billing 100h for $5,000 against 120
// paid hours costing $3,000.
func singleTechnician() records.Input {
	return records.Input{
		Billing: []records.BillingRow{bill("Sofia Martinez", 97153, "5/5/2025", "100", "5000")},
		Payroll: []records.PayrollRow{pay("Martinez, Sofia", "5/9/2025", "120", "3,000.00")},
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestCompute_SingleTechnician(t *testing.T) {
	// GIVEN: 100 billed hours at $5,000 against 120 paid hours at $3,000
	e := newEngine(t)

	// WHEN: Computing the cycle
	b := e.Compute(singleTechnician())
	f := b.Financial

	// THEN: Utilization 83.33%, non-billable cost 20 × $25 = $500, and the
	// margin after non-billable cost is 30%
	assert.InDelta(t, 83.33, generic.Float(f.UtilizationRate), 0.1)
	assertDecimal(t, "500", f.NonBillableCost, "non-billable cost")
	assertDecimal(t, "30", f.ProfitMarginAfterNonBillable, "margin after non-billable")
	assertDecimal(t, "2000", f.GrossProfit, "gross profit")
	assertDecimal(t, "40", f.ProfitMargin, "profit margin")
	assertDecimal(t, "20", f.NonBillableHours, "non-billable hours")
	assertDecimal(t, "500", f.TechnicianNonBillableCost, "technician non-billable cost")
	assertDecimal(t, "50", f.RevenuePerBillableHour, "revenue per billable hour")

	require.Len(t, b.Employees, 1)
	emp := b.Employees[0]
	assert.Equal(t, "sofia martinez", emp.CanonicalName)
	assert.Equal(t, "Martinez, Sofia", emp.PayrollName)
	assert.Equal(t, rules.RoleTechnician, emp.Role)
	assert.Equal(t, rules.TierGood, emp.Tier)
	assert.True(t, emp.Matched)
	assertDecimal(t, "40", emp.ProfitMargin, "employee margin")
	assertDecimal(t, "400", emp.PotentialRevenue, "8 hours at $50")

	require.Len(t, b.Opportunities, 1)
	assert.Equal(t, metrics.PriorityMedium, b.Opportunities[0].Priority)
	assertDecimal(t, "8", b.Opportunities[0].PotentialAdditionalHours, "hours to benchmark")

	assert.Empty(t, b.Unmatched)
	assert.Equal(t, 100, b.Matching.MatchingRate)
	assert.Equal(t, 100, b.DataQuality.OverallScore)
}

func TestCompute_PayrollOnlyEmployee(t *testing.T) {
	// GIVEN: Payroll with no billing at all
	e := newEngine(t)
	in := records.Input{
		Payroll: []records.PayrollRow{pay("Bell, Marcus", "5/9/2025", "120", "3,000.00")},
	}

	b := e.Compute(in)
	f := b.Financial

	// THEN: Every paid hour is non-billable and the margin is 0, not negative
	assert.True(t, f.TotalRevenue.IsZero())
	assertDecimal(t, "3000", f.BillableStaffCost, "billable staff cost")
	assertDecimal(t, "3000", f.NonBillableCost, "non-billable cost")
	assert.True(t, f.UtilizationRate.IsZero())
	assert.True(t, f.ProfitMargin.IsZero())
	assert.True(t, f.ProfitMarginAfterNonBillable.IsZero())

	require.Len(t, b.Employees, 1)
	assertDecimal(t, "-100", b.Employees[0].ProfitMargin, "all cost, no revenue")
	assert.False(t, b.Employees[0].Matched)

	require.Len(t, b.Unmatched, 1)
	assert.Equal(t, names.SourcePayroll, b.Unmatched[0].Source)
	assert.Equal(t, names.ReasonNoBilling, b.Unmatched[0].Reason)
}

func TestCompute_UnbilledTechnicianPricedAtOwnRate(t *testing.T) {
	// GIVEN: A fully utilized technician and one who billed nothing
	e := newEngine(t)
	in := records.Input{
		Billing: []records.BillingRow{bill("Sofia Martinez", 97153, "5/5/2025", "100", "5000")},
		Payroll: []records.PayrollRow{
			pay("Sofia Martinez", "5/9/2025", "100", "2,500.00"),
			pay("Zed Quux", "5/9/2025", "200", "5,000.00"),
		},
	}

	b := e.Compute(in)

	// THEN: The idle technician has no rate of their own, so no potential revenue
	zed, ok := b.Employee("Zed Quux")
	require.True(t, ok)
	assert.True(t, zed.RevenuePerHour.IsZero())
	assert.True(t, zed.PotentialRevenue.IsZero())

	// AND: The opportunity agrees with the employee, and the cycle-rate view
	// is reported separately without lifting the priority
	require.Len(t, b.Opportunities, 1)
	opp := b.Opportunities[0]
	assert.Equal(t, "Zed Quux", opp.Employee)
	assertDecimal(t, "180", opp.PotentialAdditionalHours, "hours to benchmark")
	assert.True(t, opp.RevenuePerHour.IsZero())
	assert.True(t, opp.PotentialAdditionalRevenue.IsZero())
	assertDecimal(t, "9000", opp.ProjectedRevenueAtCycleRate, "180 hours at the $50 cycle rate")
	assert.Equal(t, metrics.PriorityMedium, opp.Priority)
}

func TestCompute_HRExcludedFromBillableFigures(t *testing.T) {
	// GIVEN: A technician plus an HR person on payroll
	e := newEngine(t)
	in := singleTechnician()
	in.Payroll = append(in.Payroll, pay("Whitaker, Karen", "5/9/2025", "80", "3,200.00"))

	b := e.Compute(in)
	f := b.Financial

	// THEN: HR cost is in total payroll cost and reported on its own, but
	// stays out of billable cost, billable hours and utilization
	assertDecimal(t, "6200", f.TotalPayrollCost, "total payroll cost")
	assertDecimal(t, "3200", f.HRCost, "hr cost")
	assertDecimal(t, "3000", f.BillableStaffCost, "billable staff cost")
	assertDecimal(t, "120", f.TotalPayrollHours, "billable payroll hours")
	assertDecimal(t, "80", f.HRHours, "hr hours")
	assert.InDelta(t, 83.33, generic.Float(f.UtilizationRate), 0.1)
	assertDecimal(t, "40", f.ProfitMarginVsBillableStaff, "margin vs billable staff")
	assertDecimal(t, "-24", f.ProfitMargin, "margin after all payroll")
	assertDecimal(t, "20", f.NonBillableHours, "hr hours are not non-billable")

	assert.Equal(t, 2, f.EmployeeCount)
	assert.Equal(t, 1, f.HRCount)
	assert.Equal(t, 1, f.TechnicianCount)

	hr, ok := b.Employee("whitaker,karen")
	require.True(t, ok)
	assert.True(t, hr.HRExcluded)
	assert.True(t, hr.PotentialRevenue.IsZero())
	assert.Len(t, b.Opportunities, 1, "hr staff are never opportunities")
	assert.Empty(t, b.Unmatched, "hr staff are never unmatched")
}

func TestCompute_UtilizationIsNotClamped(t *testing.T) {
	e := newEngine(t)
	in := records.Input{
		Billing: []records.BillingRow{bill("Sofia Martinez", 97153, "5/5/2025", "120", "6000")},
		Payroll: []records.PayrollRow{pay("Martinez, Sofia", "5/9/2025", "100", "2,500.00")},
	}

	b := e.Compute(in)

	assertDecimal(t, "120", b.Financial.UtilizationRate, "aggregate utilization")
	assertDecimal(t, "120", b.Employees[0].UtilizationRate, "employee utilization")
	assert.True(t, b.Employees[0].NonBillableHours.IsZero(), "never negative")
	assert.Equal(t, rules.TierExcellent, b.Employees[0].Tier)
	assert.Empty(t, b.Opportunities)
}

func TestCompute_SupervisorTieredByMargin(t *testing.T) {
	e := newEngine(t)
	in := records.Input{
		Billing: []records.BillingRow{bill("Jordan Lee", 97155, "4/9/2025", "50", "5500")},
		Payroll: []records.PayrollRow{pay("Lee, Jordan", "4/18/2025", "40", "3,600.00")},
	}

	b := e.Compute(in)

	require.Len(t, b.Employees, 1)
	emp := b.Employees[0]
	assert.Equal(t, rules.RoleSupervisor, emp.Role)
	assert.Equal(t, rules.TierGood, emp.Tier, "34.5% margin")
	assertDecimal(t, "500", emp.PotentialRevenue, "revenue needed for a 40% margin")
	assert.Equal(t, names.StrategyExactLastFirstInitial, emp.MatchStrategy)
	assert.Equal(t, 1, b.Financial.SupervisorCount)
	assert.Empty(t, b.Opportunities, "supervisors are not utilization opportunities")
}

func TestCompute_EmptyInput(t *testing.T) {
	// GIVEN: No rows at all
	b := newEngine(t).Compute(records.Input{})

	// THEN: A zeroed bundle, no panic
	assert.True(t, b.Financial.TotalRevenue.IsZero())
	assert.True(t, b.Financial.UtilizationRate.IsZero())
	assert.True(t, b.Financial.ProfitMargin.IsZero())
	assert.True(t, b.Financial.NonBillableCost.IsZero())
	assert.Empty(t, b.Employees)
	assert.Empty(t, b.Opportunities)
	assert.Equal(t, 0, b.DataQuality.OverallScore)
	assert.False(t, b.SelfCheck.Valid, "default expectations are far from zero")
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCompute_EmployeeProperties(t *testing.T) {
	e := newEngine(t)
	in := records.Input{
		Billing: []records.BillingRow{
			bill("Sofia Martinez", 97153, "4/7/2025", "80", "4000"),
			bill("Marcus Bell", 97153, "4/22/2025", "130", "6500"),
			bill("Ana Ruiz", 97153, "4/22/2025", "10", "500"),
		},
		Payroll: []records.PayrollRow{
			pay("Martinez, Sofia", "4/18/2025", "140", "3,500.00"),
			pay("Bell, Marcus", "4/18/2025", "100", "2,500.00"),
			pay("Nobody, Else", "4/18/2025", "40", "1,000.00"),
		},
	}

	b := e.Compute(in)

	for _, emp := range b.Employees {
		want := generic.NonNegative(emp.PayrollHours.Sub(emp.BillableHours))
		assert.True(t, emp.NonBillableHours.Equal(want), emp.CanonicalName)
		assert.False(t, emp.NonBillableHours.IsNegative(), emp.CanonicalName)

		if emp.Revenue.IsZero() && emp.PayrollCost.IsPositive() {
			assertDecimal(t, "-100", emp.ProfitMargin, emp.CanonicalName)
		}
	}

	// Revenue descending
	for i := 1; i < len(b.Employees); i++ {
		assert.False(t, b.Employees[i].Revenue.GreaterThan(b.Employees[i-1].Revenue))
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	e := newEngine(t)
	in := singleTechnician()
	in.Payroll = append(in.Payroll, pay("Bell, Marcus", "4/18/2025", "40", "1,000.00"))

	assert.Equal(t, e.Compute(in), e.Compute(in))
}

func TestCompute_OpportunityOrderIsStable(t *testing.T) {
	// GIVEN: Two technicians with identical shortfalls and one bigger one
	e := newEngine(t)
	in := records.Input{
		Billing: []records.BillingRow{
			bill("Zoe Adams", 97153, "4/7/2025", "50", "2500"),
			bill("Amy Brooks", 97153, "4/7/2025", "50", "2500"),
			bill("Kim Cole", 97153, "4/7/2025", "10", "500"),
		},
		Payroll: []records.PayrollRow{
			pay("Zoe Adams", "4/18/2025", "100", "2,500.00"),
			pay("Amy Brooks", "4/18/2025", "100", "2,500.00"),
			pay("Kim Cole", "4/18/2025", "200", "5,000.00"),
		},
	}

	b := e.Compute(in)

	// THEN: Largest first, ties in canonical name order
	require.Len(t, b.Opportunities, 3)
	assert.Equal(t, "Kim Cole", b.Opportunities[0].Employee)
	assert.Equal(t, metrics.PriorityHigh, b.Opportunities[0].Priority)
	assert.Equal(t, "Amy Brooks", b.Opportunities[1].Employee)
	assert.Equal(t, "Zoe Adams", b.Opportunities[2].Employee)
}

func TestEmployeeProfitMargin(t *testing.T) {
	assertDecimal(t, "40", metrics.EmployeeProfitMargin(dec("5000"), dec("3000")), "normal")
	assertDecimal(t, "-100", metrics.EmployeeProfitMargin(decimal.Zero, dec("3000")), "cost only")
	assertDecimal(t, "0", metrics.EmployeeProfitMargin(decimal.Zero, decimal.Zero), "nothing")
}

// =============================================================================
// SELF-CHECK
// =============================================================================

func TestSelfCheck(t *testing.T) {
	f := metrics.FinancialMetrics{
		TotalRevenue:    dec("1186500"),
		UtilizationRate: dec("79.2"),
	}
	exps := []rules.Expectation{
		{Metric: rules.MetricRevenue, Expected: dec("1186452.50"), Tolerance: dec("100")},
		{Metric: rules.MetricUtilizationRate, Expected: dec("78.4"), Tolerance: dec("0.5")},
		{Metric: "headcount", Expected: dec("1"), Tolerance: dec("0")},
	}

	res := metrics.SelfCheck(f, exps)

	assert.False(t, res.Valid)
	assert.Equal(t, []string{rules.MetricRevenue, rules.MetricUtilizationRate}, res.Checked)
	require.Len(t, res.Discrepancies, 1)
	d := res.Discrepancies[0]
	assert.Equal(t, rules.MetricUtilizationRate, d.Metric)
	assertDecimal(t, "0.8", d.Difference, "actual minus expected")
}

func TestNewEngine_RejectsInvalidRules(t *testing.T) {
	rs := rules.Default()
	rs.VoidPolicy = "maybe"

	_, err := metrics.NewEngine(rs)
	assert.ErrorIs(t, err, generic.ErrInvalidRules)
}

func TestNewEngine_CopiesRules(t *testing.T) {
	rs := rules.Default()
	e, err := metrics.NewEngine(rs)
	require.NoError(t, err)

	rs.Name = "changed"
	assert.Equal(t, "q2-2025", e.Rules().Name)
}

func TestNewEngine_LogsRuleSetSummary(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rs := rules.Default()

	_, err := metrics.NewEngine(rs, metrics.WithLogger(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("engine ready").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "q2-2025", fields["rule_set"])
	assert.Equal(t, int64(len(rs.NameMappings)), fields["name_mappings"])
}
