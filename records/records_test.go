package records_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newAggregator(rs *rules.RuleSet) (*records.Aggregator, *names.Matcher) {
	mapper := names.NewMapper(rs.NameMappings)
	return records.NewAggregator(rs, mapper), names.NewMatcher(mapper)
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

// =============================================================================
// WINDOWS
// =============================================================================

func TestClassify_PayrollWindowLowerBound(t *testing.T) {
	rs := rules.Default()

	// GIVEN: The first and the day-before-first payroll check dates
	in := records.Classify("4/18/2025", rs)
	out := records.Classify("4/17/2025", rs)

	// THEN: 4/18 is in the payroll window, 4/17 is not
	assert.True(t, in.Parsed)
	assert.True(t, in.Payroll)
	assert.True(t, out.Parsed)
	assert.False(t, out.Payroll)
	assert.True(t, out.Billing, "4/17 is still inside the billing quarter")
}

func TestClassify_UnparsableIsInNeitherWindow(t *testing.T) {
	p := records.Classify("TBD", rules.Default())
	assert.False(t, p.Parsed)
	assert.False(t, p.Billing)
	assert.False(t, p.Payroll)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregator_Payroll_WindowLowerBound(t *testing.T) {
	agg, _ := newAggregator(rules.Default())

	// GIVEN: Checks dated on and one day before the first payroll date, plus
	// one with no readable date
	rows := []records.PayrollRow{
		pay("Martinez, Sofia", "4/18/2025", "40", "1,000.00"),
		pay("Martinez, Sofia", "4/17/2025", "40", "1,000.00"),
		pay("Martinez, Sofia", "TBD", "40", "1,000.00"),
	}

	// WHEN: Aggregated
	p := agg.Payroll(rows)

	// THEN: Only the 4/18 check counts
	assert.Equal(t, 1, p.InWindow)
	assert.Equal(t, 1, p.OutOfWindow)
	assert.Equal(t, 1, p.Unparsable)
	assert.True(t, p.BillableHours.Equal(dec("40")))
}

func TestAggregator_Billing_WindowBounds(t *testing.T) {
	agg, _ := newAggregator(rules.Default())

	b := agg.Billing([]records.BillingRow{
		bill("Sofia Martinez", 97153, "4/1/2025", "1", "50"),
		bill("Sofia Martinez", 97153, "6/30/2025", "1", "50"),
		bill("Sofia Martinez", 97153, "3/31/2025", "1", "50"),
		bill("Sofia Martinez", 97153, "7/1/2025", "1", "50"),
		bill("Sofia Martinez", 97153, "soon", "1", "50"),
	})

	assert.Equal(t, 2, b.InWindow)
	assert.Equal(t, 2, b.OutOfWindow)
	assert.Equal(t, 1, b.Unparsable)
}

func TestAggregator_Billing_GroupsByCanonicalNameInWindow(t *testing.T) {
	agg, _ := newAggregator(rules.Default())

	// GIVEN: Two spellings of one technician, one row outside the quarter and
	// one row with an unreadable date
	rows := []records.BillingRow{
		bill("Sofia Martinez", 97153, "4/2/2025", "10", "500"),
		bill("SOFIA  MARTINEZ", 97153, "2025-05-02", "5.5", "275.25"),
		bill("Sofia Martinez", 97153, "3/31/2025", "8", "400"),
		bill("Sofia Martinez", 97153, "someday", "8", "400"),
	}

	// WHEN: Aggregating
	b := agg.Billing(rows)

	// THEN: One group with the in-window sums
	require.Len(t, b.Groups, 1)
	g := b.Groups["sofia martinez"]
	require.NotNil(t, g)
	assert.Equal(t, "Sofia Martinez", g.DisplayName)
	assert.True(t, g.Hours.Equal(dec("15.5")))
	assert.True(t, g.Amount.Equal(dec("775.25")))
	assert.Equal(t, []int{97153}, g.ServiceCodes())

	assert.Equal(t, 2, b.InWindow)
	assert.Equal(t, 1, b.OutOfWindow)
	assert.Equal(t, 1, b.Unparsable)
}

func TestAggregator_Payroll_SplitsHRAndParsesAccounting(t *testing.T) {
	agg, _ := newAggregator(rules.Default())

	rows := []records.PayrollRow{
		pay("Martinez, Sofia", "4/18/2025", "40", "1,000.00"),
		pay("Martinez, Sofia", "5/2/2025 - Prior", "40", "(100.00)"),
		pay("Whitaker, Karen", "4/18/2025", "80", "3,200.00"),
		pay("Martinez, Sofia", "4/17/2025", "40", "1,000.00"),
	}

	p := agg.Payroll(rows)

	// THEN: Mapped key, accounting negative applied, HR partitioned
	g := p.Billable["sofia martinez"]
	require.NotNil(t, g)
	assert.True(t, g.Hours.Equal(dec("80")))
	assert.True(t, g.Cost.Equal(dec("900")))

	require.Len(t, p.HR, 1)
	assert.True(t, p.HRCost.Equal(dec("3200")))
	assert.True(t, p.BillableHours.Equal(dec("80")))
	assert.True(t, p.TotalCost().Equal(dec("4100")))
	assert.Equal(t, 1, p.OutOfWindow)
}

func TestAggregator_Payroll_VoidPolicy(t *testing.T) {
	rows := []records.PayrollRow{
		pay("Lee, Jordan", "5/16/2025", "40", "1,800.00"),
		pay("Lee, Jordan", "5/16/2025 - Void", "40", "(1,800.00)"),
	}

	// GIVEN: The default include policy
	agg, _ := newAggregator(rules.Default())
	p := agg.Payroll(rows)
	assert.True(t, p.BillableCost.IsZero(), "void reversal nets out")
	assert.Equal(t, 1, p.VoidIncluded)

	// GIVEN: An exclude policy
	rs := rules.Default()
	rs.VoidPolicy = rules.VoidExclude
	agg, _ = newAggregator(rs)
	p = agg.Payroll(rows)
	assert.True(t, p.BillableCost.Equal(dec("1800")))
	assert.Equal(t, 1, p.VoidExcluded)
}

// =============================================================================
// ROLES
// =============================================================================

func TestClassifyRole(t *testing.T) {
	codeRoles := rules.Default().CodeRoles()
	rows := func(codes ...int) []records.BillingRow {
		out := make([]records.BillingRow, len(codes))
		for i, c := range codes {
			out[i] = records.BillingRow{ServiceCode: c}
		}
		return out
	}

	tests := []struct {
		name  string
		codes []int
		want  rules.Role
	}{
		{"technician only", []int{97153, 97154}, rules.RoleTechnician},
		{"supervisor only", []int{97155, 97151}, rules.RoleSupervisor},
		{"supervisor majority", []int{97155, 97155, 97153}, rules.RoleSupervisor},
		{"tie goes to technician", []int{97155, 97153}, rules.RoleTechnician},
		{"unknown codes", []int{12345}, rules.RoleTechnician},
		{"no rows", nil, rules.RoleTechnician},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, records.ClassifyRole(rows(tt.codes...), codeRoles))
		})
	}
}

// =============================================================================
// RESOLUTION
// =============================================================================

func TestResolve_MergesMappedAndAutoMatchedNames(t *testing.T) {
	rs := rules.Default()
	agg, matcher := newAggregator(rs)

	// GIVEN: A mapped payroll spelling, a reorderable one and an HR person
	b := agg.Billing([]records.BillingRow{
		bill("Sofia Martinez", 97153, "4/7/2025", "10", "500"),
		bill("Jordan Lee", 97155, "4/9/2025", "10", "1100"),
	})
	p := agg.Payroll([]records.PayrollRow{
		pay("Martinez, Sofia", "4/18/2025", "12", "300"),
		pay("Lee, Jordan", "4/18/2025", "10", "450"),
		pay("Whitaker, Karen", "4/18/2025", "80", "3200"),
	})

	// WHEN: Resolving
	res := records.Resolve(b, p, matcher, rs.Matching.Threshold)

	// THEN: Both billing identities have payroll; HR is present but not unmatched
	require.Len(t, res.Identities, 3)
	assert.Empty(t, res.Unmatched)

	byKey := make(map[string]records.Identity)
	for _, id := range res.Identities {
		byKey[id.Key] = id
	}
	assert.True(t, byKey["sofia martinez"].Matched())
	assert.Nil(t, byKey["sofia martinez"].Match, "mapped names merge by key")

	lee := byKey["jordan lee"]
	assert.True(t, lee.Matched())
	require.NotNil(t, lee.Match)
	assert.Equal(t, names.StrategyExactLastFirstInitial, lee.Match.Strategy)

	assert.True(t, byKey["whitaker, karen"].HR)
}

func TestResolve_ReportsResidualsWithCandidates(t *testing.T) {
	rs := rules.Default()
	agg, matcher := newAggregator(rs)

	b := agg.Billing([]records.BillingRow{
		bill("Jordan Lee", 97153, "4/7/2025", "10", "500"),
		bill("Jordana Lee", 97153, "4/7/2025", "10", "500"),
		bill("Ana Ruiz", 97153, "4/7/2025", "10", "500"),
	})
	p := agg.Payroll([]records.PayrollRow{
		pay("Lee, J", "4/18/2025", "10", "250"),
		pay("Bell, Marcus", "4/18/2025", "10", "250"),
	})

	res := records.Resolve(b, p, matcher, rs.Matching.Threshold)

	// THEN: Billing-only residuals first, then payroll residuals
	require.Len(t, res.Unmatched, 5)
	for _, u := range res.Unmatched[:3] {
		assert.Equal(t, names.SourceBilling, u.Source)
		assert.Equal(t, names.ReasonNoPayroll, u.Reason)
	}

	bell := res.Unmatched[3]
	assert.Equal(t, "Bell, Marcus", bell.Name)
	assert.Equal(t, names.ReasonNoBilling, bell.Reason)

	ambiguous := res.Unmatched[4]
	assert.Equal(t, "Lee, J", ambiguous.Name)
	assert.Equal(t, names.AmbiguousReason(2), ambiguous.Reason)
	assert.ElementsMatch(t, []string{"Jordan Lee", "Jordana Lee"}, ambiguous.Candidates)

	assert.Len(t, res.Identities, 5)
}
