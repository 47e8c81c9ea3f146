package rules

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
)

// Default returns the Q2 2025 rule set.
//
// Billing covers sessions delivered April through June. Payroll covers the
// checks that paid for that work, starting with the 4/18 check.
func Default() *RuleSet {
	return &RuleSet{
		Name: "q2-2025",

		BillingWindow: generic.Window{
			Start: generic.NewDay(2025, time.April, 1),
			End:   generic.NewDay(2025, time.June, 30),
		},
		PayrollWindow: generic.Window{
			Start: generic.NewDay(2025, time.April, 18),
			End:   generic.NewDay(2025, time.July, 11),
		},

		NameMappings: map[string]string{
			"Martinez, Sofia":       "Sofia Martinez",
			"Johnson, Robert":       "Bobby Johnson",
			"Nguyen, Thi Lan":       "Lan Nguyen",
			"Patel, Priyanka":       "Priya Patel",
			"O'Brien, Kathleen":     "Katie O'Brien",
			"Williams-Reed, Alexis": "Alexis Reed",
			"Thompson, Christopher": "Chris Thompson",
			"Garcia Lopez, Daniela": "Daniela Garcia",
		},

		HRStaff: []string{
			"Whitaker, Karen",
			"Davis, Michael",
			"Chen, Rachel",
		},

		Roles: map[Role]RoleRule{
			RoleTechnician: {
				ServiceCodes: []int{97153, 97154},
				HourlyRate:   decimal.NewFromInt(25),
			},
			RoleSupervisor: {
				ServiceCodes: []int{97151, 97152, 97155, 97156, 97157, 97158},
				HourlyRate:   decimal.NewFromInt(45),
			},
		},

		Tiers: map[Role]TierThresholds{
			RoleTechnician: {
				Excellent:        decimal.NewFromInt(90),
				Good:             decimal.NewFromInt(80),
				NeedsImprovement: decimal.NewFromInt(50),
			},
			RoleSupervisor: {
				Excellent:        decimal.NewFromInt(40),
				Good:             decimal.NewFromInt(30),
				NeedsImprovement: decimal.NewFromInt(20),
			},
		},

		UtilizationBenchmark: decimal.NewFromInt(90),
		MarginBenchmark:      decimal.NewFromInt(40),

		Opportunity: OpportunityRules{
			HighUtilizationBelow:  decimal.NewFromInt(50),
			HighRevenueAbove:      decimal.NewFromInt(5000),
			HighPayrollHoursAbove: decimal.NewFromInt(100),
			MediumRevenueAbove:    decimal.NewFromInt(2500),
		},

		Matching: MatchingRules{
			Threshold:           70,
			ValidationThreshold: 85,
			AutoMatchConfidence: 95,
			TargetRate:          90,
			CriticalRate:        70,
		},

		// Reference values from the reconciled Q2 2025 close.
		Expectations: []Expectation{
			{Metric: MetricRevenue, Expected: generic.MustParseDecimal("1186452.50"), Tolerance: decimal.NewFromInt(100)},
			{Metric: MetricUtilizationRate, Expected: generic.MustParseDecimal("78.4"), Tolerance: generic.MustParseDecimal("0.5")},
			{Metric: MetricNonBillableCost, Expected: generic.MustParseDecimal("96318.75"), Tolerance: decimal.NewFromInt(100)},
			{Metric: MetricGrossProfit, Expected: generic.MustParseDecimal("412977.18"), Tolerance: decimal.NewFromInt(100)},
			{Metric: MetricProfitMargin, Expected: generic.MustParseDecimal("34.8"), Tolerance: decimal.NewFromInt(1)},
		},
		TotalsTolerance: decimal.NewFromInt(1),

		VoidPolicy: VoidInclude,
	}
}
