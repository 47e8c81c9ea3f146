package quality_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/quality"
	"github.com/warp/reconcile-engine/records"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// ROW VALIDATION
// =============================================================================

func TestValidateBilling(t *testing.T) {
	// GIVEN: One good row, two broken rows and one with an unreadable date
	rows := []records.BillingRow{
		{Employee: "Sofia Martinez", ServiceCode: 97153, Date: "4/7/2025", Hours: dec("2"), Amount: dec("100"), Line: 2},
		{Employee: " ", ServiceCode: 97153, Date: "4/7/2025", Hours: dec("2"), Amount: dec("100"), Line: 3},
		{Employee: "Jordan Lee", ServiceCode: 0, Date: "4/7/2025", Hours: dec("-1"), Amount: dec("100"), Line: 4},
		{Employee: "Jordan Lee", ServiceCode: 97155, Date: "soon", Hours: dec("1"), Amount: dec("110"), Line: 5},
	}

	// WHEN: Validating
	v := quality.ValidateBilling(rows)

	// THEN: Error rows are excluded, warning rows are kept
	assert.Len(t, v.Valid, 2)
	assert.Equal(t, 2, v.Invalid)

	var errs, warns int
	for _, f := range v.Findings {
		assert.Equal(t, names.SourceBilling, f.Source)
		switch f.Severity {
		case records.SeverityError:
			errs++
		case records.SeverityWarning:
			warns++
		}
	}
	assert.Equal(t, 3, errs, "blank name, missing code, negative hours")
	assert.Equal(t, 1, warns)
}

func TestValidatePayroll(t *testing.T) {
	rows := []records.PayrollRow{
		{Employee: "Martinez, Sofia", CheckDate: "4/18/2025", Hours: dec("40"), CostText: "1,000.00", Line: 2},
		{Employee: "", CheckDate: "4/18/2025", Hours: dec("40"), CostText: "1,000.00", Line: 3},
		{Employee: "Lee, Jordan", CheckDate: "4/18/2025", Hours: dec("40"), CostText: "see memo", Line: 4},
		{Employee: "Lee, Jordan", CheckDate: "5/16/2025 - Void", Hours: dec("0"), CostText: "(450.00)", Line: 5},
		{Employee: "Bell, Marcus", CheckDate: "4/18/2025", Hours: dec("8"), CostText: "(200.00)", Line: 6},
	}

	v := quality.ValidatePayroll(rows)

	assert.Len(t, v.Valid, 4)
	assert.Equal(t, 1, v.Invalid)

	fields := make(map[int]string)
	for _, f := range v.Findings {
		fields[f.Line] = f.Field
	}
	assert.Equal(t, "employee", fields[3])
	assert.Equal(t, "cost", fields[4], "unreadable cost is a warning")
	_, flagged := fields[5]
	assert.False(t, flagged, "negative cost on a void row is expected")
	assert.Equal(t, "cost", fields[6])
}

// =============================================================================
// SOURCE TOTALS
// =============================================================================

func TestCheckTotals(t *testing.T) {
	in := records.Input{
		Billing: []records.BillingRow{
			{Hours: dec("10"), Amount: dec("500")},
			{Hours: dec("5"), Amount: dec("250")},
		},
		Payroll: []records.PayrollRow{
			{Hours: dec("20"), CostText: "(1,683.94)"},
		},
		Reported: records.ReportedTotals{
			BillingHours:  decimal.NewNullDecimal(dec("15")),
			BillingAmount: decimal.NewNullDecimal(dec("760")),
			PayrollCost:   decimal.NewNullDecimal(dec("-1683.50")),
		},
	}

	got := quality.CheckTotals(in, decimal.NewFromInt(1))

	// THEN: Only the amount is off by more than the tolerance
	require.Len(t, got, 1)
	assert.Equal(t, "billing amount", got[0].Field)
	assert.True(t, got[0].Difference.Equal(dec("-10")))
	assert.Contains(t, got[0].Description(), "760.00")
}

// =============================================================================
// SCORING
// =============================================================================

func TestScore_OverallIsRoundedMean(t *testing.T) {
	// GIVEN: Billing 90%, payroll 100%, matching 85%
	dq := quality.Score(quality.Assessment{
		BillingValid:   9,
		BillingInvalid: 1,
		PayrollValid:   4,
		MatchingRate:   85,
		MatchingNames:  10,
		TargetRate:     90,
		CriticalRate:   70,
	})

	assert.True(t, dq.BillingQuality.Equal(dec("90")))
	assert.True(t, dq.PayrollQuality.Equal(dec("100")))
	assert.Equal(t, 92, dq.OverallScore)

	require.Len(t, dq.Issues, 1)
	assert.Equal(t, quality.CategoryMatching, dq.Issues[0].Category)
	assert.Equal(t, quality.ImpactMedium, dq.Issues[0].Impact)
}

func TestScore_IssueImpacts(t *testing.T) {
	findings := []records.Finding{
		{Source: names.SourceBilling, Severity: records.SeverityError},
		{Source: names.SourceBilling, Severity: records.SeverityError},
		{Source: names.SourcePayroll, Severity: records.SeverityWarning},
	}

	dq := quality.Score(quality.Assessment{
		BillingValid:   8,
		BillingInvalid: 2,
		PayrollValid:   5,
		Findings:       findings,
		MatchingRate:   60,
		MatchingNames:  5,
		TargetRate:     90,
		CriticalRate:   70,
		Totals:         []quality.TotalsMismatch{{Field: "payroll cost"}},
	})

	require.Len(t, dq.Issues, 4)
	assert.Equal(t, quality.Issue{
		Impact:      quality.ImpactHigh,
		Category:    quality.CategoryValidation,
		Source:      names.SourceBilling,
		Count:       2,
		Description: "2 billing validation errors; affected rows were excluded",
	}, dq.Issues[0])
	assert.Equal(t, quality.ImpactMedium, dq.Issues[1].Impact)
	assert.Equal(t, names.SourcePayroll, dq.Issues[1].Source)
	assert.Equal(t, quality.ImpactHigh, dq.Issues[2].Impact, "below the critical matching rate")
	assert.Equal(t, quality.CategoryTotals, dq.Issues[3].Category)
}

func TestScore_NoRows(t *testing.T) {
	dq := quality.Score(quality.Assessment{TargetRate: 90, CriticalRate: 70})

	assert.True(t, dq.BillingQuality.IsZero())
	assert.True(t, dq.PayrollQuality.IsZero())
	assert.Equal(t, 0, dq.OverallScore)
	assert.Empty(t, dq.Issues, "no names means matching is not assessed")
}
