package quality

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
)

// Impact grades an issue.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Issue categories.
const (
	CategoryValidation = "validation"
	CategoryMatching   = "matching"
	CategoryTotals     = "totals"
)

// Issue is one categorized, non-fatal problem with the cycle's data.
type Issue struct {
	Impact      Impact
	Category    string
	Source      names.Source
	Count       int
	Description string
}

// DataQualityMetrics is the quality summary of one cycle.
type DataQualityMetrics struct {
	BillingQuality decimal.Decimal
	PayrollQuality decimal.Decimal
	MatchingRate   int
	OverallScore   int

	BillingValid   int
	BillingInvalid int
	PayrollValid   int
	PayrollInvalid int

	Findings []records.Finding
	Issues   []Issue
}

// Assessment is everything Score needs from a cycle.
type Assessment struct {
	BillingValid   int
	BillingInvalid int
	PayrollValid   int
	PayrollInvalid int

	// Core and ingestion findings together.
	Findings []records.Finding

	MatchingRate int
	// Names counted by the matching report; with none, matching is not assessed.
	MatchingNames int
	TargetRate    int
	CriticalRate  int

	Totals []TotalsMismatch
}

// Score rolls an assessment into per-source quality, an overall score and a
// list of issues.
func Score(a Assessment) DataQualityMetrics {
	dq := DataQualityMetrics{
		BillingQuality: sourceQuality(a.BillingValid, a.BillingInvalid),
		PayrollQuality: sourceQuality(a.PayrollValid, a.PayrollInvalid),
		MatchingRate:   a.MatchingRate,
		BillingValid:   a.BillingValid,
		BillingInvalid: a.BillingInvalid,
		PayrollValid:   a.PayrollValid,
		PayrollInvalid: a.PayrollInvalid,
		Findings:       a.Findings,
	}

	mean := generic.Sum(dq.BillingQuality, dq.PayrollQuality, decimal.NewFromInt(int64(a.MatchingRate))).
		Div(decimal.NewFromInt(3))
	dq.OverallScore = int(mean.Round(0).IntPart())

	for _, src := range []names.Source{names.SourceBilling, names.SourcePayroll} {
		errs := lo.CountBy(a.Findings, func(f records.Finding) bool {
			return f.Source == src && f.Severity == records.SeverityError
		})
		if errs > 0 {
			dq.Issues = append(dq.Issues, Issue{
				Impact:      ImpactHigh,
				Category:    CategoryValidation,
				Source:      src,
				Count:       errs,
				Description: fmt.Sprintf("%d %s validation errors; affected rows were excluded", errs, src),
			})
		}
		warns := lo.CountBy(a.Findings, func(f records.Finding) bool {
			return f.Source == src && f.Severity == records.SeverityWarning
		})
		if warns > 0 {
			dq.Issues = append(dq.Issues, Issue{
				Impact:      ImpactMedium,
				Category:    CategoryValidation,
				Source:      src,
				Count:       warns,
				Description: fmt.Sprintf("%d %s validation warnings", warns, src),
			})
		}
	}

	if a.MatchingNames > 0 && a.MatchingRate < a.TargetRate {
		impact := ImpactMedium
		if a.MatchingRate < a.CriticalRate {
			impact = ImpactHigh
		}
		dq.Issues = append(dq.Issues, Issue{
			Impact:      impact,
			Category:    CategoryMatching,
			Count:       1,
			Description: fmt.Sprintf("employee matching rate %d%% is below the %d%% target", a.MatchingRate, a.TargetRate),
		})
	}

	for _, m := range a.Totals {
		dq.Issues = append(dq.Issues, Issue{
			Impact:      ImpactMedium,
			Category:    CategoryTotals,
			Count:       1,
			Description: m.Description(),
		})
	}
	return dq
}

// sourceQuality is valid/(valid+invalid)×100, 0 with no rows.
func sourceQuality(valid, invalid int) decimal.Decimal {
	return generic.Percent(decimal.NewFromInt(int64(valid)), decimal.NewFromInt(int64(valid+invalid))).Round(2)
}
