package metrics

import (
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/rules"
)

// Discrepancy is a headline figure outside its tolerance.
// Difference is actual − expected.
type Discrepancy struct {
	Metric     string
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
	Tolerance  decimal.Decimal
}

// SelfCheckResult is valid when nothing was out of tolerance.
type SelfCheckResult struct {
	Valid         bool
	Checked       []string
	Discrepancies []Discrepancy
}

// SelfCheck compares financial figures with known expected values. A
// discrepancy is reported when |actual − expected| exceeds the tolerance.
// Expectations for unknown metrics are ignored.
func SelfCheck(f FinancialMetrics, expectations []rules.Expectation) SelfCheckResult {
	res := SelfCheckResult{Valid: true}
	for _, exp := range expectations {
		actual, ok := f.Value(exp.Metric)
		if !ok {
			continue
		}
		res.Checked = append(res.Checked, exp.Metric)

		diff := actual.Sub(exp.Expected)
		if diff.Abs().GreaterThan(exp.Tolerance) {
			res.Valid = false
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Metric:     exp.Metric,
				Expected:   exp.Expected,
				Actual:     actual,
				Difference: diff,
				Tolerance:  exp.Tolerance,
			})
		}
	}
	return res
}
