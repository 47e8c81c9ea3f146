package quality

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/records"
)

// TotalsMismatch is one source-reported total the ingested rows disagree with.
type TotalsMismatch struct {
	Field      string
	Reported   decimal.Decimal
	Computed   decimal.Decimal
	Difference decimal.Decimal
}

// Description renders the mismatch for an issue list.
func (m TotalsMismatch) Description() string {
	return fmt.Sprintf("%s: source reports %s, rows sum to %s", m.Field, m.Reported.StringFixed(2), m.Computed.StringFixed(2))
}

// CheckTotals compares the totals printed by the source exports with the sums
// of the rows actually ingested, before any window filtering. Totals the
// source did not report are skipped.
func CheckTotals(in records.Input, tolerance decimal.Decimal) []TotalsMismatch {
	var billingHours, billingAmount, payrollHours, payrollCost decimal.Decimal
	for _, r := range in.Billing {
		billingHours = billingHours.Add(r.Hours)
		billingAmount = billingAmount.Add(r.Amount)
	}
	for _, r := range in.Payroll {
		payrollHours = payrollHours.Add(r.Hours)
		payrollCost = payrollCost.Add(r.Cost())
	}

	checks := []struct {
		field    string
		reported decimal.NullDecimal
		computed decimal.Decimal
	}{
		{"billing hours", in.Reported.BillingHours, billingHours},
		{"billing amount", in.Reported.BillingAmount, billingAmount},
		{"payroll hours", in.Reported.PayrollHours, payrollHours},
		{"payroll cost", in.Reported.PayrollCost, payrollCost},
	}

	var out []TotalsMismatch
	for _, c := range checks {
		if !c.reported.Valid {
			continue
		}
		diff := c.computed.Sub(c.reported.Decimal)
		if diff.Abs().GreaterThan(tolerance) {
			out = append(out, TotalsMismatch{
				Field:      c.field,
				Reported:   c.reported.Decimal,
				Computed:   c.computed,
				Difference: diff,
			})
		}
	}
	return out
}
