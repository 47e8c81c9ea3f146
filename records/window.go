package records

import (
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/rules"
)

// Placement says which business windows a raw date cell falls in.
type Placement struct {
	Parsed  bool
	Day     generic.Day
	Billing bool
	Payroll bool
}

// Classify parses a raw date and places it against both windows of rs.
// Unparsable dates are in neither.
func Classify(raw string, rs *rules.RuleSet) Placement {
	day, ok := generic.ParseFlexibleDate(raw)
	if !ok {
		return Placement{}
	}
	return Placement{
		Parsed:  true,
		Day:     day,
		Billing: rs.BillingWindow.Contains(day),
		Payroll: rs.PayrollWindow.Contains(day),
	}
}
