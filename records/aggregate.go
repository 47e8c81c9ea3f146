package records

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/rules"
)

// =============================================================================
// GROUPS
// =============================================================================

// BillingGroup is one canonical employee's in-window billing.
type BillingGroup struct {
	Key         string
	DisplayName string
	Hours       decimal.Decimal
	Amount      decimal.Decimal
	Rows        []BillingRow
}

// ServiceCodes returns the distinct codes billed, ascending.
func (g *BillingGroup) ServiceCodes() []int {
	codes := lo.Uniq(lo.Map(g.Rows, func(r BillingRow, _ int) int { return r.ServiceCode }))
	sort.Ints(codes)
	return codes
}

// PayrollGroup is one canonical employee's in-window payroll.
type PayrollGroup struct {
	Key         string
	DisplayName string
	Department  string
	Hours       decimal.Decimal
	Cost        decimal.Decimal
	Rows        int
	VoidRows    int
	HR          bool
}

// BillingAggregate is the windowed, grouped billing ledger.
type BillingAggregate struct {
	Groups      map[string]*BillingGroup
	Hours       decimal.Decimal
	Amount      decimal.Decimal
	InWindow    int
	OutOfWindow int
	Unparsable  int
}

// Keys returns group keys in sorted order.
func (a *BillingAggregate) Keys() []string {
	return sortedKeys(a.Groups)
}

// DisplayNames returns the first spelling of every group, in key order.
func (a *BillingAggregate) DisplayNames() []string {
	keys := a.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = a.Groups[k].DisplayName
	}
	return out
}

// PayrollAggregate is the windowed payroll ledger split by staff partition.
type PayrollAggregate struct {
	Billable map[string]*PayrollGroup
	HR       map[string]*PayrollGroup

	BillableHours decimal.Decimal
	BillableCost  decimal.Decimal
	HRHours       decimal.Decimal
	HRCost        decimal.Decimal

	InWindow     int
	OutOfWindow  int
	Unparsable   int
	VoidIncluded int
	VoidExcluded int
}

// BillableKeys returns billable-staff group keys in sorted order.
func (a *PayrollAggregate) BillableKeys() []string {
	return sortedKeys(a.Billable)
}

// HRKeys returns HR group keys in sorted order.
func (a *PayrollAggregate) HRKeys() []string {
	return sortedKeys(a.HR)
}

// BillableDisplayNames returns the first spelling of every billable group.
func (a *PayrollAggregate) BillableDisplayNames() []string {
	keys := a.BillableKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = a.Billable[k].DisplayName
	}
	return out
}

// TotalCost is billable plus HR cost.
func (a *PayrollAggregate) TotalCost() decimal.Decimal {
	return a.BillableCost.Add(a.HRCost)
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator filters and groups rows under one rule set.
type Aggregator struct {
	rules  *rules.RuleSet
	mapper *names.Mapper
	hr     map[string]bool
}

// NewAggregator indexes the HR list under both raw-canonical and mapped keys.
func NewAggregator(rs *rules.RuleSet, mapper *names.Mapper) *Aggregator {
	hr := make(map[string]bool, 2*len(rs.HRStaff))
	for _, n := range rs.HRStaff {
		hr[names.Canonicalize(n)] = true
		hr[mapper.Canonical(n)] = true
	}
	return &Aggregator{rules: rs, mapper: mapper, hr: hr}
}

// Key returns the grouping key: mapped, then canonicalized.
func (a *Aggregator) Key(name string) string {
	return a.mapper.Canonical(name)
}

// IsHR reports whether a name belongs to the HR staff list.
func (a *Aggregator) IsHR(name string) bool {
	return a.hr[a.Key(name)] || a.hr[names.Canonicalize(name)]
}

// Billing keeps rows in the billing window and sums them per employee.
func (a *Aggregator) Billing(rows []BillingRow) *BillingAggregate {
	agg := &BillingAggregate{Groups: make(map[string]*BillingGroup)}

	for _, r := range rows {
		at := Classify(r.Date, a.rules)
		if !at.Parsed {
			agg.Unparsable++
			continue
		}
		if !at.Billing {
			agg.OutOfWindow++
			continue
		}
		key := a.Key(r.Employee)
		if key == "" {
			continue
		}

		g, ok := agg.Groups[key]
		if !ok {
			g = &BillingGroup{Key: key, DisplayName: strings.TrimSpace(r.Employee)}
			agg.Groups[key] = g
		}
		g.Hours = g.Hours.Add(r.Hours)
		g.Amount = g.Amount.Add(r.Amount)
		g.Rows = append(g.Rows, r)

		agg.Hours = agg.Hours.Add(r.Hours)
		agg.Amount = agg.Amount.Add(r.Amount)
		agg.InWindow++
	}
	return agg
}

// Payroll keeps rows in the payroll window, applies the void policy, splits
// HR staff from billable staff and sums each partition per employee.
func (a *Aggregator) Payroll(rows []PayrollRow) *PayrollAggregate {
	agg := &PayrollAggregate{
		Billable: make(map[string]*PayrollGroup),
		HR:       make(map[string]*PayrollGroup),
	}

	for _, r := range rows {
		at := Classify(r.CheckDate, a.rules)
		if !at.Parsed {
			agg.Unparsable++
			continue
		}
		if !at.Payroll {
			agg.OutOfWindow++
			continue
		}
		void := r.IsVoid()
		if void && a.rules.VoidPolicy == rules.VoidExclude {
			agg.VoidExcluded++
			continue
		}
		key := a.Key(r.Employee)
		if key == "" {
			continue
		}

		hr := a.IsHR(r.Employee)
		partition := agg.Billable
		if hr {
			partition = agg.HR
		}

		g, ok := partition[key]
		if !ok {
			g = &PayrollGroup{
				Key:         key,
				DisplayName: strings.TrimSpace(r.Employee),
				Department:  strings.TrimSpace(r.Department),
				HR:          hr,
			}
			partition[key] = g
		}
		cost := r.Cost()
		g.Hours = g.Hours.Add(r.Hours)
		g.Cost = g.Cost.Add(cost)
		g.Rows++
		if void {
			g.VoidRows++
			agg.VoidIncluded++
		}

		if hr {
			agg.HRHours = agg.HRHours.Add(r.Hours)
			agg.HRCost = agg.HRCost.Add(cost)
		} else {
			agg.BillableHours = agg.BillableHours.Add(r.Hours)
			agg.BillableCost = agg.BillableCost.Add(cost)
		}
		agg.InWindow++
	}
	return agg
}

func sortedKeys[T any](m map[string]T) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
