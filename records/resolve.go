package records

import (
	"fmt"
	"sort"

	"github.com/warp/reconcile-engine/names"
)

// Identity is one canonical employee after cross-source resolution. Either
// side may be nil; HR identities carry their HR payroll group.
type Identity struct {
	Key     string
	Billing *BillingGroup
	Payroll *PayrollGroup
	HR      bool

	// Set when the payroll side was attached by fuzzy match.
	Match *names.Candidate
}

// Matched reports presence in both sources.
func (id Identity) Matched() bool {
	return id.Billing != nil && id.Payroll != nil
}

// Resolution is the identity set for a cycle plus the residuals.
type Resolution struct {
	Identities []Identity
	Unmatched  []names.UnmatchedEmployee
}

// Resolve pairs billing and payroll groups by canonical key.
//
// Payroll groups with no billing counterpart are fuzzy matched against the
// billing groups that also lack one. Only an auto-match (a single candidate
// at the auto-match confidence) merges the two; anything else is reported as
// unmatched with its candidates. HR staff are never reported as unmatched.
func Resolve(billing *BillingAggregate, payroll *PayrollAggregate, matcher *names.Matcher, threshold float64) Resolution {
	ids := make(map[string]*Identity)

	for _, k := range billing.Keys() {
		ids[k] = &Identity{Key: k, Billing: billing.Groups[k]}
	}
	for _, k := range payroll.HRKeys() {
		id, ok := ids[k]
		if !ok {
			id = &Identity{Key: k}
			ids[k] = id
		}
		id.Payroll = payroll.HR[k]
		id.HR = true
	}

	var orphans []string
	for _, k := range payroll.BillableKeys() {
		id, ok := ids[k]
		if ok && id.Payroll == nil {
			id.Payroll = payroll.Billable[k]
			continue
		}
		orphans = append(orphans, k)
	}

	claimed := make(map[string]bool)
	var unmatched []names.UnmatchedEmployee

	for _, k := range orphans {
		group := payroll.Billable[k]

		var open []string
		for _, bk := range billing.Keys() {
			if id := ids[bk]; id.Payroll == nil && !claimed[bk] {
				open = append(open, bk)
			}
		}

		res := matcher.FindMatches(k, open, threshold)
		if res.ShouldAutoMatch && len(res.FuzzyMatches) == 1 {
			c := res.FuzzyMatches[0]
			claimed[c.Name] = true
			id := ids[c.Name]
			id.Payroll = group
			id.Match = &c
			continue
		}

		if _, taken := ids[k]; !taken {
			ids[k] = &Identity{Key: k, Payroll: group}
		}
		u := names.UnmatchedEmployee{
			Name:   group.DisplayName,
			Source: names.SourcePayroll,
			Reason: names.ReasonNoBilling,
		}
		switch len(res.FuzzyMatches) {
		case 0:
		case 1:
			c := res.FuzzyMatches[0]
			u.Reason = fmt.Sprintf("low-confidence candidate (%.0f%%)", c.Confidence)
			u.Candidates = displayNames(billing, res.FuzzyMatches)
		default:
			u.Reason = names.AmbiguousReason(len(res.FuzzyMatches))
			u.Candidates = displayNames(billing, res.FuzzyMatches)
		}
		unmatched = append(unmatched, u)
	}

	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var billingOnly []names.UnmatchedEmployee
	out := Resolution{Identities: make([]Identity, 0, len(keys))}
	for _, k := range keys {
		id := ids[k]
		out.Identities = append(out.Identities, *id)
		if id.Billing != nil && id.Payroll == nil {
			billingOnly = append(billingOnly, names.UnmatchedEmployee{
				Name:   id.Billing.DisplayName,
				Source: names.SourceBilling,
				Reason: names.ReasonNoPayroll,
			})
		}
	}

	out.Unmatched = append(billingOnly, unmatched...)
	return out
}

func displayNames(billing *BillingAggregate, cs []names.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = billing.Groups[c.Name].DisplayName
	}
	return out
}
