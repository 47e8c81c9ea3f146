package names

import (
	"fmt"
	"math"
	"strings"
)

// Source tags which export a name came from.
type Source string

const (
	SourceBilling Source = "billing"
	SourcePayroll Source = "payroll"
)

// UnmatchedEmployee is a name with no resolvable counterpart.
type UnmatchedEmployee struct {
	Name       string
	Source     Source
	Reason     string
	Candidates []string
}

// MatchedPair links one billing spelling to one payroll spelling.
type MatchedPair struct {
	Billing    string
	Payroll    string
	Confidence float64
	Strategy   string
}

// MatchReport summarizes cross-source identity coverage.
type MatchReport struct {
	Matched          []MatchedPair
	UnmatchedBilling []UnmatchedEmployee
	UnmatchedPayroll []UnmatchedEmployee
	TotalUnique      int
	MatchingRate     int
}

// Unmatched returns billing then payroll residuals.
func (r MatchReport) Unmatched() []UnmatchedEmployee {
	out := make([]UnmatchedEmployee, 0, len(r.UnmatchedBilling)+len(r.UnmatchedPayroll))
	out = append(out, r.UnmatchedBilling...)
	return append(out, r.UnmatchedPayroll...)
}

// Reason strings for unmatched employees.
const (
	ReasonNoPayroll = "no payroll record found"
	ReasonNoBilling = "no billing record found"
)

// AmbiguousReason describes a name with several plausible candidates.
func AmbiguousReason(n int) string {
	return fmt.Sprintf("ambiguous: %d candidates above threshold", n)
}

// ValidateEmployeeMatching unifies billing and payroll names.
//
// Each billing name is tried against the exact mapping first, then fuzzy
// matched against the payroll names still unclaimed. A single candidate at
// or above threshold is accepted; several are reported as ambiguous and
// left for a reviewer. The matching rate is matched names over all unique
// names across both sources, rounded.
func (m *Matcher) ValidateEmployeeMatching(billingNames, payrollNames []string, threshold float64) MatchReport {
	billing := uniqueNames(billingNames)
	payroll := uniqueNames(payrollNames)

	// Mapped canonical form -> payroll spelling, first spelling wins.
	payrollByKey := make(map[string]string, len(payroll))
	for _, p := range payroll {
		key := m.mapper.Canonical(p)
		if _, ok := payrollByKey[key]; !ok {
			payrollByKey[key] = p
		}
	}

	claimed := make(map[string]bool, len(payroll))
	report := MatchReport{TotalUnique: len(billing) + len(payroll)}

	var pending []string
	for _, b := range billing {
		p, ok := payrollByKey[m.mapper.Canonical(b)]
		if !ok || claimed[p] {
			pending = append(pending, b)
			continue
		}
		claimed[p] = true
		strategy := StrategyExactMapping
		if _, mapped := m.mapper.Lookup(p); !mapped {
			strategy = StrategyExactName
		}
		report.Matched = append(report.Matched, MatchedPair{
			Billing: b, Payroll: p, Confidence: 100, Strategy: strategy,
		})
	}

	for _, b := range pending {
		open := make([]string, 0, len(payroll))
		for _, p := range payroll {
			if !claimed[p] {
				open = append(open, p)
			}
		}

		res := m.FindMatches(b, open, threshold)
		switch {
		case len(res.FuzzyMatches) == 1:
			c := res.FuzzyMatches[0]
			claimed[c.Name] = true
			report.Matched = append(report.Matched, MatchedPair{
				Billing: b, Payroll: c.Name, Confidence: c.Confidence, Strategy: c.Strategy,
			})
		case len(res.FuzzyMatches) > 1:
			report.UnmatchedBilling = append(report.UnmatchedBilling, UnmatchedEmployee{
				Name:       b,
				Source:     SourceBilling,
				Reason:     AmbiguousReason(len(res.FuzzyMatches)),
				Candidates: candidateNames(res.FuzzyMatches),
			})
		default:
			report.UnmatchedBilling = append(report.UnmatchedBilling, UnmatchedEmployee{
				Name: b, Source: SourceBilling, Reason: ReasonNoPayroll,
			})
		}
	}

	for _, p := range payroll {
		if !claimed[p] {
			report.UnmatchedPayroll = append(report.UnmatchedPayroll, UnmatchedEmployee{
				Name: p, Source: SourcePayroll, Reason: ReasonNoBilling,
			})
		}
	}

	if report.TotalUnique > 0 {
		matched := 2 * len(report.Matched)
		report.MatchingRate = int(math.Round(float64(matched) / float64(report.TotalUnique) * 100))
	}
	return report
}

// uniqueNames drops blanks and canonical duplicates, keeping first spelling.
func uniqueNames(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = strings.TrimSpace(n)
		key := Canonicalize(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func candidateNames(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
