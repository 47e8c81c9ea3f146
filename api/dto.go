/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication. The engine works in
  decimal.Decimal throughout; DTOs round to two places and expose plain
  numbers so clients never have to parse decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Bundle:
    BundleDTO, FinancialDTO, EmployeeDTO, OpportunityDTO, UnmatchedDTO
  Quality:
    QualityDTO, IssueDTO, FindingDTO, SelfCheckDTO, MatchingDTO
  Diagnostics:
    MatchResultDTO, CycleSummaryDTO
  Scenarios:
    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - metrics/types.go: The domain types converted here
*/
package api

import (
	"time"

	"github.com/samber/lo"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/metrics"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/quality"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/store"
)

// =============================================================================
// BUNDLE
// =============================================================================

// BundleDTO is a full load cycle.
type BundleDTO struct {
	CycleID       string           `json:"cycle_id"`
	Origin        string           `json:"origin"`
	LastUpdated   string           `json:"last_updated"`
	RuleSet       string           `json:"rule_set"`
	Financial     FinancialDTO     `json:"financial"`
	Employees     []EmployeeDTO    `json:"employees"`
	Opportunities []OpportunityDTO `json:"opportunities"`
	Unmatched     []UnmatchedDTO   `json:"unmatched"`
	DataQuality   QualityDTO       `json:"data_quality"`
	SelfCheck     SelfCheckDTO     `json:"self_check"`
	Matching      MatchingDTO      `json:"matching"`
	Windows       WindowsDTO       `json:"windows"`
}

// FinancialDTO represents aggregate figures.
type FinancialDTO struct {
	TotalRevenue                 float64 `json:"total_revenue"`
	TotalPayrollCost             float64 `json:"total_payroll_cost"`
	BillableStaffCost            float64 `json:"billable_staff_cost"`
	HRCost                       float64 `json:"hr_cost"`
	GrossProfit                  float64 `json:"gross_profit"`
	ProfitMargin                 float64 `json:"profit_margin"`
	NetProfit                    float64 `json:"net_profit"`
	ProfitMarginVsBillableStaff  float64 `json:"profit_margin_vs_billable_staff"`
	UtilizationRate              float64 `json:"utilization_rate"`
	RevenuePerBillableHour       float64 `json:"revenue_per_billable_hour"`
	TotalBillableHours           float64 `json:"total_billable_hours"`
	TotalPayrollHours            float64 `json:"total_payroll_hours"`
	HRHours                      float64 `json:"hr_hours"`
	NonBillableHours             float64 `json:"non_billable_hours"`
	NonBillableCost              float64 `json:"non_billable_cost"`
	TechnicianNonBillableCost    float64 `json:"technician_non_billable_cost"`
	ProfitMarginAfterNonBillable float64 `json:"profit_margin_after_non_billable"`
	EmployeeCount                int     `json:"employee_count"`
	TechnicianCount              int     `json:"technician_count"`
	SupervisorCount              int     `json:"supervisor_count"`
	HRCount                      int     `json:"hr_count"`
}

// EmployeeDTO represents one employee's metrics.
type EmployeeDTO struct {
	CanonicalName    string  `json:"canonical_name"`
	BillingName      string  `json:"billing_name,omitempty"`
	PayrollName      string  `json:"payroll_name,omitempty"`
	Role             string  `json:"role"`
	ServiceCodes     []int   `json:"service_codes"`
	BillableHours    float64 `json:"billable_hours"`
	PayrollHours     float64 `json:"payroll_hours"`
	NonBillableHours float64 `json:"non_billable_hours"`
	Revenue          float64 `json:"revenue"`
	PayrollCost      float64 `json:"payroll_cost"`
	RevenuePerHour   float64 `json:"revenue_per_hour"`
	UtilizationRate  float64 `json:"utilization_rate"`
	ProfitMargin     float64 `json:"profit_margin"`
	Tier             string  `json:"performance_tier"`
	PotentialRevenue float64 `json:"potential_revenue"`
	Matched          bool    `json:"matched"`
	HRExcluded       bool    `json:"hr_excluded"`
	MatchStrategy    string  `json:"match_strategy,omitempty"`
	MatchConfidence  float64 `json:"match_confidence,omitempty"`
}

// OpportunityDTO represents unbilled technician capacity.
type OpportunityDTO struct {
	Employee                    string  `json:"employee"`
	Role                        string  `json:"role"`
	UtilizationRate             float64 `json:"utilization_rate"`
	PayrollHours                float64 `json:"payroll_hours"`
	BillableHours               float64 `json:"billable_hours"`
	RevenuePerHour              float64 `json:"revenue_per_hour"`
	PotentialAdditionalHours    float64 `json:"potential_additional_hours"`
	PotentialAdditionalRevenue  float64 `json:"potential_additional_revenue"`
	ProjectedRevenueAtCycleRate float64 `json:"projected_revenue_at_cycle_rate"`
	Priority                    string  `json:"priority"`
}

// UnmatchedDTO represents a name with no counterpart.
type UnmatchedDTO struct {
	Name       string   `json:"name"`
	Source     string   `json:"source"`
	Reason     string   `json:"reason"`
	Candidates []string `json:"candidates,omitempty"`
}

// WindowsDTO counts rows by window outcome.
type WindowsDTO struct {
	BillingInWindow     int `json:"billing_in_window"`
	BillingOutOfWindow  int `json:"billing_out_of_window"`
	BillingUnparsable   int `json:"billing_unparsable"`
	PayrollInWindow     int `json:"payroll_in_window"`
	PayrollOutOfWindow  int `json:"payroll_out_of_window"`
	PayrollUnparsable   int `json:"payroll_unparsable"`
	PayrollVoidIncluded int `json:"payroll_void_included"`
	PayrollVoidExcluded int `json:"payroll_void_excluded"`
}

// =============================================================================
// QUALITY
// =============================================================================

// QualityDTO represents data quality.
type QualityDTO struct {
	BillingQuality float64      `json:"billing_quality"`
	PayrollQuality float64      `json:"payroll_quality"`
	MatchingRate   int          `json:"matching_rate"`
	OverallScore   int          `json:"overall_score"`
	BillingValid   int          `json:"billing_valid"`
	BillingInvalid int          `json:"billing_invalid"`
	PayrollValid   int          `json:"payroll_valid"`
	PayrollInvalid int          `json:"payroll_invalid"`
	Issues         []IssueDTO   `json:"issues"`
	Findings       []FindingDTO `json:"findings"`
}

// IssueDTO represents a categorized issue.
type IssueDTO struct {
	Impact      string `json:"impact"`
	Category    string `json:"category"`
	Source      string `json:"source,omitempty"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// FindingDTO represents a row-level finding.
type FindingDTO struct {
	Source   string `json:"source"`
	Line     int    `json:"line"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// SelfCheckDTO represents the self-check outcome.
type SelfCheckDTO struct {
	Valid         bool             `json:"valid"`
	Checked       []string         `json:"checked"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

// DiscrepancyDTO is one out-of-tolerance figure.
type DiscrepancyDTO struct {
	Metric     string  `json:"metric"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	Tolerance  float64 `json:"tolerance"`
}

// MatchingDTO represents the matching report.
type MatchingDTO struct {
	Matched          []MatchedPairDTO `json:"matched"`
	UnmatchedBilling []UnmatchedDTO   `json:"unmatched_billing"`
	UnmatchedPayroll []UnmatchedDTO   `json:"unmatched_payroll"`
	TotalUnique      int              `json:"total_unique"`
	MatchingRate     int              `json:"matching_rate"`
}

// MatchedPairDTO links a billing and payroll spelling.
type MatchedPairDTO struct {
	Billing    string  `json:"billing"`
	Payroll    string  `json:"payroll"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy"`
}

// =============================================================================
// DIAGNOSTICS, HISTORY, SCENARIOS
// =============================================================================

// MatchResultDTO is the matcher's answer for one name.
type MatchResultDTO struct {
	Name            string         `json:"name"`
	Threshold       float64        `json:"threshold"`
	ExactMatch      *string        `json:"exact_match"`
	Candidates      []CandidateDTO `json:"candidates"`
	Confidence      float64        `json:"confidence"`
	ShouldAutoMatch bool           `json:"should_auto_match"`
}

// CandidateDTO is one scored candidate.
type CandidateDTO struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy"`
}

// CycleSummaryDTO is one entry of load history.
type CycleSummaryDTO struct {
	ID            string `json:"id"`
	Origin        string `json:"origin"`
	LoadedAt      string `json:"loaded_at"`
	RuleSet       string `json:"rule_set"`
	Employees     int    `json:"employees"`
	Unmatched     int    `json:"unmatched"`
	QualityScore  int    `json:"quality_score"`
	SelfCheckPass bool   `json:"self_check_valid"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toBundleDTO(c store.Cycle) BundleDTO {
	b := c.Bundle
	w := b.Windows
	return BundleDTO{
		CycleID:       c.ID,
		Origin:        c.Origin,
		LastUpdated:   c.LoadedAt.Format(time.RFC3339),
		RuleSet:       b.RuleSet,
		Financial:     toFinancialDTO(b.Financial),
		Employees:     toEmployeeDTOs(b.Employees),
		Opportunities: toOpportunityDTOs(b.Opportunities),
		Unmatched:     toUnmatchedDTOs(b.Unmatched),
		DataQuality:   toQualityDTO(b.DataQuality),
		SelfCheck:     toSelfCheckDTO(b.SelfCheck),
		Matching:      toMatchingDTO(b.Matching),
		Windows: WindowsDTO{
			BillingInWindow:     w.BillingInWindow,
			BillingOutOfWindow:  w.BillingOutOfWindow,
			BillingUnparsable:   w.BillingUnparsable,
			PayrollInWindow:     w.PayrollInWindow,
			PayrollOutOfWindow:  w.PayrollOutOfWindow,
			PayrollUnparsable:   w.PayrollUnparsable,
			PayrollVoidIncluded: w.PayrollVoidIncluded,
			PayrollVoidExcluded: w.PayrollVoidExcluded,
		},
	}
}

func toFinancialDTO(f metrics.FinancialMetrics) FinancialDTO {
	return FinancialDTO{
		TotalRevenue:                 generic.Float(f.TotalRevenue),
		TotalPayrollCost:             generic.Float(f.TotalPayrollCost),
		BillableStaffCost:            generic.Float(f.BillableStaffCost),
		HRCost:                       generic.Float(f.HRCost),
		GrossProfit:                  generic.Float(f.GrossProfit),
		ProfitMargin:                 generic.Float(f.ProfitMargin),
		NetProfit:                    generic.Float(f.NetProfit),
		ProfitMarginVsBillableStaff:  generic.Float(f.ProfitMarginVsBillableStaff),
		UtilizationRate:              generic.Float(f.UtilizationRate),
		RevenuePerBillableHour:       generic.Float(f.RevenuePerBillableHour),
		TotalBillableHours:           generic.Float(f.TotalBillableHours),
		TotalPayrollHours:            generic.Float(f.TotalPayrollHours),
		HRHours:                      generic.Float(f.HRHours),
		NonBillableHours:             generic.Float(f.NonBillableHours),
		NonBillableCost:              generic.Float(f.NonBillableCost),
		TechnicianNonBillableCost:    generic.Float(f.TechnicianNonBillableCost),
		ProfitMarginAfterNonBillable: generic.Float(f.ProfitMarginAfterNonBillable),
		EmployeeCount:                f.EmployeeCount,
		TechnicianCount:              f.TechnicianCount,
		SupervisorCount:              f.SupervisorCount,
		HRCount:                      f.HRCount,
	}
}

func toEmployeeDTO(e metrics.EmployeeMetric) EmployeeDTO {
	codes := e.ServiceCodes
	if codes == nil {
		codes = []int{}
	}
	return EmployeeDTO{
		CanonicalName:    e.CanonicalName,
		BillingName:      e.BillingName,
		PayrollName:      e.PayrollName,
		Role:             string(e.Role),
		ServiceCodes:     codes,
		BillableHours:    generic.Float(e.BillableHours),
		PayrollHours:     generic.Float(e.PayrollHours),
		NonBillableHours: generic.Float(e.NonBillableHours),
		Revenue:          generic.Float(e.Revenue),
		PayrollCost:      generic.Float(e.PayrollCost),
		RevenuePerHour:   generic.Float(e.RevenuePerHour),
		UtilizationRate:  generic.Float(e.UtilizationRate),
		ProfitMargin:     generic.Float(e.ProfitMargin),
		Tier:             string(e.Tier),
		PotentialRevenue: generic.Float(e.PotentialRevenue),
		Matched:          e.Matched,
		HRExcluded:       e.HRExcluded,
		MatchStrategy:    e.MatchStrategy,
		MatchConfidence:  e.MatchConfidence,
	}
}

func toEmployeeDTOs(es []metrics.EmployeeMetric) []EmployeeDTO {
	out := make([]EmployeeDTO, len(es))
	for i, e := range es {
		out[i] = toEmployeeDTO(e)
	}
	return out
}

func toOpportunityDTOs(ops []metrics.OpportunityMetric) []OpportunityDTO {
	out := make([]OpportunityDTO, len(ops))
	for i, o := range ops {
		out[i] = OpportunityDTO{
			Employee:                    o.Employee,
			Role:                        string(o.Role),
			UtilizationRate:             generic.Float(o.UtilizationRate),
			PayrollHours:                generic.Float(o.PayrollHours),
			BillableHours:               generic.Float(o.BillableHours),
			RevenuePerHour:              generic.Float(o.RevenuePerHour),
			PotentialAdditionalHours:    generic.Float(o.PotentialAdditionalHours),
			PotentialAdditionalRevenue:  generic.Float(o.PotentialAdditionalRevenue),
			ProjectedRevenueAtCycleRate: generic.Float(o.ProjectedRevenueAtCycleRate),
			Priority:                    string(o.Priority),
		}
	}
	return out
}

func toUnmatchedDTOs(us []names.UnmatchedEmployee) []UnmatchedDTO {
	out := make([]UnmatchedDTO, len(us))
	for i, u := range us {
		out[i] = UnmatchedDTO{Name: u.Name, Source: string(u.Source), Reason: u.Reason, Candidates: u.Candidates}
	}
	return out
}

func toQualityDTO(q quality.DataQualityMetrics) QualityDTO {
	return QualityDTO{
		BillingQuality: generic.Float(q.BillingQuality),
		PayrollQuality: generic.Float(q.PayrollQuality),
		MatchingRate:   q.MatchingRate,
		OverallScore:   q.OverallScore,
		BillingValid:   q.BillingValid,
		BillingInvalid: q.BillingInvalid,
		PayrollValid:   q.PayrollValid,
		PayrollInvalid: q.PayrollInvalid,
		Issues: lo.Map(q.Issues, func(is quality.Issue, _ int) IssueDTO {
			return IssueDTO{
				Impact:      string(is.Impact),
				Category:    is.Category,
				Source:      string(is.Source),
				Count:       is.Count,
				Description: is.Description,
			}
		}),
		Findings: lo.Map(q.Findings, func(f records.Finding, _ int) FindingDTO {
			return FindingDTO{
				Source:   string(f.Source),
				Line:     f.Line,
				Field:    f.Field,
				Message:  f.Message,
				Severity: string(f.Severity),
			}
		}),
	}
}

func toSelfCheckDTO(s metrics.SelfCheckResult) SelfCheckDTO {
	checked := s.Checked
	if checked == nil {
		checked = []string{}
	}
	return SelfCheckDTO{
		Valid:   s.Valid,
		Checked: checked,
		Discrepancies: lo.Map(s.Discrepancies, func(d metrics.Discrepancy, _ int) DiscrepancyDTO {
			return DiscrepancyDTO{
				Metric:     d.Metric,
				Expected:   generic.Float(d.Expected),
				Actual:     generic.Float(d.Actual),
				Difference: generic.Float(d.Difference),
				Tolerance:  generic.Float(d.Tolerance),
			}
		}),
	}
}

func toMatchingDTO(r names.MatchReport) MatchingDTO {
	return MatchingDTO{
		Matched: lo.Map(r.Matched, func(p names.MatchedPair, _ int) MatchedPairDTO {
			return MatchedPairDTO{Billing: p.Billing, Payroll: p.Payroll, Confidence: p.Confidence, Strategy: p.Strategy}
		}),
		UnmatchedBilling: toUnmatchedDTOs(r.UnmatchedBilling),
		UnmatchedPayroll: toUnmatchedDTOs(r.UnmatchedPayroll),
		TotalUnique:      r.TotalUnique,
		MatchingRate:     r.MatchingRate,
	}
}

func toMatchResultDTO(name string, threshold float64, res names.MatchResult) MatchResultDTO {
	return MatchResultDTO{
		Name:       name,
		Threshold:  threshold,
		ExactMatch: res.ExactMatch,
		Candidates: lo.Map(res.FuzzyMatches, func(c names.Candidate, _ int) CandidateDTO {
			return CandidateDTO{Name: c.Name, Confidence: c.Confidence, Strategy: c.Strategy}
		}),
		Confidence:      res.Confidence,
		ShouldAutoMatch: res.ShouldAutoMatch,
	}
}

func toCycleSummaryDTOs(ss []store.Summary) []CycleSummaryDTO {
	return lo.Map(ss, func(s store.Summary, _ int) CycleSummaryDTO {
		return CycleSummaryDTO{
			ID:            s.ID,
			Origin:        s.Origin,
			LoadedAt:      s.LoadedAt.Format(time.RFC3339),
			RuleSet:       s.RuleSet,
			Employees:     s.Employees,
			Unmatched:     s.Unmatched,
			QualityScore:  s.QualityScore,
			SelfCheckPass: s.SelfCheckPass,
		}
	})
}
