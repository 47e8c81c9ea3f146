package metrics

import (
	"github.com/samber/lo"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/quality"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes metric bundles under one rule set. It holds no per-cycle
// state and is safe for concurrent use.
type Engine struct {
	rules      *rules.RuleSet
	mapper     *names.Mapper
	matcher    *names.Matcher
	aggregator *records.Aggregator
	codeRoles  map[int]rules.Role
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates rs and builds an engine over a private copy of it.
func NewEngine(rs *rules.RuleSet, opts ...Option) (*Engine, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	rs = rs.Clone()

	mapper := names.NewMapper(rs.NameMappings)
	e := &Engine{
		rules:      rs,
		mapper:     mapper,
		matcher:    names.NewMatcher(mapper, names.WithAutoMatchConfidence(rs.Matching.AutoMatchConfidence)),
		aggregator: records.NewAggregator(rs, mapper),
		codeRoles:  rs.CodeRoles(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger.Debug("engine ready",
		zap.String("rule_set", rs.Name),
		zap.Int("name_mappings", mapper.Len()),
		zap.Int("hr_staff", len(rs.HRStaff)),
	)
	return e, nil
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() *rules.RuleSet {
	return e.rules.Clone()
}

// Matcher returns the engine's name matcher.
func (e *Engine) Matcher() *names.Matcher {
	return e.matcher
}

// =============================================================================
// COMPUTE
// =============================================================================

// Compute runs one reconciliation cycle. Same input, same bundle.
func (e *Engine) Compute(in records.Input) Bundle {
	rs := e.rules
	log := e.logger.With(zap.String("rules", rs.Name))

	billingCheck := quality.ValidateBilling(in.Billing)
	payrollCheck := quality.ValidatePayroll(in.Payroll)

	billing := e.aggregator.Billing(billingCheck.Valid)
	payroll := e.aggregator.Payroll(payrollCheck.Valid)
	log.Debug("rows windowed",
		zap.Int("billing_in", billing.InWindow),
		zap.Int("billing_out", billing.OutOfWindow),
		zap.Int("billing_unparsable", billing.Unparsable),
		zap.Int("payroll_in", payroll.InWindow),
		zap.Int("payroll_out", payroll.OutOfWindow),
		zap.Int("payroll_unparsable", payroll.Unparsable),
		zap.Int("payroll_void_excluded", payroll.VoidExcluded),
	)

	res := records.Resolve(billing, payroll, e.matcher, rs.Matching.Threshold)
	for _, id := range res.Identities {
		if id.Match != nil {
			log.Debug("payroll identity merged by fuzzy match",
				zap.String("billing", id.Billing.DisplayName),
				zap.String("payroll", id.Payroll.DisplayName),
				zap.String("strategy", id.Match.Strategy),
				zap.Float64("confidence", id.Match.Confidence),
			)
		}
	}

	fin := baseFinancials(billing, payroll)

	employees := make([]EmployeeMetric, 0, len(res.Identities))
	for _, id := range res.Identities {
		employees = append(employees, e.employeeMetric(id))
	}
	completeFinancials(&fin, employees, rs)

	// Identity order is the opportunity tiebreak, so rank before re-sorting.
	opps := opportunities(employees, rs, fin.RevenuePerBillableHour)
	sortEmployees(employees)

	billingNames, payrollNames := e.matchingNames(in.Reported, billing, payroll)
	report := e.matcher.ValidateEmployeeMatching(billingNames, payrollNames, rs.Matching.ValidationThreshold)

	dq := quality.Score(quality.Assessment{
		BillingValid:   len(billingCheck.Valid),
		BillingInvalid: billingCheck.Invalid + errorCount(in.BillingFindings),
		PayrollValid:   len(payrollCheck.Valid),
		PayrollInvalid: payrollCheck.Invalid + errorCount(in.PayrollFindings),
		Findings:       lo.Flatten([][]records.Finding{in.BillingFindings, billingCheck.Findings, in.PayrollFindings, payrollCheck.Findings}),
		MatchingRate:   report.MatchingRate,
		MatchingNames:  report.TotalUnique,
		TargetRate:     rs.Matching.TargetRate,
		CriticalRate:   rs.Matching.CriticalRate,
		Totals:         quality.CheckTotals(in, rs.TotalsTolerance),
	})

	check := SelfCheck(fin, rs.Expectations)
	log.Debug("cycle computed",
		zap.Int("employees", len(employees)),
		zap.Int("opportunities", len(opps)),
		zap.Int("unmatched", len(res.Unmatched)),
		zap.Int("quality_score", dq.OverallScore),
		zap.Bool("self_check_valid", check.Valid),
	)

	return Bundle{
		RuleSet:       rs.Name,
		Financial:     fin,
		Employees:     employees,
		Opportunities: opps,
		Unmatched:     res.Unmatched,
		DataQuality:   dq,
		SelfCheck:     check,
		Matching:      report,
		Windows: WindowStats{
			BillingInWindow:     billing.InWindow,
			BillingOutOfWindow:  billing.OutOfWindow,
			BillingUnparsable:   billing.Unparsable,
			PayrollInWindow:     payroll.InWindow,
			PayrollOutOfWindow:  payroll.OutOfWindow,
			PayrollUnparsable:   payroll.Unparsable,
			PayrollVoidIncluded: payroll.VoidIncluded,
			PayrollVoidExcluded: payroll.VoidExcluded,
		},
	}
}

// matchingNames picks the name lists for the matching report: the lists the
// source exports reported when present, otherwise the in-window group names.
// HR staff are left out either way.
func (e *Engine) matchingNames(rep records.ReportedTotals, billing *records.BillingAggregate, payroll *records.PayrollAggregate) ([]string, []string) {
	b, p := rep.BillingNames, rep.PayrollNames
	if len(b) == 0 {
		b = billing.DisplayNames()
	}
	if len(p) == 0 {
		p = payroll.BillableDisplayNames()
	}
	notHR := func(n string, _ int) bool { return !e.aggregator.IsHR(n) }
	return lo.Filter(b, notHR), lo.Filter(p, notHR)
}

func errorCount(fs []records.Finding) int {
	return lo.CountBy(fs, func(f records.Finding) bool { return f.Severity == records.SeverityError })
}
