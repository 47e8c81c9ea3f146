/*
Package factory provides YAML to Go rule-set conversion.

PURPOSE:
  Converts YAML rule documents into rules.RuleSet values. A new reporting
  period (new windows, new hires in the name table, revised expectations)
  is a new document, not a code change.

OVERLAY:
  Documents are overlaid on rules.Default(). Any key the document leaves out
  keeps the default, so a period roll-forward only needs the windows and
  expectations. Lists and maps that are present replace the default wholesale.

YAML SCHEMA:
  name: q3-2025
  windows:
    billing: {start: 2025-07-01, end: 2025-09-30}
    payroll: {start: 2025-07-18, end: 2025-10-10}
  name_mappings:
    "Martinez, Sofia": Sofia Martinez
  hr_staff: ["Whitaker, Karen"]
  roles:
    TECH: {service_codes: [97153, 97154], hourly_rate: 25}
    BCBA: {service_codes: [97151, 97155], hourly_rate: 45}
  tiers:
    TECH: {excellent: 90, good: 80, needs_improvement: 50}
  benchmarks: {utilization: 90, profit_margin: 40}
  matching: {threshold: 70, validation_threshold: 85, auto_match_confidence: 95}
  expectations:
    - {metric: revenue, expected: 1186452.50, tolerance: 100}
  totals_tolerance: 1
  void_policy: include

USAGE:
  rs, err := factory.LoadRuleSet("rules/q3-2025.yaml")
  engine, err := metrics.NewEngine(rs)

SEE ALSO:
  - rules/rules.go: RuleSet type definition
  - rules/defaults.go: The default rule set documents overlay
*/
package factory

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/rules"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// RuleSetYAML is the YAML representation of a rule set. Pointer and nil
// fields mean "keep the default".
type RuleSetYAML struct {
	Name            string               `yaml:"name,omitempty"`
	Windows         *WindowsYAML         `yaml:"windows,omitempty"`
	NameMappings    map[string]string    `yaml:"name_mappings,omitempty"`
	HRStaff         []string             `yaml:"hr_staff,omitempty"`
	Roles           map[string]RoleYAML  `yaml:"roles,omitempty"`
	Tiers           map[string]TiersYAML `yaml:"tiers,omitempty"`
	Benchmarks      *BenchmarksYAML      `yaml:"benchmarks,omitempty"`
	Opportunity     *OpportunityYAML     `yaml:"opportunity,omitempty"`
	Matching        *MatchingYAML        `yaml:"matching,omitempty"`
	Expectations    []ExpectationYAML    `yaml:"expectations,omitempty"`
	TotalsTolerance *Decimal             `yaml:"totals_tolerance,omitempty"`
	VoidPolicy      string               `yaml:"void_policy,omitempty"`
}

// WindowsYAML holds both business windows.
type WindowsYAML struct {
	Billing *WindowYAML `yaml:"billing,omitempty"`
	Payroll *WindowYAML `yaml:"payroll,omitempty"`
}

// WindowYAML is a closed date interval; dates take any format
// generic.ParseFlexibleDate accepts.
type WindowYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// RoleYAML assigns service codes and a rate to a role.
type RoleYAML struct {
	ServiceCodes []int   `yaml:"service_codes"`
	HourlyRate   Decimal `yaml:"hourly_rate"`
}

// TiersYAML are tier cutoffs for a role.
type TiersYAML struct {
	Excellent        Decimal `yaml:"excellent"`
	Good             Decimal `yaml:"good"`
	NeedsImprovement Decimal `yaml:"needs_improvement"`
}

// BenchmarksYAML are the utilization and margin targets.
type BenchmarksYAML struct {
	Utilization  *Decimal `yaml:"utilization,omitempty"`
	ProfitMargin *Decimal `yaml:"profit_margin,omitempty"`
}

// OpportunityYAML are opportunity priority cutoffs.
type OpportunityYAML struct {
	HighUtilizationBelow  *Decimal `yaml:"high_utilization_below,omitempty"`
	HighRevenueAbove      *Decimal `yaml:"high_revenue_above,omitempty"`
	HighPayrollHoursAbove *Decimal `yaml:"high_payroll_hours_above,omitempty"`
	MediumRevenueAbove    *Decimal `yaml:"medium_revenue_above,omitempty"`
}

// MatchingYAML are identity matching thresholds.
type MatchingYAML struct {
	Threshold           *float64 `yaml:"threshold,omitempty"`
	ValidationThreshold *float64 `yaml:"validation_threshold,omitempty"`
	AutoMatchConfidence *float64 `yaml:"auto_match_confidence,omitempty"`
	TargetRate          *int     `yaml:"target_rate,omitempty"`
	CriticalRate        *int     `yaml:"critical_rate,omitempty"`
}

// ExpectationYAML is one self-check expectation.
type ExpectationYAML struct {
	Metric    string  `yaml:"metric"`
	Expected  Decimal `yaml:"expected"`
	Tolerance Decimal `yaml:"tolerance"`
}

// Decimal reads a YAML scalar as an exact decimal. Going through float64
// would turn 1186452.50 into something slightly different.
type Decimal struct {
	decimal.Decimal
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return eris.Errorf("line %d: expected a number", node.Line)
	}
	v, err := decimal.NewFromString(node.Value)
	if err != nil {
		return eris.Wrapf(err, "line %d: invalid number %q", node.Line, node.Value)
	}
	d.Decimal = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Decimal) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: d.String()}, nil
}

// =============================================================================
// LOADING
// =============================================================================

// LoadRuleSet reads and parses a rule document from disk.
func LoadRuleSet(path string) (*rules.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read rule document %s", path)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, eris.Wrapf(err, "rule document %s", path)
	}
	return rs, nil
}

// ParseRuleSet parses a YAML document, overlays it on the default rule set
// and validates the result.
func ParseRuleSet(data []byte) (*rules.RuleSet, error) {
	var doc RuleSetYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(&generic.RuleError{Field: "document", Message: err.Error()}, "parse rule document")
	}
	return FromYAML(doc)
}

// FromYAML converts a parsed document to a validated rule set.
func FromYAML(doc RuleSetYAML) (*rules.RuleSet, error) {
	rs := rules.Default()

	if doc.Name != "" {
		rs.Name = doc.Name
	}
	if doc.Windows != nil {
		if doc.Windows.Billing != nil {
			w, err := parseWindow("windows.billing", *doc.Windows.Billing)
			if err != nil {
				return nil, err
			}
			rs.BillingWindow = w
		}
		if doc.Windows.Payroll != nil {
			w, err := parseWindow("windows.payroll", *doc.Windows.Payroll)
			if err != nil {
				return nil, err
			}
			rs.PayrollWindow = w
		}
	}
	if doc.NameMappings != nil {
		rs.NameMappings = doc.NameMappings
	}
	if doc.HRStaff != nil {
		rs.HRStaff = doc.HRStaff
	}

	for name, ry := range doc.Roles {
		role, err := parseRole("roles", name)
		if err != nil {
			return nil, err
		}
		rs.Roles[role] = rules.RoleRule{ServiceCodes: ry.ServiceCodes, HourlyRate: ry.HourlyRate.Decimal}
	}
	for name, ty := range doc.Tiers {
		role, err := parseRole("tiers", name)
		if err != nil {
			return nil, err
		}
		rs.Tiers[role] = rules.TierThresholds{
			Excellent:        ty.Excellent.Decimal,
			Good:             ty.Good.Decimal,
			NeedsImprovement: ty.NeedsImprovement.Decimal,
		}
	}

	if b := doc.Benchmarks; b != nil {
		setDecimal(&rs.UtilizationBenchmark, b.Utilization)
		setDecimal(&rs.MarginBenchmark, b.ProfitMargin)
	}
	if o := doc.Opportunity; o != nil {
		setDecimal(&rs.Opportunity.HighUtilizationBelow, o.HighUtilizationBelow)
		setDecimal(&rs.Opportunity.HighRevenueAbove, o.HighRevenueAbove)
		setDecimal(&rs.Opportunity.HighPayrollHoursAbove, o.HighPayrollHoursAbove)
		setDecimal(&rs.Opportunity.MediumRevenueAbove, o.MediumRevenueAbove)
	}
	if m := doc.Matching; m != nil {
		setValue(&rs.Matching.Threshold, m.Threshold)
		setValue(&rs.Matching.ValidationThreshold, m.ValidationThreshold)
		setValue(&rs.Matching.AutoMatchConfidence, m.AutoMatchConfidence)
		setValue(&rs.Matching.TargetRate, m.TargetRate)
		setValue(&rs.Matching.CriticalRate, m.CriticalRate)
	}

	if doc.Expectations != nil {
		rs.Expectations = make([]rules.Expectation, 0, len(doc.Expectations))
		for _, e := range doc.Expectations {
			rs.Expectations = append(rs.Expectations, rules.Expectation{
				Metric:    e.Metric,
				Expected:  e.Expected.Decimal,
				Tolerance: e.Tolerance.Decimal,
			})
		}
	}
	setDecimal(&rs.TotalsTolerance, doc.TotalsTolerance)
	if doc.VoidPolicy != "" {
		rs.VoidPolicy = rules.VoidPolicy(doc.VoidPolicy)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// ToYAML converts a rule set to its document form. Every field is written,
// so the output does not depend on the defaults it will be overlaid on.
func ToYAML(rs *rules.RuleSet) RuleSetYAML {
	doc := RuleSetYAML{
		Name: rs.Name,
		Windows: &WindowsYAML{
			Billing: &WindowYAML{Start: rs.BillingWindow.Start.String(), End: rs.BillingWindow.End.String()},
			Payroll: &WindowYAML{Start: rs.PayrollWindow.Start.String(), End: rs.PayrollWindow.End.String()},
		},
		NameMappings: rs.NameMappings,
		HRStaff:      rs.HRStaff,
		Roles:        make(map[string]RoleYAML, len(rs.Roles)),
		Tiers:        make(map[string]TiersYAML, len(rs.Tiers)),
		Benchmarks: &BenchmarksYAML{
			Utilization:  &Decimal{rs.UtilizationBenchmark},
			ProfitMargin: &Decimal{rs.MarginBenchmark},
		},
		Opportunity: &OpportunityYAML{
			HighUtilizationBelow:  &Decimal{rs.Opportunity.HighUtilizationBelow},
			HighRevenueAbove:      &Decimal{rs.Opportunity.HighRevenueAbove},
			HighPayrollHoursAbove: &Decimal{rs.Opportunity.HighPayrollHoursAbove},
			MediumRevenueAbove:    &Decimal{rs.Opportunity.MediumRevenueAbove},
		},
		Matching: &MatchingYAML{
			Threshold:           &rs.Matching.Threshold,
			ValidationThreshold: &rs.Matching.ValidationThreshold,
			AutoMatchConfidence: &rs.Matching.AutoMatchConfidence,
			TargetRate:          &rs.Matching.TargetRate,
			CriticalRate:        &rs.Matching.CriticalRate,
		},
		TotalsTolerance: &Decimal{rs.TotalsTolerance},
		VoidPolicy:      string(rs.VoidPolicy),
	}
	for role, rr := range rs.Roles {
		codes := append([]int(nil), rr.ServiceCodes...)
		sort.Ints(codes)
		doc.Roles[string(role)] = RoleYAML{ServiceCodes: codes, HourlyRate: Decimal{rr.HourlyRate}}
	}
	for role, t := range rs.Tiers {
		doc.Tiers[string(role)] = TiersYAML{
			Excellent:        Decimal{t.Excellent},
			Good:             Decimal{t.Good},
			NeedsImprovement: Decimal{t.NeedsImprovement},
		}
	}
	for _, e := range rs.Expectations {
		doc.Expectations = append(doc.Expectations, ExpectationYAML{
			Metric:    e.Metric,
			Expected:  Decimal{e.Expected},
			Tolerance: Decimal{e.Tolerance},
		})
	}
	return doc
}

// MarshalRuleSet renders a rule set as a YAML document.
func MarshalRuleSet(rs *rules.RuleSet) ([]byte, error) {
	out, err := yaml.Marshal(ToYAML(rs))
	if err != nil {
		return nil, eris.Wrap(err, "marshal rule document")
	}
	return out, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseWindow(field string, wy WindowYAML) (generic.Window, error) {
	start, ok := generic.ParseFlexibleDate(wy.Start)
	if !ok {
		return generic.Window{}, &generic.RuleError{Field: field + ".start", Message: "unparsable date " + wy.Start}
	}
	end, ok := generic.ParseFlexibleDate(wy.End)
	if !ok {
		return generic.Window{}, &generic.RuleError{Field: field + ".end", Message: "unparsable date " + wy.End}
	}
	w, err := generic.NewWindow(start, end)
	if err != nil {
		return generic.Window{}, &generic.RuleError{Field: field, Message: err.Error()}
	}
	return w, nil
}

func parseRole(field, name string) (rules.Role, error) {
	role := rules.Role(name)
	if !role.Valid() {
		return "", &generic.RuleError{Field: field + "." + name, Message: "unknown role"}
	}
	return role, nil
}

func setDecimal(dst *decimal.Decimal, src *Decimal) {
	if src != nil {
		*dst = src.Decimal
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
