package rules_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/rules"
)

func TestDefault_IsValid(t *testing.T) {
	rs := rules.Default()
	require.NoError(t, rs.Validate())

	assert.Equal(t, rules.VoidInclude, rs.VoidPolicy)
	assert.True(t, rs.HourlyRate(rules.RoleTechnician).Equal(decimal.NewFromInt(25)))
	assert.Equal(t, rules.RoleSupervisor, rs.CodeRoles()[97155])
	assert.Equal(t, rules.RoleTechnician, rs.CodeRoles()[97153])
}

func TestTierFor_TechnicianCutoffs(t *testing.T) {
	tiers := rules.Default().TiersFor(rules.RoleTechnician)

	tests := []struct {
		value int64
		want  rules.Tier
	}{
		{95, rules.TierExcellent},
		{90, rules.TierExcellent},
		{89, rules.TierGood},
		{80, rules.TierGood},
		{50, rules.TierNeedsImprovement},
		{49, rules.TierCritical},
		{0, rules.TierCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tiers.TierFor(decimal.NewFromInt(tt.value)), "value %d", tt.value)
	}
}

func TestTierFor_SupervisorCutoffs(t *testing.T) {
	tiers := rules.Default().TiersFor(rules.RoleSupervisor)

	assert.Equal(t, rules.TierExcellent, tiers.TierFor(decimal.NewFromInt(40)))
	assert.Equal(t, rules.TierGood, tiers.TierFor(decimal.NewFromInt(30)))
	assert.Equal(t, rules.TierNeedsImprovement, tiers.TierFor(decimal.NewFromInt(20)))
	assert.Equal(t, rules.TierCritical, tiers.TierFor(decimal.NewFromInt(-100)))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rs *rules.RuleSet)
		field  string
	}{
		{
			name: "reversed billing window",
			mutate: func(rs *rules.RuleSet) {
				rs.BillingWindow.End = generic.NewDay(2025, time.March, 1)
			},
			field: "windows.billing",
		},
		{
			name: "code in two roles",
			mutate: func(rs *rules.RuleSet) {
				rr := rs.Roles[rules.RoleSupervisor]
				rr.ServiceCodes = append(rr.ServiceCodes, 97153)
				rs.Roles[rules.RoleSupervisor] = rr
			},
			field: "roles.BCBA.service_codes",
		},
		{
			name:   "missing role",
			mutate: func(rs *rules.RuleSet) { delete(rs.Roles, rules.RoleSupervisor) },
			field:  "roles.BCBA",
		},
		{
			name: "ascending tiers",
			mutate: func(rs *rules.RuleSet) {
				tt := rs.Tiers[rules.RoleTechnician]
				tt.Good = decimal.NewFromInt(95)
				rs.Tiers[rules.RoleTechnician] = tt
			},
			field: "tiers.TECH",
		},
		{
			name:   "margin benchmark of 100",
			mutate: func(rs *rules.RuleSet) { rs.MarginBenchmark = decimal.NewFromInt(100) },
			field:  "benchmarks.profit_margin",
		},
		{
			name:   "unknown void policy",
			mutate: func(rs *rules.RuleSet) { rs.VoidPolicy = "sometimes" },
			field:  "void_policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := rules.Default()
			tt.mutate(rs)

			err := rs.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrInvalidRules))

			var re *generic.RuleError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	// GIVEN: A clone of the default rules
	rs := rules.Default()
	c := rs.Clone()

	// WHEN: The clone's tables are edited
	c.NameMappings["Doe, Jane"] = "Jane Doe"
	c.HRStaff[0] = "Somebody Else"
	rr := c.Roles[rules.RoleTechnician]
	rr.ServiceCodes[0] = 1
	c.Roles[rules.RoleTechnician] = rr

	// THEN: The original is untouched
	_, ok := rs.NameMappings["Doe, Jane"]
	assert.False(t, ok)
	assert.Equal(t, "Whitaker, Karen", rs.HRStaff[0])
	assert.Equal(t, 97153, rs.Roles[rules.RoleTechnician].ServiceCodes[0])
}
