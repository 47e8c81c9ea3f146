package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reconcile-engine/generic"
)

// =============================================================================
// ACCOUNTING NUMBERS
// =============================================================================

func TestParseAccounting(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"(1,683.94)", "-1683.94"},
		{"1,683.94", "1683.94"},
		{"-250.00", "-250"},
		{"$3,000", "3000"},
		{"($45.10)", "-45.1"},
		{"$(1,683.94)", "-1683.94"},
		{"$ (20.00)", "-20"},
		{" 12 ", "12"},
		{"", "0"},
		{"n/a", "0"},
		{"1.2.3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := generic.ParseAccounting(tt.raw)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseAccounting_ParenthesesAreExactNegative(t *testing.T) {
	// GIVEN: A payroll cost cell in accounting notation
	// WHEN: Parsed
	// THEN: The value is exactly -1683.94, no float drift

	got := generic.ParseAccounting("(1,683.94)")
	assert.Equal(t, "-1683.94", got.String())
}

func TestLookupAccounting_ReportsUnreadableCells(t *testing.T) {
	_, ok := generic.LookupAccounting("pending")
	assert.False(t, ok)

	_, ok = generic.LookupAccounting("   ")
	assert.False(t, ok)

	d, ok := generic.LookupAccounting("0.00")
	assert.True(t, ok, "zero is a readable value")
	assert.True(t, d.IsZero())
}

// =============================================================================
// GUARDED ARITHMETIC
// =============================================================================

func TestSafeDiv_ZeroDenominator(t *testing.T) {
	assert.True(t, generic.SafeDiv(decimal.NewFromInt(5000), decimal.Zero).IsZero())
	assert.True(t, generic.Percent(decimal.NewFromInt(5000), decimal.Zero).IsZero())
}

func TestPercent_IsNotClamped(t *testing.T) {
	// GIVEN: 120 billed hours against 100 paid hours
	// THEN: 120%, not 100%

	got := generic.Percent(decimal.NewFromInt(120), decimal.NewFromInt(100))
	assert.True(t, got.Equal(decimal.NewFromInt(120)))
}

func TestNonNegative(t *testing.T) {
	assert.True(t, generic.NonNegative(decimal.NewFromInt(-20)).IsZero())
	assert.True(t, generic.NonNegative(decimal.NewFromInt(20)).Equal(decimal.NewFromInt(20)))
}

// =============================================================================
// DATES
// =============================================================================

func TestParseFlexibleDate(t *testing.T) {
	april18 := generic.NewDay(2025, time.April, 18)

	tests := []struct {
		name  string
		input string
		want  generic.Day
		ok    bool
	}{
		{"slash", "4/18/2025", april18, true},
		{"slash padded", "04/18/2025", april18, true},
		{"iso day", "2025-04-18", april18, true},
		{"excel serial", "45765", april18, true},
		{"excel serial with fraction", "45765.5", april18, true},
		{"iso timestamp", "2025-04-18T14:30:00Z", april18, true},
		{"prior annotation", "4/18/2025 - Prior", april18, true},
		{"void annotation", "4/18/2025 - Void", april18, true},
		{"month name", "Apr 18, 2025", april18, true},
		{"small number", "42", generic.Day{}, false},
		{"fallback year outside band", "Apr 18, 2035", generic.Day{}, false},
		{"garbage", "next tuesday", generic.Day{}, false},
		{"empty", "", generic.Day{}, false},
		{"impossible day", "2/30/2025", generic.Day{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := generic.ParseFlexibleDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s", got)
			}
		})
	}
}

func TestExcelSerialDay(t *testing.T) {
	tests := []struct {
		serial float64
		want   string
		ok     bool
	}{
		{45658, "2025-01-01", true},
		{45765, "2025-04-18", true},
		{45765.99, "2025-04-18", true},
		{20000, "1954-10-03", true},
		{80000, "2119-01-11", true},
		{19999, "", false},
		{80001, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := generic.ExcelSerialDay(tt.serial)
		require.Equal(t, tt.ok, ok, "serial %v", tt.serial)
		if tt.ok {
			assert.Equal(t, tt.want, got.String(), "serial %v", tt.serial)
		}
	}
}

func TestHasVoidAnnotation(t *testing.T) {
	assert.True(t, generic.HasVoidAnnotation("5/16/2025 - Void"))
	assert.True(t, generic.HasVoidAnnotation("5/16/2025 - VOIDED"))
	assert.False(t, generic.HasVoidAnnotation("5/16/2025 - Prior"))
	assert.False(t, generic.HasVoidAnnotation("5/16/2025"))
}

// =============================================================================
// WINDOWS
// =============================================================================

func TestWindow_BoundsAreInclusive(t *testing.T) {
	// GIVEN: The payroll window starting with the 4/18 check
	w := generic.Window{
		Start: generic.NewDay(2025, time.April, 18),
		End:   generic.NewDay(2025, time.July, 11),
	}

	// THEN: Both ends are in, the days either side are out
	assert.True(t, w.ContainsRaw("4/18/2025"))
	assert.False(t, w.ContainsRaw("4/17/2025"))
	assert.True(t, w.ContainsRaw("7/11/2025"))
	assert.False(t, w.ContainsRaw("7/12/2025"))
	assert.False(t, w.ContainsRaw("not a date"))
	assert.Equal(t, 85, w.Days())
}

func TestNewWindow_RejectsReversedBounds(t *testing.T) {
	_, err := generic.NewWindow(
		generic.NewDay(2025, time.June, 30),
		generic.NewDay(2025, time.April, 1),
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidWindow))
	assert.True(t, generic.IsClientError(err))

	var we *generic.WindowError
	assert.ErrorAs(t, err, &we)
}
