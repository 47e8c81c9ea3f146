package generic

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// DAY - Calendar date with time-of-day stripped
// =============================================================================

// Day is a calendar date. Window comparisons happen at day granularity, so
// every constructor normalizes to midnight UTC.
type Day struct {
	Time time.Time
}

// NewDay constructs a Day.
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf strips the time-of-day from t, keeping its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func (d Day) Before(other Day) bool { return d.Time.Before(other.Time) }
func (d Day) After(other Day) bool  { return d.Time.After(other.Time) }
func (d Day) Equal(other Day) bool  { return d.Time.Equal(other.Time) }
func (d Day) IsZero() bool          { return d.Time.IsZero() }
func (d Day) Year() int             { return d.Time.Year() }
func (d Day) String() string        { return d.Time.Format("2006-01-02") }

// =============================================================================
// FLEXIBLE DATE PARSING
// =============================================================================

// Excel serial numbers outside this band are treated as plain numbers.
const (
	excelSerialMin = 20000 // 1954-10-03
	excelSerialMax = 80000 // 2119-01-11

	fallbackMinYear = 2020
	fallbackMaxYear = 2029
)

var (
	// Payroll exports annotate check dates like "4/18/2025 - Prior".
	dateSuffixRe = regexp.MustCompile(`\s+-\s+[A-Za-z][A-Za-z ]*$`)
	slashDateRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDayRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Last-resort layouts. Anything these produce outside 2020-2029 is
// rejected, since two-digit years and day/month swaps land there.
var fallbackLayouts = []string{
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1-2-2006",
	"01-02-2006",
	"2006/01/02",
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
}

// ParseFlexibleDate parses the date encodings that billing and payroll
// exports emit. Patterns are tried in priority order:
//
//  1. M/D/YYYY or MM/DD/YYYY
//  2. YYYY-MM-DD
//  3. Excel serial numbers
//  4. ISO 8601 timestamps
//  5. a generic layout list, constrained to 2020-2029
//
// Trailing annotations such as " - Void" are stripped first. The second
// return value is false when nothing matched.
func ParseFlexibleDate(input string) (Day, bool) {
	s := StripDateAnnotation(input)
	if s == "" {
		return Day{}, false
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		return civilDay(m[3], m[1], m[2])
	}

	if m := isoDayRe.FindStringSubmatch(s); m != nil {
		return civilDay(m[1], m[2], m[3])
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return ExcelSerialDay(serial)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), true
		}
	}

	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < fallbackMinYear || t.Year() > fallbackMaxYear {
			return Day{}, false
		}
		return DayOf(t), true
	}

	return Day{}, false
}

// StripDateAnnotation removes trailing " - Prior"/" - Void" style suffixes.
func StripDateAnnotation(input string) string {
	s := strings.TrimSpace(input)
	return strings.TrimSpace(dateSuffixRe.ReplaceAllString(s, ""))
}

// HasVoidAnnotation reports whether a date cell carries a void marker.
func HasVoidAnnotation(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == StripDateAnnotation(s) {
		return false
	}
	return strings.Contains(s[len(StripDateAnnotation(s)):], "void")
}

// ExcelSerialDay converts a spreadsheet serial (1900 date system) to a Day.
// Serials outside the plausible band are rejected.
func ExcelSerialDay(serial float64) (Day, bool) {
	if serial < excelSerialMin || serial > excelSerialMax {
		return Day{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return Day{}, false
	}
	return DayOf(t), true
}

func civilDay(year, month, day string) (Day, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Day{}, false
	}
	out := NewDay(y, time.Month(m), d)
	// time.Date normalizes 2/30 to 3/2; reject instead
	if out.Time.Month() != time.Month(m) || out.Time.Day() != d {
		return Day{}, false
	}
	return out, true
}
