package generic

import "fmt"

// =============================================================================
// WINDOW - Closed business-period interval
// =============================================================================

// Window is a closed date interval [Start, End]. Billing rows are filtered
// by service date against one window and payroll rows by check date against
// another; the two are configured independently.
type Window struct {
	Start Day
	End   Day
}

// NewWindow validates and constructs a Window.
func NewWindow(start, end Day) (Window, error) {
	if end.Before(start) {
		return Window{}, &WindowError{Start: start, End: end}
	}
	return Window{Start: start, End: end}, nil
}

// Contains returns true if d is within [Start, End], both ends inclusive.
func (w Window) Contains(d Day) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

// ContainsRaw parses a raw date cell and tests it against the window.
// Unparsable input is outside every window.
func (w Window) ContainsRaw(raw string) bool {
	d, ok := ParseFlexibleDate(raw)
	if !ok {
		return false
	}
	return w.Contains(d)
}

// Days returns the number of calendar days covered, inclusive.
func (w Window) Days() int {
	return int(w.End.Time.Sub(w.Start.Time).Hours()/24) + 1
}

// String returns a string representation of the window.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start, w.End)
}
