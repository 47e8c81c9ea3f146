package ingest

import (
	"strings"

	"github.com/warp/reconcile-engine/generic"
)

// Column is one logical column and the header spellings that name it.
type Column struct {
	Name     string
	Aliases  []string
	Required bool
}

// headerScanRows bounds how far down a sheet the header may sit.
const headerScanRows = 15

var billingColumns = []Column{
	{Name: "employee", Required: true, Aliases: []string{"employee", "employee name", "technician", "provider", "rendering provider", "staff", "staff name"}},
	{Name: "service_code", Required: true, Aliases: []string{"service code", "code", "cpt", "cpt code", "procedure code", "billing code"}},
	{Name: "date", Required: true, Aliases: []string{"date", "service date", "date of service", "dos", "session date"}},
	{Name: "hours", Required: true, Aliases: []string{"hours", "billable hours", "duration", "units hours"}},
	{Name: "amount", Required: true, Aliases: []string{"amount", "billed amount", "charge", "charges", "total charge", "billed"}},
	{Name: "client", Aliases: []string{"client", "client name", "patient", "patient name"}},
	{Name: "location", Aliases: []string{"location", "place of service", "site", "pos"}},
}

var payrollColumns = []Column{
	{Name: "employee", Required: true, Aliases: []string{"employee", "employee name", "name", "staff", "staff name"}},
	{Name: "check_date", Required: true, Aliases: []string{"check date", "pay date", "payment date", "date"}},
	{Name: "hours", Required: true, Aliases: []string{"hours", "total hours", "regular hours", "hours worked"}},
	{Name: "cost", Required: true, Aliases: []string{"cost", "total cost", "expense", "total expense", "gross pay", "gross", "amount", "total"}},
	{Name: "department", Aliases: []string{"department", "dept", "department name"}},
	{Name: "void", Aliases: []string{"void", "voided", "status"}},
}

// Layout is a detected header: the sheet row it sits on and where each
// logical column is. Absent optional columns map to -1.
type Layout struct {
	HeaderRow int
	Index     map[string]int
}

// Col returns the index of a logical column, -1 when absent.
func (l Layout) Col(name string) int {
	if i, ok := l.Index[name]; ok {
		return i
	}
	return -1
}

// DetectLayout finds the first row within the scan limit that names every
// required column.
func DetectLayout(source string, rows [][]string, cols []Column) (Layout, error) {
	var best []string
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		index, missing := matchHeader(rows[i], cols)
		if len(missing) == 0 {
			return Layout{HeaderRow: i, Index: index}, nil
		}
		if best == nil || len(missing) < len(best) {
			best = missing
		}
	}
	if len(rows) == 0 {
		return Layout{}, generic.ErrNoData
	}
	return Layout{}, &generic.ColumnError{Source: source, Columns: best}
}

func matchHeader(row []string, cols []Column) (map[string]int, []string) {
	normalized := make([]string, len(row))
	for i, h := range row {
		normalized[i] = normalizeHeader(h)
	}

	index := make(map[string]int, len(cols))
	var missing []string
	for _, c := range cols {
		pos := -1
		// Alias order is preference order, so "total cost" beats "total".
		for _, alias := range c.Aliases {
			for i, h := range normalized {
				if h == alias && !taken(index, i) {
					pos = i
					break
				}
			}
			if pos >= 0 {
				break
			}
		}
		if pos >= 0 {
			index[c.Name] = pos
		} else if c.Required {
			missing = append(missing, c.Name)
		}
	}
	return index, missing
}

func taken(index map[string]int, pos int) bool {
	for _, i := range index {
		if i == pos {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "#", "", ".", "", ":", "").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// isTotalRow reports a summary line such as "Total" or "Grand Total:".
func isTotalRow(row []string) bool {
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		return strings.HasPrefix(c, "total") || strings.HasPrefix(c, "grand total")
	}
	return false
}
