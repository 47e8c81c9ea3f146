package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
)

// PayrollResult is one typed payroll export.
type PayrollResult struct {
	Rows     []records.PayrollRow
	Findings []records.Finding

	ReportedHours decimal.NullDecimal
	ReportedCost  decimal.NullDecimal
	Names         []string
}

// ReadPayroll types a payroll export. Cost stays as cell text so accounting
// encodings reach the engine intact; only unreadable hours drop a row.
func ReadPayroll(r io.Reader, format Format) (*PayrollResult, error) {
	rows, err := ReadRows(r, format)
	if err != nil {
		return nil, err
	}
	layout, err := DetectLayout(string(names.SourcePayroll), rows, payrollColumns)
	if err != nil {
		return nil, err
	}
	return typePayroll(rows, layout)
}

func typePayroll(rows [][]string, layout Layout) (*PayrollResult, error) {
	var (
		res        PayrollResult
		employee   = layout.Col("employee")
		checkDate  = layout.Col("check_date")
		hours      = layout.Col("hours")
		cost       = layout.Col("cost")
		department = layout.Col("department")
		void       = layout.Col("void")
	)

	for i := layout.HeaderRow + 1; i < len(rows); i++ {
		row, line := rows[i], i+1
		if blank(row) {
			continue
		}
		if isTotalRow(row) {
			res.ReportedHours = nullDecimal(cell(row, hours))
			res.ReportedCost = nullDecimal(cell(row, cost))
			continue
		}

		h := decimal.Zero
		if raw := cell(row, hours); raw != "" {
			var ok bool
			if h, ok = generic.LookupAccounting(raw); !ok {
				res.Findings = append(res.Findings, records.Finding{
					Source:   names.SourcePayroll,
					Line:     line,
					Field:    "hours",
					Message:  fmt.Sprintf("unreadable hours %q", raw),
					Severity: records.SeverityError,
				})
				continue
			}
		}

		res.Rows = append(res.Rows, records.PayrollRow{
			Employee:   cell(row, employee),
			CheckDate:  cell(row, checkDate),
			Hours:      h,
			CostText:   cell(row, cost),
			Department: cell(row, department),
			Void:       isVoid(cell(row, void)),
			Line:       line,
		})
	}

	if len(res.Rows) == 0 && len(res.Findings) == 0 {
		return nil, generic.ErrNoData
	}
	res.Names = uniqueNames(lo.Map(res.Rows, func(r records.PayrollRow, _ int) string { return r.Employee }))
	return &res, nil
}

func isVoid(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "void", "voided", "yes", "y", "true", "x", "1":
		return true
	}
	return false
}
