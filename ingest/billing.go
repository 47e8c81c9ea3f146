package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/names"
	"github.com/warp/reconcile-engine/records"
)

// BillingResult is one typed billing export.
type BillingResult struct {
	Rows     []records.BillingRow
	Findings []records.Finding

	ReportedHours  decimal.NullDecimal
	ReportedAmount decimal.NullDecimal
	Names          []string
}

// ReadBilling types a billing export. Rows whose hours, amount or service
// code cannot be read are dropped with an error finding; everything else is
// left for validation.
func ReadBilling(r io.Reader, format Format) (*BillingResult, error) {
	rows, err := ReadRows(r, format)
	if err != nil {
		return nil, err
	}
	layout, err := DetectLayout(string(names.SourceBilling), rows, billingColumns)
	if err != nil {
		return nil, err
	}
	return typeBilling(rows, layout)
}

func typeBilling(rows [][]string, layout Layout) (*BillingResult, error) {
	var (
		res      BillingResult
		employee = layout.Col("employee")
		code     = layout.Col("service_code")
		date     = layout.Col("date")
		hours    = layout.Col("hours")
		amount   = layout.Col("amount")
		client   = layout.Col("client")
		location = layout.Col("location")
	)

	for i := layout.HeaderRow + 1; i < len(rows); i++ {
		row, line := rows[i], i+1
		if blank(row) {
			continue
		}
		if isTotalRow(row) {
			res.ReportedHours = nullDecimal(cell(row, hours))
			res.ReportedAmount = nullDecimal(cell(row, amount))
			continue
		}

		var bad []records.Finding
		fail := func(field, msg string) {
			bad = append(bad, records.Finding{
				Source: names.SourceBilling, Line: line, Field: field, Message: msg, Severity: records.SeverityError,
			})
		}

		h, ok := generic.LookupAccounting(cell(row, hours))
		if !ok {
			fail("hours", fmt.Sprintf("unreadable hours %q", cell(row, hours)))
		}
		a, ok := generic.LookupAccounting(cell(row, amount))
		if !ok {
			fail("amount", fmt.Sprintf("unreadable amount %q", cell(row, amount)))
		}
		sc, ok := parseServiceCode(cell(row, code))
		if !ok {
			fail("service_code", fmt.Sprintf("unreadable service code %q", cell(row, code)))
		}
		if len(bad) > 0 {
			res.Findings = append(res.Findings, bad...)
			continue
		}

		res.Rows = append(res.Rows, records.BillingRow{
			Employee:    cell(row, employee),
			ServiceCode: sc,
			Date:        cell(row, date),
			Hours:       h,
			Amount:      a,
			Client:      cell(row, client),
			Location:    cell(row, location),
			Line:        line,
		})
	}

	if len(res.Rows) == 0 && len(res.Findings) == 0 {
		return nil, generic.ErrNoData
	}
	res.Names = uniqueNames(lo.Map(res.Rows, func(r records.BillingRow, _ int) string { return r.Employee }))
	return &res, nil
}

// parseServiceCode reads codes written as 97153, "97153.0" or "97153-HN".
func parseServiceCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " -:"); i > 0 {
		s = s[:i]
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

func nullDecimal(s string) decimal.NullDecimal {
	d, ok := generic.LookupAccounting(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

func uniqueNames(in []string) []string {
	return lo.Uniq(lo.Filter(in, func(n string, _ int) bool { return n != "" }))
}
