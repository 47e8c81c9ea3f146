package ingest

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/warp/reconcile-engine/records"
)

// Source is one named export stream.
type Source struct {
	Name   string
	Reader io.Reader
}

// Load reads both exports into an engine input. The format of each is taken
// from its name.
func Load(billing, payroll Source) (records.Input, error) {
	bf, err := DetectFormat(billing.Name)
	if err != nil {
		return records.Input{}, err
	}
	pf, err := DetectFormat(payroll.Name)
	if err != nil {
		return records.Input{}, err
	}

	b, err := ReadBilling(billing.Reader, bf)
	if err != nil {
		return records.Input{}, eris.Wrapf(err, "billing export %s", billing.Name)
	}
	p, err := ReadPayroll(payroll.Reader, pf)
	if err != nil {
		return records.Input{}, eris.Wrapf(err, "payroll export %s", payroll.Name)
	}
	return Combine(b, p), nil
}

// LoadFiles opens and loads two exports from disk.
func LoadFiles(billingPath, payrollPath string) (records.Input, error) {
	bf, err := os.Open(billingPath)
	if err != nil {
		return records.Input{}, eris.Wrapf(err, "open %s", billingPath)
	}
	defer bf.Close()

	pf, err := os.Open(payrollPath)
	if err != nil {
		return records.Input{}, eris.Wrapf(err, "open %s", payrollPath)
	}
	defer pf.Close()

	return Load(Source{Name: billingPath, Reader: bf}, Source{Name: payrollPath, Reader: pf})
}

// Combine assembles typed exports into an engine input.
func Combine(b *BillingResult, p *PayrollResult) records.Input {
	return records.Input{
		Billing:         b.Rows,
		Payroll:         p.Rows,
		BillingFindings: b.Findings,
		PayrollFindings: p.Findings,
		Reported: records.ReportedTotals{
			BillingHours:  b.ReportedHours,
			BillingAmount: b.ReportedAmount,
			PayrollHours:  p.ReportedHours,
			PayrollCost:   p.ReportedCost,
			BillingNames:  b.Names,
			PayrollNames:  p.Names,
		},
	}
}
