package metrics

import (
	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
)

// baseFinancials fills the figures that come straight from the aggregates.
// Everything employee-dependent is added by completeFinancials.
func baseFinancials(billing *records.BillingAggregate, payroll *records.PayrollAggregate) FinancialMetrics {
	f := FinancialMetrics{
		TotalRevenue:       billing.Amount,
		BillableStaffCost:  payroll.BillableCost,
		HRCost:             payroll.HRCost,
		TotalPayrollCost:   payroll.TotalCost(),
		TotalBillableHours: billing.Hours,
		TotalPayrollHours:  payroll.BillableHours,
		HRHours:            payroll.HRHours,
	}

	f.GrossProfit = f.TotalRevenue.Sub(f.TotalPayrollCost)
	f.ProfitMargin = generic.Percent(f.GrossProfit, f.TotalRevenue)
	f.NetProfit = f.TotalRevenue.Sub(f.BillableStaffCost)
	f.ProfitMarginVsBillableStaff = generic.Percent(f.NetProfit, f.TotalRevenue)

	// Unclamped: above 100 means billing outran payroll, which is worth seeing.
	f.UtilizationRate = generic.Percent(f.TotalBillableHours, f.TotalPayrollHours)
	f.RevenuePerBillableHour = generic.SafeDiv(f.TotalRevenue, f.TotalBillableHours)
	return f
}

// completeFinancials adds the non-billable figures and head counts.
//
// Both non-billable cost variants sum max(0, payroll − billable) over
// billable staff. The average-rate variant prices those hours at billable
// staff cost per billable staff hour; the technician variant prices only
// technicians' hours at the flat technician rate.
func completeFinancials(f *FinancialMetrics, employees []EmployeeMetric, rs *rules.RuleSet) {
	techRate := rs.HourlyRate(rules.RoleTechnician)

	var nonBillable, techNonBillable decimal.Decimal
	for _, e := range employees {
		f.EmployeeCount++
		if e.HRExcluded {
			f.HRCount++
			continue
		}
		nonBillable = nonBillable.Add(e.NonBillableHours)
		switch e.Role {
		case rules.RoleSupervisor:
			f.SupervisorCount++
		default:
			f.TechnicianCount++
			techNonBillable = techNonBillable.Add(e.NonBillableHours)
		}
	}

	f.NonBillableHours = nonBillable
	f.NonBillableCost = generic.SafeDiv(nonBillable.Mul(f.BillableStaffCost), f.TotalPayrollHours)
	f.TechnicianNonBillableCost = techNonBillable.Mul(techRate)
	f.ProfitMarginAfterNonBillable = generic.Percent(
		f.TotalRevenue.Sub(f.TotalPayrollCost).Sub(f.NonBillableCost),
		f.TotalRevenue,
	)
}
