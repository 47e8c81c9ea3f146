/*
scenarios.go - Sample datasets for demos and smoke tests

PURPOSE:

	Provides small, fully known billing/payroll datasets that exercise the
	engine end to end without an upload. Each scenario builds a
	records.Input in code, runs it through the same Load path as an upload,
	and publishes the resulting cycle.

AVAILABLE SCENARIOS:

	single-technician: One technician, 100 billed hours against 120 paid
	mixed-roles-hr:    Technicians, a supervisor, an HR person, a mapped
	                   payroll spelling and a void check
	payroll-only:      Payroll with no billing at all (every name unmatched)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-roles-hr"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a builder to 'scenarioInputs'

NOTE:

	Dates fall inside the default Q2 2025 windows. A deployment running a
	different rule set will see the rows filtered out.

SEE ALSO:
  - handlers.go: Load, ListScenarios and LoadScenario routes
  - rules/defaults.go: Windows and name mappings the datasets rely on
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/reconcile-engine/records"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-technician",
		Name:        "Single Technician",
		Description: "One technician billing 100 of 120 paid hours",
		Category:    "basic",
	},
	{
		ID:          "mixed-roles-hr",
		Name:        "Mixed Roles with HR",
		Description: "Technicians, a supervisor, HR payroll, a mapped name and a void check",
		Category:    "matching",
	},
	{
		ID:          "payroll-only",
		Name:        "Payroll Only",
		Description: "Payroll export with an empty billing window",
		Category:    "quality",
	},
}

var scenarioInputs = map[string]func() records.Input{
	"single-technician": singleTechnicianInput,
	"mixed-roles-hr":    mixedRolesInput,
	"payroll-only":      payrollOnlyInput,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario publishes a cycle computed from a sample dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	build, ok := scenarioInputs[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}

	c := h.Load("scenario:"+req.ScenarioID, build())
	writeJSON(w, http.StatusCreated, toBundleDTO(c))
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func billing(employee string, code int, date string, hours, amount int64, line int) records.BillingRow {
	return records.BillingRow{
		Employee:    employee,
		ServiceCode: code,
		Date:        date,
		Hours:       decimal.NewFromInt(hours),
		Amount:      decimal.NewFromInt(amount),
		Line:        line,
	}
}

func payroll(employee, checkDate string, hours int64, cost string, line int) records.PayrollRow {
	return records.PayrollRow{
		Employee:  employee,
		CheckDate: checkDate,
		Hours:     decimal.NewFromInt(hours),
		CostText:  cost,
		Line:      line,
	}
}

// 100 billed hours at $50 against 120 paid hours at $25.
func singleTechnicianInput() records.Input {
	return records.Input{
		Billing: []records.BillingRow{
			billing("Sofia Martinez", 97153, "4/15/2025", 60, 3000, 2),
			billing("Sofia Martinez", 97153, "5/20/2025", 40, 2000, 3),
		},
		Payroll: []records.PayrollRow{
			payroll("Martinez, Sofia", "4/18/2025", 60, "1,500.00", 2),
			payroll("Martinez, Sofia", "5/2/2025", 60, "1,500.00", 3),
		},
	}
}

func mixedRolesInput() records.Input {
	void := payroll("Lee, Jordan", "5/16/2025 - Void", 10, "(450.00)", 7)
	void.Void = true

	return records.Input{
		Billing: []records.BillingRow{
			billing("Sofia Martinez", 97153, "4/7/2025", 80, 4000, 2),
			billing("Sofia Martinez", 97154, "5/12/2025", 20, 700, 3),
			billing("Jordan Lee", 97155, "4/9/2025", 50, 5500, 4),
			billing("Jordan Lee", 97151, "6/3/2025", 10, 1100, 5),
			billing("Marcus Bell", 97153, "4/22/2025", 30, 1500, 6),
			billing("Sofia Martinez", 97153, "3/28/2025", 8, 400, 7), // outside window
		},
		Payroll: []records.PayrollRow{
			payroll("Martinez, Sofia", "4/18/2025", 70, "1,750.00", 2),
			payroll("Martinez, Sofia", "5/30/2025", 70, "1,750.00", 3),
			payroll("Lee, Jordan", "4/18/2025", 40, "1,800.00", 4),
			payroll("Lee, Jordan", "5/16/2025", 40, "1,800.00", 5),
			payroll("Bell, Marcus", "4/18/2025", 80, "2,000.00", 6),
			void,
			payroll("Whitaker, Karen", "4/18/2025", 80, "3,200.00", 8),
			payroll("Whitaker, Karen", "4/4/2025 - Prior", 80, "3,200.00", 9), // outside window
		},
	}
}

func payrollOnlyInput() records.Input {
	return records.Input{
		Payroll: []records.PayrollRow{
			payroll("Bell, Marcus", "4/18/2025", 80, "2,000.00", 2),
			payroll("Lee, Jordan", "4/18/2025", 40, "1,800.00", 3),
		},
	}
}
