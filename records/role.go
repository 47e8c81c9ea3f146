package records

import "github.com/warp/reconcile-engine/rules"

// ClassifyRole derives a role from the service codes an employee billed.
//
// Only technician codes gives TECH, only supervisor codes gives BCBA, and a
// mix is decided by row count with ties going to TECH. Employees with no
// recognised codes (including no billing at all) default to TECH.
func ClassifyRole(rows []BillingRow, codeRoles map[int]rules.Role) rules.Role {
	var tech, supervisor int
	for _, r := range rows {
		switch codeRoles[r.ServiceCode] {
		case rules.RoleTechnician:
			tech++
		case rules.RoleSupervisor:
			supervisor++
		}
	}
	if supervisor > tech {
		return rules.RoleSupervisor
	}
	return rules.RoleTechnician
}
