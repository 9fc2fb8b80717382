package payroll

import "context"

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Rule
	GetRule(ctx context.Context, companyID string) (PayrollRule, error)
	UpsertRule(ctx context.Context, rule PayrollRule) (PayrollRule, error)

	// Employees
	GetCompensation(ctx context.Context, employeeID string, companyID string) (EmployeeCompensation, error)
	ListActiveEmployeeIDs(ctx context.Context, companyID string) ([]string, error)
}

// SlipRepository persists immutable salary slips.
type SlipRepository interface {
	// CreateSlip fails with ErrDuplicateSlip when the employee already has a slip for the period
	CreateSlip(ctx context.Context, slip SalarySlip) (SalarySlip, error)
	GetSlipByID(ctx context.Context, id string, companyID string) (SalarySlip, error)
	ExistsForPeriod(ctx context.Context, employeeID string, month, year int, companyID string) (bool, error)
	ListSlips(ctx context.Context, companyID string, filter SlipFilter) ([]SalarySlip, int64, error)
	DeleteSlip(ctx context.Context, id string, companyID string) error
}
