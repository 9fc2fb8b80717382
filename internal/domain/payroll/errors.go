package payroll

import "errors"

var (
	ErrPayrollRuleNotFound  = errors.New("payroll rule not found")
	ErrInvalidPayrollRule   = errors.New("invalid payroll rule")
	ErrCompensationNotFound = errors.New("employee has no base salary configured")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrSlipNotFound         = errors.New("salary slip not found")
	ErrDuplicateSlip        = errors.New("salary slip already exists for this period")

	// ErrClampedNegativeSalary is a warning: the result is still returned with net salary 0.
	ErrClampedNegativeSalary = errors.New("net salary was negative and has been clamped to zero")
)
