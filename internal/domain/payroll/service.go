package payroll

import "context"

// PayrollService defines business logic for monthly payroll
type PayrollService interface {
	// ComputeMonth aggregates one employee-month of day classifications
	ComputeMonth(ctx context.Context, req PeriodRequest) (MonthlyAggregate, error)

	// CalculatePayroll previews the payroll of one employee-month without persisting it
	CalculatePayroll(ctx context.Context, req PeriodRequest) (PayrollResult, error)

	// CalculateCompanyPayroll previews every active employee of the company in parallel
	CalculateCompanyPayroll(ctx context.Context, req BatchPayrollRequest) (BatchPayrollResponse, error)

	// Slips
	SendSlip(ctx context.Context, req PeriodRequest) (SalarySlip, error)
	GetSlip(ctx context.Context, id string, companyID string) (SalarySlip, error)
	ListSlips(ctx context.Context, companyID string, filter SlipFilter) (ListSalarySlipResponse, error)
	DeleteSlip(ctx context.Context, id string, companyID string) error

	// Rule
	GetRule(ctx context.Context, companyID string) (PayrollRule, error)
	UpdateRule(ctx context.Context, req UpdatePayrollRuleRequest) (PayrollRule, error)
}
