package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/google/uuid"
)

var slipNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hris-payroll-engine/salary-slip"))

// SlipID is stable for a company, employee and period, so a resend of the
// same period collides with the stored slip.
func SlipID(companyID, employeeID string, month, year int) string {
	name := fmt.Sprintf("%s/%s/%04d-%02d", companyID, employeeID, year, month)
	return uuid.NewSHA1(slipNamespace, []byte(name)).String()
}

// BuildSlip freezes a payroll result into a slip. Amounts are rounded to
// MoneyPlaces here and nowhere earlier. Identical inputs give identical slips.
func BuildSlip(companyID, employeeID string, month, year int, aggregate payroll.MonthlyAggregate, result payroll.PayrollResult, sentAt time.Time) (payroll.SalarySlip, error) {
	if result.EmployeeID != employeeID || result.Month != month || result.Year != year {
		return payroll.SalarySlip{}, fmt.Errorf("%w: payroll result is for %s %04d-%02d", payroll.ErrInvalidPeriod, result.EmployeeID, result.Year, result.Month)
	}

	return payroll.SalarySlip{
		ID:              SlipID(companyID, employeeID, month, year),
		CompanyID:       companyID,
		EmployeeID:      employeeID,
		Month:           month,
		Year:            year,
		Aggregate:       aggregate,
		Earnings:        result.Earnings.Round(payroll.MoneyPlaces),
		Deductions:      result.Deductions.Round(payroll.MoneyPlaces),
		GrossSalary:     result.GrossSalary.Round(payroll.MoneyPlaces),
		TotalDeductions: result.TotalDeductions.Round(payroll.MoneyPlaces),
		NetSalary:       result.NetSalary.Round(payroll.MoneyPlaces),
		Remarks:         result.Remarks,
		Clamped:         result.Clamped,
		RuleSnapshot:    result.Rule,
		ConfigSnapshot:  payroll.NewConfigSnapshot(result.Config),
		SentAt:          sentAt.UTC(),
	}, nil
}
