package payroll

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/dependency"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func januaryRequest(employeeID string) payroll.PeriodRequest {
	return payroll.PeriodRequest{CompanyID: testCompanyID, EmployeeID: employeeID, Month: 1, Year: 2025}
}

func TestPayrollService_ComputeMonth_Success(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.events = fullMonth(testEmployeeID, 2025, 1, "2025-01-06")
	env.leaves.records = []leave.LeaveRecord{
		{EmployeeID: testEmployeeID, Date: date("2025-01-06"), Status: leave.LeaveStatusApproved, Type: leave.LeaveTypePaid},
	}

	agg, err := env.svc.ComputeMonth(context.Background(), januaryRequest(testEmployeeID))

	require.NoError(t, err)
	assert.Equal(t, 26, agg.Present)
	assert.Equal(t, 1, agg.Leave)
	assert.Equal(t, 0, agg.Absent)
	assert.Equal(t, 27, agg.PayableDays)
}

func TestPayrollService_ComputeMonth_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)
	req := januaryRequest(testEmployeeID)
	req.Month = 13

	_, err := env.svc.ComputeMonth(context.Background(), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "period", verrs[0].Field)
}

func TestPayrollService_ComputeMonth_ConfigMissing(t *testing.T) {
	env := newTestEnv(t)
	env.svc.classifiers = &staticClassifiers{err: attendance.ErrConfigNotFound}

	_, err := env.svc.ComputeMonth(context.Background(), januaryRequest(testEmployeeID))

	assert.ErrorIs(t, err, attendance.ErrConfigNotFound)
}

func TestPayrollService_CalculatePayroll_AbsentDeduction(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.events = fullMonth(testEmployeeID, 2025, 1, "2025-01-06", "2025-01-07")

	result, err := env.svc.CalculatePayroll(context.Background(), januaryRequest(testEmployeeID))

	require.NoError(t, err)
	assert.Equal(t, 2, result.Aggregate.Absent)
	assert.Equal(t, 4, result.Aggregate.Sunday)
	assertDecimal(t, "2000", result.Deductions.Absent)
	assertDecimal(t, "24400", result.NetSalary)
	assert.Equal(t, testCompanyID, result.CompanyID)
	assert.Equal(t, 3, result.Config.Version)
}

func TestPayrollService_CalculatePayroll_RuleNotFound(t *testing.T) {
	env := newTestEnv(t)
	delete(env.payroll.rules, testCompanyID)

	_, err := env.svc.CalculatePayroll(context.Background(), januaryRequest(testEmployeeID))

	assert.ErrorIs(t, err, payroll.ErrPayrollRuleNotFound)
}

func TestPayrollService_CalculatePayroll_CompensationNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CalculatePayroll(context.Background(), januaryRequest("ghost"))

	assert.ErrorIs(t, err, payroll.ErrCompensationNotFound)
}

func TestPayrollService_CalculatePayroll_DependencyUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.err = context.DeadlineExceeded

	_, err := env.svc.CalculatePayroll(context.Background(), januaryRequest(testEmployeeID))

	assert.ErrorIs(t, err, dependency.ErrDependencyUnavailable)
}

func TestPayrollService_CalculateCompanyPayroll_Success(t *testing.T) {
	env := newTestEnv(t)
	env.payroll.comps["employee-2"] = payroll.EmployeeCompensation{EmployeeID: "employee-2", CompanyID: testCompanyID, BaseAmount: dec("60000")}
	env.payroll.employees = []string{testEmployeeID, "employee-2", "employee-3"}
	env.attendance.events = append(fullMonth(testEmployeeID, 2025, 1), fullMonth("employee-2", 2025, 1)...)

	resp, err := env.svc.CalculateCompanyPayroll(context.Background(), payroll.BatchPayrollRequest{
		CompanyID: testCompanyID,
		Month:     1,
		Year:      2025,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, testEmployeeID, resp.Results[0].EmployeeID)
	assert.Equal(t, "employee-2", resp.Results[1].EmployeeID)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "employee-3", resp.Failures[0].EmployeeID)
	assertDecimal(t, "90000", resp.TotalGross)
	assertDecimal(t, "79200", resp.TotalNetSalary)
}

func TestPayrollService_CalculateCompanyPayroll_DependencyAbortsBatch(t *testing.T) {
	env := newTestEnv(t)
	env.attendance.err = context.DeadlineExceeded

	_, err := env.svc.CalculateCompanyPayroll(context.Background(), payroll.BatchPayrollRequest{
		CompanyID:   testCompanyID,
		Month:       1,
		Year:        2025,
		EmployeeIDs: []string{testEmployeeID},
	})

	assert.ErrorIs(t, err, dependency.ErrDependencyUnavailable)
}

func TestPayrollService_SendSlip_MatchesPreview(t *testing.T) {
	env := newTestEnv(t)
	env.payroll.comps[testEmployeeID] = payroll.EmployeeCompensation{EmployeeID: testEmployeeID, CompanyID: testCompanyID, BaseAmount: dec("31000")}
	env.attendance.events = fullMonth(testEmployeeID, 2025, 1, "2025-01-08")
	ctx := context.Background()

	preview, err := env.svc.CalculatePayroll(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	sent, err := env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	stored, err := env.svc.GetSlip(ctx, sent.ID, testCompanyID)
	require.NoError(t, err)

	previewResp := payroll.NewPayrollResultResponse(preview)
	assert.True(t, previewResp.NetSalary.Equal(stored.NetSalary))
	assert.True(t, previewResp.GrossSalary.Equal(stored.GrossSalary))
	assert.Equal(t, preview.Remarks, stored.Remarks)
	assert.Equal(t, 1, stored.Aggregate.Absent)
}

func TestPayrollService_SendSlip_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	_, err = env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	assert.ErrorIs(t, err, payroll.ErrDuplicateSlip)
	assert.Len(t, env.slips.slips, 1)
}

func TestPayrollService_SendSlip_NoWriteOnFailure(t *testing.T) {
	env := newTestEnv(t)
	delete(env.payroll.rules, testCompanyID)

	_, err := env.svc.SendSlip(context.Background(), januaryRequest(testEmployeeID))

	assert.ErrorIs(t, err, payroll.ErrPayrollRuleNotFound)
	assert.Empty(t, env.slips.slips)
}

func TestPayrollService_DeleteSlip_AllowsResend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	slip, err := env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteSlip(ctx, slip.ID, testCompanyID))
	_, err = env.svc.GetSlip(ctx, slip.ID, testCompanyID)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)

	_, err = env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	assert.NoError(t, err)
}

func TestPayrollService_GetSlip_OtherCompany(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	slip, err := env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	_, err = env.svc.GetSlip(ctx, slip.ID, "company-2")
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)
}

func TestPayrollService_ListSlips_DefaultsPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.SendSlip(ctx, januaryRequest(testEmployeeID))
	require.NoError(t, err)

	resp, err := env.svc.ListSlips(ctx, testCompanyID, payroll.SlipFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, testEmployeeID, resp.Data[0].EmployeeID)
}

func TestPayrollService_UpdateRule_Success(t *testing.T) {
	env := newTestEnv(t)

	rule, err := env.svc.UpdateRule(context.Background(), payroll.UpdatePayrollRuleRequest{
		CompanyID:           testCompanyID,
		BaseSalaryType:      "daily",
		PayDays:             26,
		AbsentDeductionType: "full-day",
		HRAPercent:          dec("40"),
		PaidLeave:           payroll.LeavePolicyRequest{Type: "paid", MonthlyQuota: 1},
		SickLeave:           payroll.LeavePolicyRequest{Type: "half-paid", MonthlyQuota: 2},
		CasualLeave:         payroll.LeavePolicyRequest{Type: "unpaid"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, rule.Version)
	assert.Equal(t, payroll.BaseSalaryDaily, rule.BaseSalaryType)

	stored, err := env.svc.GetRule(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, 26, stored.PayDays)
}

func TestPayrollService_UpdateRule_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpdateRule(context.Background(), payroll.UpdatePayrollRuleRequest{
		CompanyID:            testCompanyID,
		BaseSalaryType:       "weekly",
		PayDays:              0,
		AbsentDeductionType:  "full-day",
		LateDeductionPercent: dec("120"),
		PaidLeave:            payroll.LeavePolicyRequest{Type: "paid"},
		SickLeave:            payroll.LeavePolicyRequest{Type: "paid"},
		CasualLeave:          payroll.LeavePolicyRequest{Type: "paid"},
	})

	assert.ErrorIs(t, err, payroll.ErrInvalidPayrollRule)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Equal(t, 1, env.payroll.rules[testCompanyID].Version)
}
