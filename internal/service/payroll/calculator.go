package payroll

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const (
	// ClampRemark is appended to the remarks when net salary was clamped to zero.
	ClampRemark = "net salary clamped"
	remarkSplit = "; "
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
	sixty   = decimal.NewFromInt(60)
)

// Calculate applies rule to one employee-month. All amounts keep full
// precision; rounding happens when the result is displayed or frozen into a slip.
func Calculate(rule payroll.PayrollRule, comp payroll.EmployeeCompensation, agg payroll.MonthlyAggregate) payroll.PayrollResult {
	result := payroll.PayrollResult{
		EmployeeID:     agg.EmployeeID,
		CompanyID:      comp.CompanyID,
		Month:          agg.Month,
		Year:           agg.Year,
		BaseSalaryType: rule.BaseSalaryType,
		Aggregate:      agg,
		Rule:           rule,
	}

	// 1. Base salary
	base := baseSalary(rule, comp, agg)
	perDay := decimal.Zero
	if rule.PayDays > 0 {
		perDay = base.Div(decimal.NewFromInt(int64(rule.PayDays)))
	}
	result.PerDayRate = perDay

	// 2. Gross
	result.Earnings = payroll.Earnings{
		BaseSalary:        base,
		HRA:               percentOf(base, rule.HRAPercent),
		Conveyance:        rule.Conveyance,
		ChildrenAllowance: rule.ChildrenAllowance,
		FixedAllowance:    rule.FixedAllowance,
	}
	result.GrossSalary = result.Earnings.Total()

	// 3. Leave consumption
	result.Leaves = consumeLeave(rule, perDay, agg.LeaveUsedByType)
	leaveDeduction := decimal.Zero
	for _, l := range result.Leaves {
		leaveDeduction = leaveDeduction.Add(l.Deduction)
	}

	// 4. Deductions
	result.Deductions = payroll.Deductions{
		Absent:          absenceDeduction(rule, perDay, agg.Absent),
		HalfDay:         days(agg.HalfDay).Mul(percentOf(perDay, rule.HalfDayDeductionPercent)),
		Late:            days(agg.Late).Mul(percentOf(perDay, rule.LateDeductionPercent)),
		EarlyCheckout:   days(agg.EarlyCheckout).Mul(percentOf(perDay, rule.EarlyCheckoutDeductionPercent)),
		Leave:           leaveDeduction,
		ProvidentFund:   percentOf(base, payroll.ProvidentFundPercent),
		ProfessionalTax: rule.ProfessionalTax,
	}
	result.TotalDeductions = result.Deductions.Total()

	// 5. Net
	net := result.GrossSalary.Sub(result.TotalDeductions)
	if net.IsNegative() {
		net = decimal.Zero
		result.Clamped = true
	}
	result.NetSalary = net

	// 6. Remarks
	result.Remarks = buildRemarks(agg, result.Deductions, result.Leaves, result.Clamped)

	return result
}

func baseSalary(rule payroll.PayrollRule, comp payroll.EmployeeCompensation, agg payroll.MonthlyAggregate) decimal.Decimal {
	switch rule.BaseSalaryType {
	case payroll.BaseSalaryDaily:
		return comp.BaseAmount.Mul(days(rule.PayDays))
	case payroll.BaseSalaryHourly:
		return comp.BaseAmount.Mul(decimal.NewFromInt(int64(agg.WorkedMinutes))).Div(sixty)
	default:
		return comp.BaseAmount
	}
}

// absenceDeduction prices n absence-equivalent days.
func absenceDeduction(rule payroll.PayrollRule, perDay decimal.Decimal, n int) decimal.Decimal {
	if rule.AbsentDeductionType == payroll.AbsentDeductionFixed {
		return days(n).Mul(rule.AbsentFixedAmount)
	}
	return days(n).Mul(perDay)
}

// consumeLeave charges each type's used days against its monthly quota.
// Days within quota follow the type's policy; days beyond it are unpaid.
func consumeLeave(rule payroll.PayrollRule, perDay decimal.Decimal, used map[leave.LeaveType]int) []payroll.LeaveConsumption {
	types := append([]leave.LeaveType(nil), leave.AllLeaveTypes...)
	var extra []leave.LeaveType
	for t := range used {
		if !isKnownLeaveType(t) {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	types = append(types, extra...)

	halfPaidRate := percentOf(perDay, rule.HalfDayDeductionPercent).Mul(half)

	consumption := make([]payroll.LeaveConsumption, 0, len(types))
	for _, t := range types {
		n := used[t]
		policy := rule.LeavePolicyFor(t)
		quota := max(policy.MonthlyQuota, 0)
		within := min(n, quota)
		over := n - within

		deduction := absenceDeduction(rule, perDay, over)
		switch policy.Type {
		case payroll.LeavePayPaid:
		case payroll.LeavePayHalfPaid:
			deduction = deduction.Add(days(within).Mul(halfPaidRate))
		default:
			deduction = deduction.Add(absenceDeduction(rule, perDay, within))
		}

		consumption = append(consumption, payroll.LeaveConsumption{
			Type:        t,
			Policy:      policy.Type,
			Used:        n,
			WithinQuota: within,
			OverQuota:   over,
			Deduction:   deduction,
		})
	}
	return consumption
}

func isKnownLeaveType(t leave.LeaveType) bool {
	for _, known := range leave.AllLeaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

// buildRemarks lists non-zero deduction categories in a fixed order:
// absent, half-day, late, early checkout, leave.
func buildRemarks(agg payroll.MonthlyAggregate, d payroll.Deductions, leaves []payroll.LeaveConsumption, clamped bool) string {
	var notes []string

	if d.Absent.IsPositive() {
		notes = append(notes, fmt.Sprintf("%d absent day(s): -%s", agg.Absent, d.Absent.StringFixed(payroll.MoneyPlaces)))
	}
	if d.HalfDay.IsPositive() {
		notes = append(notes, fmt.Sprintf("%d half day(s): -%s", agg.HalfDay, d.HalfDay.StringFixed(payroll.MoneyPlaces)))
	}
	if d.Late.IsPositive() {
		notes = append(notes, fmt.Sprintf("%d late day(s): -%s", agg.Late, d.Late.StringFixed(payroll.MoneyPlaces)))
	}
	if d.EarlyCheckout.IsPositive() {
		notes = append(notes, fmt.Sprintf("%d early checkout(s): -%s", agg.EarlyCheckout, d.EarlyCheckout.StringFixed(payroll.MoneyPlaces)))
	}
	for _, l := range leaves {
		if !l.Deduction.IsPositive() {
			continue
		}
		note := fmt.Sprintf("%d %s leave day(s)", l.Used, l.Type)
		if l.OverQuota > 0 {
			note += fmt.Sprintf(", %d over quota", l.OverQuota)
		}
		notes = append(notes, fmt.Sprintf("%s: -%s", note, l.Deduction.StringFixed(payroll.MoneyPlaces)))
	}

	if clamped {
		notes = append(notes, ClampRemark)
	}

	return strings.Join(notes, remarkSplit)
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

func days(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
