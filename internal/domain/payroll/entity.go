package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// BaseSalaryType enum
type BaseSalaryType string

const (
	BaseSalaryFixed  BaseSalaryType = "fixed"
	BaseSalaryDaily  BaseSalaryType = "daily"
	BaseSalaryHourly BaseSalaryType = "hourly"
)

// AbsentDeductionType enum
type AbsentDeductionType string

const (
	AbsentDeductionFullDay AbsentDeductionType = "full-day"
	AbsentDeductionFixed   AbsentDeductionType = "fixed"
)

// LeavePayType enum
type LeavePayType string

const (
	LeavePayPaid     LeavePayType = "paid"
	LeavePayUnpaid   LeavePayType = "unpaid"
	LeavePayHalfPaid LeavePayType = "half-paid"
)

// LeavePolicy - Pay effect and monthly allowance of one leave type
type LeavePolicy struct {
	Type         LeavePayType `json:"type"`
	MonthlyQuota int          `json:"monthly_quota"`
}

// ProvidentFundPercent is the fixed PF contribution taken from base salary.
var ProvidentFundPercent = decimal.NewFromInt(12)

// PayrollRule - Company payroll rule set, one active per company
type PayrollRule struct {
	CompanyID                     string              `json:"company_id"`
	Version                       int                 `json:"version"`
	BaseSalaryType                BaseSalaryType      `json:"base_salary_type"`
	PayDays                       int                 `json:"pay_days"`
	AbsentDeductionType           AbsentDeductionType `json:"absent_deduction_type"`
	AbsentFixedAmount             decimal.Decimal     `json:"absent_fixed_amount"`
	HalfDayDeductionPercent       decimal.Decimal     `json:"half_day_deduction_percent"`
	LateDeductionPercent          decimal.Decimal     `json:"late_deduction_percent"`
	EarlyCheckoutDeductionPercent decimal.Decimal     `json:"early_checkout_deduction_percent"`
	HRAPercent                    decimal.Decimal     `json:"hra_percent"`
	Conveyance                    decimal.Decimal     `json:"conveyance"`
	ChildrenAllowance             decimal.Decimal     `json:"children_allowance"`
	FixedAllowance                decimal.Decimal     `json:"fixed_allowance"`
	ProfessionalTax               decimal.Decimal     `json:"professional_tax"`
	PaidLeave                     LeavePolicy         `json:"paid_leave"`
	SickLeave                     LeavePolicy         `json:"sick_leave"`
	CasualLeave                   LeavePolicy         `json:"casual_leave"`
	CreatedAt                     time.Time           `json:"-"`
	UpdatedAt                     time.Time           `json:"-"`
}

// LeavePolicyFor returns the policy of a leave type. Unknown types are
// unpaid with no quota.
func (r PayrollRule) LeavePolicyFor(t leave.LeaveType) LeavePolicy {
	switch t {
	case leave.LeaveTypePaid:
		return r.PaidLeave
	case leave.LeaveTypeSick:
		return r.SickLeave
	case leave.LeaveTypeCasual:
		return r.CasualLeave
	default:
		return LeavePolicy{Type: LeavePayUnpaid}
	}
}

// EmployeeCompensation - Base amount of an employee. Its unit follows the
// rule's BaseSalaryType: monthly, per day or per hour.
type EmployeeCompensation struct {
	EmployeeID string
	CompanyID  string
	BaseAmount decimal.Decimal
}

// DayStatusLeave marks an absent day covered by approved leave.
const DayStatusLeave attendance.DayStatus = "leave"

// DayStatusUpcoming marks a day after the as-of date.
const DayStatusUpcoming attendance.DayStatus = "upcoming"

// AggregateDay - One day of the monthly breakdown
type AggregateDay struct {
	Date          clock.DateKey        `json:"date"`
	Status        attendance.DayStatus `json:"status"`
	LeaveType     *leave.LeaveType     `json:"leave_type,omitempty"`
	WorkedMinutes int                  `json:"worked_minutes"`
	BreakMinutes  int                  `json:"break_minutes"`
	Provisional   bool                 `json:"provisional,omitempty"`
}

// MonthlyAggregate - Classification counts for one employee-month
type MonthlyAggregate struct {
	EmployeeID      string                  `json:"employee_id"`
	Month           int                     `json:"month"`
	Year            int                     `json:"year"`
	Present         int                     `json:"present"`
	Late            int                     `json:"late"`
	HalfDay         int                     `json:"half_day"`
	EarlyCheckout   int                     `json:"early_checkout"`
	Absent          int                     `json:"absent"`
	Sunday          int                     `json:"sunday"`
	Holiday         int                     `json:"holiday"`
	Leave           int                     `json:"leave"`
	Upcoming        int                     `json:"upcoming"`
	PayableDays     int                     `json:"payable_days"`
	WorkedMinutes   int                     `json:"worked_minutes"`
	LeaveUsedByType map[leave.LeaveType]int `json:"leave_used_by_type"`
	Days            []AggregateDay          `json:"days"`
}

// LeaveConsumption - How one leave type's days were charged against its quota
type LeaveConsumption struct {
	Type        leave.LeaveType `json:"type"`
	Policy      LeavePayType    `json:"policy"`
	Used        int             `json:"used"`
	WithinQuota int             `json:"within_quota"`
	OverQuota   int             `json:"over_quota"`
	Deduction   decimal.Decimal `json:"deduction"`
}

// Earnings - Gross salary components
type Earnings struct {
	BaseSalary        decimal.Decimal `json:"base_salary"`
	HRA               decimal.Decimal `json:"hra"`
	Conveyance        decimal.Decimal `json:"conveyance"`
	ChildrenAllowance decimal.Decimal `json:"children_allowance"`
	FixedAllowance    decimal.Decimal `json:"fixed_allowance"`
}

func (e Earnings) Total() decimal.Decimal {
	return e.BaseSalary.Add(e.HRA).Add(e.Conveyance).Add(e.ChildrenAllowance).Add(e.FixedAllowance)
}

func (e Earnings) Round(places int32) Earnings {
	return Earnings{
		BaseSalary:        e.BaseSalary.Round(places),
		HRA:               e.HRA.Round(places),
		Conveyance:        e.Conveyance.Round(places),
		ChildrenAllowance: e.ChildrenAllowance.Round(places),
		FixedAllowance:    e.FixedAllowance.Round(places),
	}
}

// Deductions - Deduction categories, each computed independently
type Deductions struct {
	Absent          decimal.Decimal `json:"absent"`
	HalfDay         decimal.Decimal `json:"half_day"`
	Late            decimal.Decimal `json:"late"`
	EarlyCheckout   decimal.Decimal `json:"early_checkout"`
	Leave           decimal.Decimal `json:"leave"`
	ProvidentFund   decimal.Decimal `json:"provident_fund"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.Absent.Add(d.HalfDay).Add(d.Late).Add(d.EarlyCheckout).Add(d.Leave).Add(d.ProvidentFund).Add(d.ProfessionalTax)
}

func (d Deductions) Round(places int32) Deductions {
	return Deductions{
		Absent:          d.Absent.Round(places),
		HalfDay:         d.HalfDay.Round(places),
		Late:            d.Late.Round(places),
		EarlyCheckout:   d.EarlyCheckout.Round(places),
		Leave:           d.Leave.Round(places),
		ProvidentFund:   d.ProvidentFund.Round(places),
		ProfessionalTax: d.ProfessionalTax.Round(places),
	}
}

// PayrollResult - Full-precision payroll preview, never persisted
type PayrollResult struct {
	EmployeeID      string
	CompanyID       string
	Month           int
	Year            int
	BaseSalaryType  BaseSalaryType
	PerDayRate      decimal.Decimal
	Earnings        Earnings
	GrossSalary     decimal.Decimal
	Deductions      Deductions
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	Leaves          []LeaveConsumption
	Remarks         string
	Clamped         bool

	Aggregate MonthlyAggregate
	Rule      PayrollRule
	Config    attendance.AttendanceConfig
}

// MoneyPlaces is the rounding boundary for displayed and persisted amounts.
const MoneyPlaces int32 = 2

// SalarySlip - Immutable persisted payroll result for one employee-month
type SalarySlip struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Month           int
	Year            int
	Aggregate       MonthlyAggregate
	Earnings        Earnings
	Deductions      Deductions
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	Remarks         string
	Clamped         bool
	RuleSnapshot    PayrollRule
	ConfigSnapshot  ConfigSnapshot
	SentAt          time.Time
	CreatedAt       time.Time
}

// ConfigSnapshot - Attendance config as it was when the slip was sent
type ConfigSnapshot struct {
	Version                   int    `json:"version"`
	Timezone                  string `json:"timezone"`
	OfficeStartTime           string `json:"office_start_time"`
	OfficeEndTime             string `json:"office_end_time"`
	LateGraceMinutes          int    `json:"late_grace_minutes"`
	HalfDayLoginCutoff        string `json:"half_day_login_cutoff"`
	HalfDayCheckoutCutoff     string `json:"half_day_checkout_cutoff"`
	EarlyCheckoutGraceMinutes int    `json:"early_checkout_grace_minutes"`
	AutoCheckoutTime          string `json:"auto_checkout_time"`
	CountSundayPayable        bool   `json:"count_sunday_payable"`
	CountHolidayPayable       bool   `json:"count_holiday_payable"`
}

func NewConfigSnapshot(c attendance.AttendanceConfig) ConfigSnapshot {
	return ConfigSnapshot{
		Version:                   c.Version,
		Timezone:                  c.Timezone,
		OfficeStartTime:           c.OfficeStartTime,
		OfficeEndTime:             c.OfficeEndTime,
		LateGraceMinutes:          c.LateGraceMinutes,
		HalfDayLoginCutoff:        c.HalfDayLoginCutoff,
		HalfDayCheckoutCutoff:     c.HalfDayCheckoutCutoff,
		EarlyCheckoutGraceMinutes: c.EarlyCheckoutGraceMinutes,
		AutoCheckoutTime:          c.AutoCheckoutTime,
		CountSundayPayable:        c.CountSundayPayable,
		CountHolidayPayable:       c.CountHolidayPayable,
	}
}
