package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PERIOD DTOs ==========

type PeriodRequest struct {
	CompanyID  string `json:"-"`
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !validator.IsValidPeriod(r.Month, r.Year) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "month must be 1-12 and year 2000-9999"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BatchPayrollRequest struct {
	CompanyID   string   `json:"-"`
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // Empty = all active employees
}

func (r *BatchPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(r.Month, r.Year) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "month must be 1-12 and year 2000-9999"})
	}
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must not contain empty ids"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== AGGREGATE DTOs ==========

type MonthlyAggregateResponse struct {
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
	Days            []AggregateDay          `json:"days,omitempty"`
}

func NewMonthlyAggregateResponse(a MonthlyAggregate) MonthlyAggregateResponse {
	used := a.LeaveUsedByType
	if used == nil {
		used = map[leave.LeaveType]int{}
	}
	return MonthlyAggregateResponse{
		EmployeeID:      a.EmployeeID,
		Month:           a.Month,
		Year:            a.Year,
		Present:         a.Present,
		Late:            a.Late,
		HalfDay:         a.HalfDay,
		EarlyCheckout:   a.EarlyCheckout,
		Absent:          a.Absent,
		Sunday:          a.Sunday,
		Holiday:         a.Holiday,
		Leave:           a.Leave,
		Upcoming:        a.Upcoming,
		PayableDays:     a.PayableDays,
		WorkedMinutes:   a.WorkedMinutes,
		LeaveUsedByType: used,
		Days:            a.Days,
	}
}

// ========== PAYROLL RESULT DTOs ==========

type PayrollResultResponse struct {
	EmployeeID      string                   `json:"employee_id"`
	Month           int                      `json:"month"`
	Year            int                      `json:"year"`
	BaseSalaryType  string                   `json:"base_salary_type"`
	PerDayRate      decimal.Decimal          `json:"per_day_rate"`
	Earnings        Earnings                 `json:"earnings"`
	GrossSalary     decimal.Decimal          `json:"gross_salary"`
	Deductions      Deductions               `json:"deductions"`
	TotalDeductions decimal.Decimal          `json:"total_deductions"`
	NetSalary       decimal.Decimal          `json:"net_salary"`
	Leaves          []LeaveConsumption       `json:"leaves"`
	Remarks         string                   `json:"remarks"`
	Clamped         bool                     `json:"clamped"`
	Aggregate       MonthlyAggregateResponse `json:"aggregate"`
}

// NewPayrollResultResponse rounds every amount to MoneyPlaces.
func NewPayrollResultResponse(r PayrollResult) PayrollResultResponse {
	leaves := make([]LeaveConsumption, 0, len(r.Leaves))
	for _, l := range r.Leaves {
		l.Deduction = l.Deduction.Round(MoneyPlaces)
		leaves = append(leaves, l)
	}

	return PayrollResultResponse{
		EmployeeID:      r.EmployeeID,
		Month:           r.Month,
		Year:            r.Year,
		BaseSalaryType:  string(r.BaseSalaryType),
		PerDayRate:      r.PerDayRate.Round(MoneyPlaces),
		Earnings:        r.Earnings.Round(MoneyPlaces),
		GrossSalary:     r.GrossSalary.Round(MoneyPlaces),
		Deductions:      r.Deductions.Round(MoneyPlaces),
		TotalDeductions: r.TotalDeductions.Round(MoneyPlaces),
		NetSalary:       r.NetSalary.Round(MoneyPlaces),
		Leaves:          leaves,
		Remarks:         r.Remarks,
		Clamped:         r.Clamped,
		Aggregate:       NewMonthlyAggregateResponse(r.Aggregate),
	}
}

type BatchFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type BatchPayrollResponse struct {
	Month          int                     `json:"month"`
	Year           int                     `json:"year"`
	Results        []PayrollResultResponse `json:"results"`
	Failures       []BatchFailure          `json:"failures"`
	TotalGross     decimal.Decimal         `json:"total_gross"`
	TotalNetSalary decimal.Decimal         `json:"total_net_salary"`
}

// ========== SLIP DTOs ==========

type SalarySlipResponse struct {
	ID              string                   `json:"id"`
	EmployeeID      string                   `json:"employee_id"`
	Month           int                      `json:"month"`
	Year            int                      `json:"year"`
	Earnings        Earnings                 `json:"earnings"`
	Deductions      Deductions               `json:"deductions"`
	GrossSalary     decimal.Decimal          `json:"gross_salary"`
	TotalDeductions decimal.Decimal          `json:"total_deductions"`
	NetSalary       decimal.Decimal          `json:"net_salary"`
	Remarks         string                   `json:"remarks"`
	Clamped         bool                     `json:"clamped"`
	Aggregate       MonthlyAggregateResponse `json:"aggregate"`
	Rule            PayrollRule              `json:"rule_snapshot"`
	Config          ConfigSnapshot           `json:"config_snapshot"`
	SentAt          string                   `json:"sent_at"`
}

func NewSalarySlipResponse(s SalarySlip) SalarySlipResponse {
	return SalarySlipResponse{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		Month:           s.Month,
		Year:            s.Year,
		Earnings:        s.Earnings,
		Deductions:      s.Deductions,
		GrossSalary:     s.GrossSalary,
		TotalDeductions: s.TotalDeductions,
		NetSalary:       s.NetSalary,
		Remarks:         s.Remarks,
		Clamped:         s.Clamped,
		Aggregate:       NewMonthlyAggregateResponse(s.Aggregate),
		Rule:            s.RuleSnapshot,
		Config:          s.ConfigSnapshot,
		SentAt:          s.SentAt.Format(time.RFC3339),
	}
}

type SlipFilter struct {
	Month      *int    `json:"month,omitempty"`
	Year       *int    `json:"year,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *SlipFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if f.Year != nil && (*f.Year < 2000 || *f.Year > 9999) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 9999"})
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListSalarySlipResponse struct {
	Data       []SalarySlipResponse `json:"data"`
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
}

// ========== RULE DTOs ==========

type LeavePolicyRequest struct {
	Type         string `json:"type" validate:"required,oneof=paid unpaid half-paid"`
	MonthlyQuota int    `json:"monthly_quota" validate:"gte=0,lte=31"`
}

func (p LeavePolicyRequest) toPolicy() LeavePolicy {
	return LeavePolicy{Type: LeavePayType(p.Type), MonthlyQuota: p.MonthlyQuota}
}

// UpdatePayrollRuleRequest replaces the active rule ("last rule wins").
type UpdatePayrollRuleRequest struct {
	CompanyID                     string             `json:"-"`
	BaseSalaryType                string             `json:"base_salary_type" validate:"required,oneof=fixed daily hourly"`
	PayDays                       int                `json:"pay_days" validate:"min=1,max=31"`
	AbsentDeductionType           string             `json:"absent_deduction_type" validate:"required,oneof=full-day fixed"`
	AbsentFixedAmount             decimal.Decimal    `json:"absent_fixed_amount"`
	HalfDayDeductionPercent       decimal.Decimal    `json:"half_day_deduction_percent"`
	LateDeductionPercent          decimal.Decimal    `json:"late_deduction_percent"`
	EarlyCheckoutDeductionPercent decimal.Decimal    `json:"early_checkout_deduction_percent"`
	HRAPercent                    decimal.Decimal    `json:"hra_percent"`
	Conveyance                    decimal.Decimal    `json:"conveyance"`
	ChildrenAllowance             decimal.Decimal    `json:"children_allowance"`
	FixedAllowance                decimal.Decimal    `json:"fixed_allowance"`
	ProfessionalTax               decimal.Decimal    `json:"professional_tax"`
	PaidLeave                     LeavePolicyRequest `json:"paid_leave"`
	SickLeave                     LeavePolicyRequest `json:"sick_leave"`
	CasualLeave                   LeavePolicyRequest `json:"casual_leave"`
}

var hundred = decimal.NewFromInt(100)

func (r *UpdatePayrollRuleRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"absent_fixed_amount", r.AbsentFixedAmount},
		{"conveyance", r.Conveyance},
		{"children_allowance", r.ChildrenAllowance},
		{"fixed_allowance", r.FixedAllowance},
		{"professional_tax", r.ProfessionalTax},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: a.field, Message: "must be non-negative"})
		}
	}

	percents := []struct {
		field string
		value decimal.Decimal
	}{
		{"half_day_deduction_percent", r.HalfDayDeductionPercent},
		{"late_deduction_percent", r.LateDeductionPercent},
		{"early_checkout_deduction_percent", r.EarlyCheckoutDeductionPercent},
		{"hra_percent", r.HRAPercent},
	}
	for _, p := range percents {
		if p.value.IsNegative() || p.value.GreaterThan(hundred) {
			errs = append(errs, validator.ValidationError{Field: p.field, Message: "must be between 0 and 100"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToRule maps the request to the entity; Version is assigned on save.
func (r *UpdatePayrollRuleRequest) ToRule() PayrollRule {
	return PayrollRule{
		CompanyID:                     r.CompanyID,
		BaseSalaryType:                BaseSalaryType(r.BaseSalaryType),
		PayDays:                       r.PayDays,
		AbsentDeductionType:           AbsentDeductionType(r.AbsentDeductionType),
		AbsentFixedAmount:             r.AbsentFixedAmount,
		HalfDayDeductionPercent:       r.HalfDayDeductionPercent,
		LateDeductionPercent:          r.LateDeductionPercent,
		EarlyCheckoutDeductionPercent: r.EarlyCheckoutDeductionPercent,
		HRAPercent:                    r.HRAPercent,
		Conveyance:                    r.Conveyance,
		ChildrenAllowance:             r.ChildrenAllowance,
		FixedAllowance:                r.FixedAllowance,
		ProfessionalTax:               r.ProfessionalTax,
		PaidLeave:                     r.PaidLeave.toPolicy(),
		SickLeave:                     r.SickLeave.toPolicy(),
		CasualLeave:                   r.CasualLeave.toPolicy(),
	}
}
