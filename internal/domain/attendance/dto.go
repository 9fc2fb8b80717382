package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// ========================================
// STATE TRANSITION DTOs
// ========================================

// RecordRequest drives one break state machine transition.
// Date defaults to the local date of the transition instant. Any other date
// is rejected unless AllowPastDate is set, and future dates always are.
type RecordRequest struct {
	CompanyID     string  `json:"-"`
	EmployeeID    string  `json:"employee_id"`
	Date          *string `json:"date,omitempty"` // YYYY-MM-DD
	AllowPastDate bool    `json:"-"`
}

func (r *RecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Date != nil && *r.Date != "" {
		if _, valid := validator.IsValidDate(*r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BreakResponse struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

type DayStateResponse struct {
	EmployeeID    string          `json:"employee_id"`
	Date          string          `json:"date"`
	Phase         string          `json:"phase"`
	CheckIn       *string         `json:"check_in,omitempty"`
	CheckOut      *string         `json:"check_out,omitempty"`
	Breaks        []BreakResponse `json:"breaks"`
	WorkedMinutes int             `json:"worked_minutes"`
	BreakMinutes  int             `json:"break_minutes"`
}

func NewDayStateResponse(s DayState, loc *time.Location) DayStateResponse {
	breaks := make([]BreakResponse, 0, len(s.Breaks))
	for _, b := range s.Breaks {
		breaks = append(breaks, BreakResponse{
			Start: b.Start.In(loc).Format(time.RFC3339),
			End:   formatTime(b.End, loc),
		})
	}

	return DayStateResponse{
		EmployeeID:    s.EmployeeID,
		Date:          s.Date.String(),
		Phase:         string(s.Phase),
		CheckIn:       formatTime(s.CheckIn, loc),
		CheckOut:      formatTime(s.CheckOut, loc),
		Breaks:        breaks,
		WorkedMinutes: s.WorkedMinutes,
		BreakMinutes:  s.BreakMinutes,
	}
}

func formatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// ========================================
// CLASSIFICATION DTOs
// ========================================

type ClassifyDayRequest struct {
	CompanyID  string `json:"-"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
}

func (r *ClassifyDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DayClassificationResponse struct {
	EmployeeID    string `json:"employee_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	WorkedMinutes int    `json:"worked_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
	Provisional   bool   `json:"provisional"`
}

func NewDayClassificationResponse(c DayClassification) DayClassificationResponse {
	return DayClassificationResponse{
		EmployeeID:    c.EmployeeID,
		Date:          c.Date.String(),
		Status:        string(c.Status),
		WorkedMinutes: c.WorkedMinutes,
		BreakMinutes:  c.BreakMinutes,
		Provisional:   c.Provisional,
	}
}

// ========================================
// CONFIG DTOs
// ========================================

type AttendanceConfigResponse struct {
	CompanyID                 string `json:"company_id"`
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

func NewAttendanceConfigResponse(c AttendanceConfig) AttendanceConfigResponse {
	return AttendanceConfigResponse{
		CompanyID:                 c.CompanyID,
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

// UpdateAttendanceConfigRequest replaces the active config ("last rule wins").
type UpdateAttendanceConfigRequest struct {
	CompanyID                 string `json:"-"`
	Timezone                  string `json:"timezone" validate:"required,timezone"`
	OfficeStartTime           string `json:"office_start_time" validate:"required,clock"`
	OfficeEndTime             string `json:"office_end_time" validate:"required,clock"`
	LateGraceMinutes          int    `json:"late_grace_minutes" validate:"gte=0,lte=720"`
	HalfDayLoginCutoff        string `json:"half_day_login_cutoff" validate:"required,clock"`
	HalfDayCheckoutCutoff     string `json:"half_day_checkout_cutoff" validate:"required,clock"`
	EarlyCheckoutGraceMinutes int    `json:"early_checkout_grace_minutes" validate:"gte=0,lte=720"`
	AutoCheckoutTime          string `json:"auto_checkout_time" validate:"required,clock"`
	CountSundayPayable        bool   `json:"count_sunday_payable"`
	CountHolidayPayable       bool   `json:"count_holiday_payable"`
}

func (r *UpdateAttendanceConfigRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors

	// Formats were checked above, so parse errors cannot occur here.
	start, _ := clock.ToMinutes(r.OfficeStartTime)
	end, _ := clock.ToMinutes(r.OfficeEndTime)
	loginCutoff, _ := clock.ToMinutes(r.HalfDayLoginCutoff)
	checkoutCutoff, _ := clock.ToMinutes(r.HalfDayCheckoutCutoff)
	autoCheckout, _ := clock.ToMinutes(r.AutoCheckoutTime)

	if start >= end {
		errs = append(errs, validator.ValidationError{
			Field:   "office_end_time",
			Message: "office_end_time must be after office_start_time",
		})
	}

	if start >= loginCutoff {
		errs = append(errs, validator.ValidationError{
			Field:   "half_day_login_cutoff",
			Message: "half_day_login_cutoff must be after office_start_time",
		})
	}

	if checkoutCutoff >= end {
		errs = append(errs, validator.ValidationError{
			Field:   "half_day_checkout_cutoff",
			Message: "half_day_checkout_cutoff must be before office_end_time",
		})
	}

	if autoCheckout < end {
		errs = append(errs, validator.ValidationError{
			Field:   "auto_checkout_time",
			Message: "auto_checkout_time must not be before office_end_time",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToConfig maps the request to the entity; Version is assigned on save.
func (r *UpdateAttendanceConfigRequest) ToConfig() AttendanceConfig {
	return AttendanceConfig{
		CompanyID:                 r.CompanyID,
		Timezone:                  r.Timezone,
		OfficeStartTime:           r.OfficeStartTime,
		OfficeEndTime:             r.OfficeEndTime,
		LateGraceMinutes:          r.LateGraceMinutes,
		HalfDayLoginCutoff:        r.HalfDayLoginCutoff,
		HalfDayCheckoutCutoff:     r.HalfDayCheckoutCutoff,
		EarlyCheckoutGraceMinutes: r.EarlyCheckoutGraceMinutes,
		AutoCheckoutTime:          r.AutoCheckoutTime,
		CountSundayPayable:        r.CountSundayPayable,
		CountHolidayPayable:       r.CountHolidayPayable,
	}
}
