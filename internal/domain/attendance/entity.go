package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

// AttendanceConfig - Company office hours configuration
type AttendanceConfig struct {
	CompanyID                 string
	Version                   int
	Timezone                  string
	OfficeStartTime           string // HH:MM
	OfficeEndTime             string // HH:MM
	LateGraceMinutes          int
	HalfDayLoginCutoff        string // HH:MM
	HalfDayCheckoutCutoff     string // HH:MM
	EarlyCheckoutGraceMinutes int
	AutoCheckoutTime          string // HH:MM
	CountSundayPayable        bool
	CountHolidayPayable       bool
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// Location resolves the configured timezone, UTC when unset.
func (c AttendanceConfig) Location() *time.Location {
	return clock.LoadLocation(c.Timezone)
}

// Break is one pause inside a working day. End is nil while the break is open.
type Break struct {
	Start time.Time
	End   *time.Time
}

// AttendanceEvent - Raw check-in/check-out/break data for one employee-day
type AttendanceEvent struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       clock.DateKey
	CheckIn    *time.Time
	CheckOut   *time.Time
	Breaks     []Break
	AutoClosed bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Phase enum
type Phase string

const (
	PhaseNotCheckedIn Phase = "not_checked_in"
	PhaseCheckedIn    Phase = "checked_in"
	PhaseOnBreak      Phase = "on_break"
	PhaseCheckedOut   Phase = "checked_out"
)

// DayState - Snapshot of the break state machine after a transition
type DayState struct {
	EmployeeID    string
	Date          clock.DateKey
	Phase         Phase
	CheckIn       *time.Time
	CheckOut      *time.Time
	Breaks        []Break
	WorkedMinutes int
	BreakMinutes  int
}

// DayStatus enum
type DayStatus string

const (
	StatusPresent       DayStatus = "present"
	StatusLate          DayStatus = "late"
	StatusHalfDay       DayStatus = "half_day"
	StatusEarlyCheckout DayStatus = "early_checkout"
	StatusAbsent        DayStatus = "absent"
	StatusSunday        DayStatus = "sunday"
	StatusHoliday       DayStatus = "holiday"
)

// DayClassification - Derived attendance status for one day, never persisted
type DayClassification struct {
	EmployeeID    string
	Date          clock.DateKey
	Status        DayStatus
	WorkedMinutes int
	BreakMinutes  int
	// Provisional is set while the employee is checked in without a checkout.
	Provisional bool
}
