package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

// Classifier turns one employee-day into a DayClassification under a fixed
// config and holiday calendar. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	config   attendance.AttendanceConfig
	loc      *time.Location
	holidays *clock.HolidayCalendar

	officeStart    int
	officeEnd      int
	loginCutoff    int
	checkoutCutoff int
}

func NewClassifier(config attendance.AttendanceConfig, holidays *clock.HolidayCalendar) (*Classifier, error) {
	c := &Classifier{
		config:   config,
		loc:      config.Location(),
		holidays: holidays,
	}

	fields := []struct {
		name  string
		value string
		dst   *int
	}{
		{"office_start_time", config.OfficeStartTime, &c.officeStart},
		{"office_end_time", config.OfficeEndTime, &c.officeEnd},
		{"half_day_login_cutoff", config.HalfDayLoginCutoff, &c.loginCutoff},
		{"half_day_checkout_cutoff", config.HalfDayCheckoutCutoff, &c.checkoutCutoff},
	}
	for _, f := range fields {
		m, err := clock.ToMinutes(f.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", attendance.ErrInvalidConfig, f.name, err)
		}
		*f.dst = m
	}

	return c, nil
}

func (c *Classifier) Location() *time.Location {
	return c.loc
}

func (c *Classifier) Config() attendance.AttendanceConfig {
	return c.config
}

// dayFacts is everything a classification rule may look at.
type dayFacts struct {
	date        clock.DateKey
	hasCheckIn  bool
	hasCheckOut bool
	checkIn     int // local wall clock minutes past midnight of date
	checkOut    int // may exceed 1439 when checkout crosses midnight
}

type classificationRule struct {
	status  attendance.DayStatus
	applies func(c *Classifier, f dayFacts) bool
}

// classificationRules is evaluated top to bottom; the first rule that applies wins.
// Early checkout allows EarlyCheckoutGraceMinutes before office end; with the
// default grace of zero it is a plain checkOut < officeEnd comparison.
var classificationRules = []classificationRule{
	{attendance.StatusSunday, func(c *Classifier, f dayFacts) bool {
		return clock.IsSunday(f.date) && !c.config.CountSundayPayable
	}},
	{attendance.StatusHoliday, func(c *Classifier, f dayFacts) bool {
		return clock.IsHoliday(f.date, c.holidays) && !c.config.CountHolidayPayable
	}},
	{attendance.StatusAbsent, func(c *Classifier, f dayFacts) bool {
		return !f.hasCheckIn
	}},
	{attendance.StatusHalfDay, func(c *Classifier, f dayFacts) bool {
		return f.checkIn > c.loginCutoff
	}},
	{attendance.StatusHalfDay, func(c *Classifier, f dayFacts) bool {
		return f.hasCheckOut && f.checkOut < c.checkoutCutoff
	}},
	{attendance.StatusLate, func(c *Classifier, f dayFacts) bool {
		return f.checkIn > c.officeStart+c.config.LateGraceMinutes
	}},
	{attendance.StatusEarlyCheckout, func(c *Classifier, f dayFacts) bool {
		return f.hasCheckOut && f.checkOut < c.officeEnd-c.config.EarlyCheckoutGraceMinutes
	}},
	{attendance.StatusPresent, func(c *Classifier, f dayFacts) bool {
		return true
	}},
}

// Classify classifies date for employeeID. event may be nil when nothing was
// recorded that day. now bounds an open day's worked time.
func (c *Classifier) Classify(employeeID string, date clock.DateKey, event *attendance.AttendanceEvent, now time.Time) attendance.DayClassification {
	result := attendance.DayClassification{
		EmployeeID: employeeID,
		Date:       date,
	}

	facts := dayFacts{date: date}
	if event != nil && event.CheckIn != nil {
		facts.hasCheckIn = true
		facts.checkIn = clock.WallMinutes(date, *event.CheckIn, c.loc)
		if event.CheckOut != nil {
			facts.hasCheckOut = true
			facts.checkOut = clock.WallMinutes(date, *event.CheckOut, c.loc)
		}
		result.WorkedMinutes, result.BreakMinutes = Durations(*event, now)
	}

	for _, rule := range classificationRules {
		if rule.applies(c, facts) {
			result.Status = rule.status
			break
		}
	}

	switch result.Status {
	case attendance.StatusPresent, attendance.StatusLate, attendance.StatusHalfDay:
		result.Provisional = facts.hasCheckIn && !facts.hasCheckOut
	}

	return result
}
