package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	attendancesvc "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
)

// MonthInput is everything needed to aggregate one employee-month.
type MonthInput struct {
	EmployeeID string
	Month      int
	Year       int
	Events     []attendance.AttendanceEvent
	Leaves     []leave.LeaveRecord
	Classifier *attendancesvc.Classifier
	// AsOf is the computation instant; days after its local date are Upcoming.
	AsOf time.Time
}

// Aggregate folds the month's day classifications and approved leave into counts.
func Aggregate(in MonthInput) payroll.MonthlyAggregate {
	agg := payroll.MonthlyAggregate{
		EmployeeID:      in.EmployeeID,
		Month:           in.Month,
		Year:            in.Year,
		LeaveUsedByType: make(map[leave.LeaveType]int),
	}

	events := make(map[clock.DateKey]*attendance.AttendanceEvent, len(in.Events))
	for i := range in.Events {
		events[in.Events[i].Date] = &in.Events[i]
	}

	leaves := make(map[clock.DateKey]leave.LeaveType, len(in.Leaves))
	for _, l := range in.Leaves {
		if !l.IsApproved() {
			continue
		}
		if _, dup := leaves[l.Date]; !dup {
			leaves[l.Date] = l.Type
		}
	}

	today := clock.LocalDateKey(in.AsOf, in.Classifier.Location())

	for _, date := range clock.MonthDays(in.Year, time.Month(in.Month)) {
		if date.After(today) {
			agg.Upcoming++
			agg.Days = append(agg.Days, payroll.AggregateDay{Date: date, Status: payroll.DayStatusUpcoming})
			continue
		}

		c := in.Classifier.Classify(in.EmployeeID, date, events[date], in.AsOf)
		day := payroll.AggregateDay{
			Date:          date,
			Status:        c.Status,
			WorkedMinutes: c.WorkedMinutes,
			BreakMinutes:  c.BreakMinutes,
			Provisional:   c.Provisional,
		}

		// Approved leave replaces an absence and nothing else.
		if leaveType, ok := leaves[date]; ok && c.Status == attendance.StatusAbsent {
			lt := leaveType
			day.Status = payroll.DayStatusLeave
			day.LeaveType = &lt
			agg.LeaveUsedByType[leaveType]++
		}

		switch day.Status {
		case attendance.StatusPresent:
			agg.Present++
		case attendance.StatusLate:
			agg.Late++
		case attendance.StatusHalfDay:
			agg.HalfDay++
		case attendance.StatusEarlyCheckout:
			agg.EarlyCheckout++
		case attendance.StatusAbsent:
			agg.Absent++
		case attendance.StatusSunday:
			agg.Sunday++
		case attendance.StatusHoliday:
			agg.Holiday++
		case payroll.DayStatusLeave:
			agg.Leave++
		}
		agg.WorkedMinutes += day.WorkedMinutes
		agg.Days = append(agg.Days, day)
	}

	agg.PayableDays = agg.Present + agg.Late + agg.HalfDay + agg.EarlyCheckout + agg.Leave
	return agg
}
