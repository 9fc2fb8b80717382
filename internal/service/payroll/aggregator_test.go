package payroll

import (
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// January 2025 starts on a Wednesday and has Sundays on the 5th, 12th, 19th and 26th.

func TestAggregate_SundayExcludedFromAbsent(t *testing.T) {
	agg := Aggregate(MonthInput{
		EmployeeID: testEmployeeID,
		Month:      1,
		Year:       2025,
		Events:     fullMonth(testEmployeeID, 2025, 1, "2025-01-06", "2025-01-07"),
		Classifier: newTestClassifier(t),
		AsOf:       at("2025-02-01", "09:00"),
	})

	assert.Equal(t, 25, agg.Present)
	assert.Equal(t, 2, agg.Absent)
	assert.Equal(t, 4, agg.Sunday)
	assert.Equal(t, 0, agg.Upcoming)
	assert.Equal(t, 25, agg.PayableDays)
	assert.Equal(t, 25*540, agg.WorkedMinutes)
	require.Len(t, agg.Days, 31)
	assert.Equal(t, attendance.StatusSunday, agg.Days[4].Status)
}

func TestAggregate_HolidayCounted(t *testing.T) {
	classifier := newTestClassifier(t, clock.Holiday{Name: "New Year", Date: date("2025-01-01")})

	agg := Aggregate(MonthInput{
		EmployeeID: testEmployeeID,
		Month:      1,
		Year:       2025,
		Events:     fullMonth(testEmployeeID, 2025, 1, "2025-01-01"),
		Classifier: classifier,
		AsOf:       at("2025-02-01", "09:00"),
	})

	assert.Equal(t, 1, agg.Holiday)
	assert.Equal(t, 0, agg.Absent)
	assert.Equal(t, 26, agg.Present)
}

func TestAggregate_LeaveReplacesOnlyAbsence(t *testing.T) {
	events := []attendance.AttendanceEvent{
		workday(testEmployeeID, "2025-01-02", "10:00", "19:00"),
		workday(testEmployeeID, "2025-01-03", "10:20", "19:00"),
	}
	leaves := []leave.LeaveRecord{
		{EmployeeID: testEmployeeID, Date: date("2025-01-02"), Status: leave.LeaveStatusApproved, Type: leave.LeaveTypePaid},
		{EmployeeID: testEmployeeID, Date: date("2025-01-05"), Status: leave.LeaveStatusApproved, Type: leave.LeaveTypePaid},
		{EmployeeID: testEmployeeID, Date: date("2025-01-06"), Status: leave.LeaveStatusApproved, Type: leave.LeaveTypeSick},
		{EmployeeID: testEmployeeID, Date: date("2025-01-07"), Status: leave.LeaveStatusPending, Type: leave.LeaveTypeSick},
	}

	agg := Aggregate(MonthInput{
		EmployeeID: testEmployeeID,
		Month:      1,
		Year:       2025,
		Events:     events,
		Leaves:     leaves,
		Classifier: newTestClassifier(t),
		AsOf:       at("2025-01-07", "23:00"),
	})

	assert.Equal(t, 1, agg.Present)
	assert.Equal(t, 1, agg.Late)
	assert.Equal(t, 1, agg.Sunday)
	assert.Equal(t, 1, agg.Leave)
	assert.Equal(t, 3, agg.Absent) // 1st, 4th and 7th
	assert.Equal(t, 24, agg.Upcoming)
	assert.Equal(t, 3, agg.PayableDays)
	assert.Equal(t, map[leave.LeaveType]int{leave.LeaveTypeSick: 1}, agg.LeaveUsedByType)

	leaveDay := agg.Days[5]
	assert.Equal(t, payroll.DayStatusLeave, leaveDay.Status)
	require.NotNil(t, leaveDay.LeaveType)
	assert.Equal(t, leave.LeaveTypeSick, *leaveDay.LeaveType)
}

func TestAggregate_FutureDaysAreUpcoming(t *testing.T) {
	agg := Aggregate(MonthInput{
		EmployeeID: testEmployeeID,
		Month:      1,
		Year:       2025,
		Classifier: newTestClassifier(t),
		// 2025-01-10 06:00 in Jakarta is still the 9th in UTC.
		AsOf: at("2025-01-10", "06:00"),
	})

	assert.Equal(t, 21, agg.Upcoming)
	assert.Equal(t, 1, agg.Sunday)
	assert.Equal(t, 9, agg.Absent)
	assert.Equal(t, payroll.DayStatusUpcoming, agg.Days[10].Status)
}

func TestAggregate_OpenDayIsProvisional(t *testing.T) {
	agg := Aggregate(MonthInput{
		EmployeeID: testEmployeeID,
		Month:      1,
		Year:       2025,
		Events:     []attendance.AttendanceEvent{workday(testEmployeeID, "2025-01-02", "10:00", "")},
		Classifier: newTestClassifier(t),
		AsOf:       at("2025-01-02", "12:00"),
	})

	day := agg.Days[1]
	assert.Equal(t, attendance.StatusPresent, day.Status)
	assert.True(t, day.Provisional)
	assert.Equal(t, 120, day.WorkedMinutes)
}
