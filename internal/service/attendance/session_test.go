package attendance

import (
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_FullDay(t *testing.T) {
	var e attendance.AttendanceEvent
	assert.Equal(t, attendance.PhaseNotCheckedIn, PhaseOf(e))

	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))
	assert.Equal(t, attendance.PhaseCheckedIn, PhaseOf(e))

	require.NoError(t, StartBreak(&e, at("2024-03-11", "13:00")))
	assert.Equal(t, attendance.PhaseOnBreak, PhaseOf(e))

	require.NoError(t, EndBreak(&e, at("2024-03-11", "13:45")))
	assert.Equal(t, attendance.PhaseCheckedIn, PhaseOf(e))

	require.NoError(t, CheckOut(&e, at("2024-03-11", "19:00")))
	assert.Equal(t, attendance.PhaseCheckedOut, PhaseOf(e))

	worked, breaks := Durations(e, at("2024-03-12", "09:00"))
	assert.Equal(t, 9*60-45, worked)
	assert.Equal(t, 45, breaks)
}

func TestSession_EndBreakWithoutStart(t *testing.T) {
	var e attendance.AttendanceEvent
	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))

	err := EndBreak(&e, at("2024-03-11", "12:00"))
	assert.ErrorIs(t, err, attendance.ErrNoActiveBreak)
	assert.Empty(t, e.Breaks)
}

func TestSession_InvalidTransitions(t *testing.T) {
	var e attendance.AttendanceEvent

	assert.ErrorIs(t, StartBreak(&e, at("2024-03-11", "09:00")), attendance.ErrNoActiveSession)
	assert.ErrorIs(t, EndBreak(&e, at("2024-03-11", "09:00")), attendance.ErrNoActiveBreak)
	assert.ErrorIs(t, CheckOut(&e, at("2024-03-11", "09:00")), attendance.ErrNoActiveSession)

	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))
	assert.ErrorIs(t, CheckIn(&e, at("2024-03-11", "10:05")), attendance.ErrAlreadyCheckedIn)

	require.NoError(t, StartBreak(&e, at("2024-03-11", "12:00")))
	assert.ErrorIs(t, StartBreak(&e, at("2024-03-11", "12:10")), attendance.ErrBreakAlreadyActive)

	require.NoError(t, CheckOut(&e, at("2024-03-11", "18:00")))
	assert.ErrorIs(t, CheckIn(&e, at("2024-03-11", "18:05")), attendance.ErrAlreadyCheckedIn)
	assert.ErrorIs(t, StartBreak(&e, at("2024-03-11", "18:05")), attendance.ErrAlreadyCheckedOut)
	assert.ErrorIs(t, EndBreak(&e, at("2024-03-11", "18:05")), attendance.ErrNoActiveBreak)
	assert.ErrorIs(t, CheckOut(&e, at("2024-03-11", "18:05")), attendance.ErrAlreadyCheckedOut)
}

func TestSession_CheckOutClosesOpenBreak(t *testing.T) {
	var e attendance.AttendanceEvent
	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))
	require.NoError(t, StartBreak(&e, at("2024-03-11", "17:00")))
	require.NoError(t, CheckOut(&e, at("2024-03-11", "18:00")))

	require.Len(t, e.Breaks, 1)
	require.NotNil(t, e.Breaks[0].End)
	assert.True(t, e.Breaks[0].End.Equal(*e.CheckOut))

	worked, breaks := Durations(e, at("2024-03-11", "23:00"))
	assert.Equal(t, 7*60, worked)
	assert.Equal(t, 60, breaks)
}

func TestDurations_OpenDayRunsUntilNow(t *testing.T) {
	var e attendance.AttendanceEvent
	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))
	require.NoError(t, StartBreak(&e, at("2024-03-11", "12:00")))

	worked, breaks := Durations(e, at("2024-03-11", "12:30"))
	assert.Equal(t, 120, worked)
	assert.Equal(t, 30, breaks)
}

func TestDurations_ClampedAtZero(t *testing.T) {
	var e attendance.AttendanceEvent
	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))

	// A clock that reads earlier than the check-in must not yield negative work.
	worked, _ := Durations(e, at("2024-03-11", "09:00"))
	assert.Equal(t, 0, worked)
}

func TestSnapshot(t *testing.T) {
	e := attendance.AttendanceEvent{EmployeeID: testEmployeeID}
	require.NoError(t, CheckIn(&e, at("2024-03-11", "10:00")))

	state := Snapshot(e, at("2024-03-11", "11:00"))
	assert.Equal(t, attendance.PhaseCheckedIn, state.Phase)
	assert.Equal(t, 60, state.WorkedMinutes)
	assert.Equal(t, testEmployeeID, state.EmployeeID)
}
