package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
)

// PhaseOf derives the break state machine phase from the recorded timestamps.
func PhaseOf(e attendance.AttendanceEvent) attendance.Phase {
	switch {
	case e.CheckIn == nil:
		return attendance.PhaseNotCheckedIn
	case e.CheckOut != nil:
		return attendance.PhaseCheckedOut
	case openBreak(e) != nil:
		return attendance.PhaseOnBreak
	default:
		return attendance.PhaseCheckedIn
	}
}

func openBreak(e attendance.AttendanceEvent) *attendance.Break {
	if len(e.Breaks) == 0 {
		return nil
	}
	last := &e.Breaks[len(e.Breaks)-1]
	if last.End != nil {
		return nil
	}
	return last
}

// CheckIn opens the day. Allowed only before any check-in.
func CheckIn(e *attendance.AttendanceEvent, now time.Time) error {
	if PhaseOf(*e) != attendance.PhaseNotCheckedIn {
		return attendance.ErrAlreadyCheckedIn
	}
	at := now.UTC()
	e.CheckIn = &at
	return nil
}

// StartBreak appends an open break. Allowed only while checked in.
func StartBreak(e *attendance.AttendanceEvent, now time.Time) error {
	switch PhaseOf(*e) {
	case attendance.PhaseNotCheckedIn:
		return attendance.ErrNoActiveSession
	case attendance.PhaseOnBreak:
		return attendance.ErrBreakAlreadyActive
	case attendance.PhaseCheckedOut:
		return attendance.ErrAlreadyCheckedOut
	}
	e.Breaks = append(e.Breaks, attendance.Break{Start: now.UTC()})
	return nil
}

// EndBreak closes the open break. Allowed only while on break.
func EndBreak(e *attendance.AttendanceEvent, now time.Time) error {
	if PhaseOf(*e) != attendance.PhaseOnBreak {
		return attendance.ErrNoActiveBreak
	}
	at := now.UTC()
	e.Breaks[len(e.Breaks)-1].End = &at
	return nil
}

// CheckOut closes the day, ending an open break at the same instant.
// The day accepts no further transitions afterwards.
func CheckOut(e *attendance.AttendanceEvent, now time.Time) error {
	switch PhaseOf(*e) {
	case attendance.PhaseNotCheckedIn:
		return attendance.ErrNoActiveSession
	case attendance.PhaseCheckedOut:
		return attendance.ErrAlreadyCheckedOut
	case attendance.PhaseOnBreak:
		at := now.UTC()
		e.Breaks[len(e.Breaks)-1].End = &at
	}
	at := now.UTC()
	e.CheckOut = &at
	return nil
}

// Durations returns worked and break minutes as of now. An open day runs
// until now, as does an open break. Worked time never goes below zero.
func Durations(e attendance.AttendanceEvent, now time.Time) (worked int, breaks int) {
	if e.CheckIn == nil {
		return 0, 0
	}

	end := now
	if e.CheckOut != nil {
		end = *e.CheckOut
	}

	var breakTotal time.Duration
	for _, b := range e.Breaks {
		bEnd := end
		if b.End != nil {
			bEnd = *b.End
		}
		if d := bEnd.Sub(b.Start); d > 0 {
			breakTotal += d
		}
	}

	workedTotal := end.Sub(*e.CheckIn) - breakTotal
	if workedTotal < 0 {
		workedTotal = 0
	}

	return int(workedTotal / time.Minute), int(breakTotal / time.Minute)
}

// Snapshot reports the state machine view of an event.
func Snapshot(e attendance.AttendanceEvent, now time.Time) attendance.DayState {
	worked, breaks := Durations(e, now)
	return attendance.DayState{
		EmployeeID:    e.EmployeeID,
		Date:          e.Date,
		Phase:         PhaseOf(e),
		CheckIn:       e.CheckIn,
		CheckOut:      e.CheckOut,
		Breaks:        e.Breaks,
		WorkedMinutes: worked,
		BreakMinutes:  breaks,
	}
}
