package attendance

import "errors"

// Attendance domain errors
var (
	// State transition errors
	ErrAlreadyCheckedIn   = errors.New("you have already checked in today")
	ErrNoActiveSession    = errors.New("you have not checked in yet")
	ErrBreakAlreadyActive = errors.New("a break is already in progress")
	ErrNoActiveBreak      = errors.New("no break is in progress")
	ErrAlreadyCheckedOut  = errors.New("you have already checked out")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid attendance configuration")
	ErrConfigNotFound = errors.New("attendance configuration not found")
)
