package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// RecordCheckIn opens the employee's working day
	RecordCheckIn(ctx context.Context, req RecordRequest) (DayState, error)

	// RecordCheckOut closes the working day, ending any open break
	RecordCheckOut(ctx context.Context, req RecordRequest) (DayState, error)

	// RecordBreakStart starts a break while checked in
	RecordBreakStart(ctx context.Context, req RecordRequest) (DayState, error)

	// RecordBreakEnd ends the open break
	RecordBreakEnd(ctx context.Context, req RecordRequest) (DayState, error)

	// GetDayState returns the current state machine snapshot for a day
	GetDayState(ctx context.Context, req ClassifyDayRequest) (DayState, error)

	// ClassifyDay recomputes the classification of one employee-day
	ClassifyDay(ctx context.Context, req ClassifyDayRequest) (DayClassification, error)

	// GetConfig returns the active attendance configuration
	GetConfig(ctx context.Context, companyID string) (AttendanceConfig, error)

	// UpdateConfig validates and replaces the active configuration
	UpdateConfig(ctx context.Context, req UpdateAttendanceConfigRequest) (AttendanceConfig, error)

	// AutoCheckout closes open sessions whose auto-checkout time has passed
	AutoCheckout(ctx context.Context) (int, error)
}
