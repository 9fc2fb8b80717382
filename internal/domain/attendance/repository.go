package attendance

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

// AttendanceRepository defines data access methods for raw attendance events.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil when the employee has no event that day
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date clock.DateKey, companyID string) (*AttendanceEvent, error)

	// ListByEmployee returns events in [from, to] ordered by date
	ListByEmployee(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]AttendanceEvent, error)

	// Save inserts or replaces the event and its breaks
	Save(ctx context.Context, event AttendanceEvent) (AttendanceEvent, error)

	// ListOpenSessions returns checked-in events without a checkout on or before date
	ListOpenSessions(ctx context.Context, companyID string, date clock.DateKey) ([]AttendanceEvent, error)
}

// ConfigRepository stores the single active AttendanceConfig per company.
type ConfigRepository interface {
	GetConfig(ctx context.Context, companyID string) (AttendanceConfig, error)
	UpsertConfig(ctx context.Context, config AttendanceConfig) (AttendanceConfig, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

// HolidayRepository reads the company holiday calendar.
type HolidayRepository interface {
	ListHolidays(ctx context.Context, companyID string) ([]clock.Holiday, error)
}
