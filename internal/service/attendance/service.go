package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/dependency"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	configRepo     attendance.ConfigRepository
	holidayRepo    attendance.HolidayRepository
	locker         keylock.Locker
	timeout        time.Duration
	now            func() time.Time
}

// transition is one break state machine step applied to a loaded event.
type transition func(e *attendance.AttendanceEvent, now time.Time) error

// LockKey names the single-writer lock of one employee-day.
func LockKey(employeeID string, date clock.DateKey) string {
	return fmt.Sprintf("attendance:%s:%s", employeeID, date)
}

// RecordCheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordCheckIn(ctx context.Context, req attendance.RecordRequest) (attendance.DayState, error) {
	return s.record(ctx, req, CheckIn)
}

// RecordCheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordCheckOut(ctx context.Context, req attendance.RecordRequest) (attendance.DayState, error) {
	return s.record(ctx, req, CheckOut)
}

// RecordBreakStart implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordBreakStart(ctx context.Context, req attendance.RecordRequest) (attendance.DayState, error) {
	return s.record(ctx, req, StartBreak)
}

// RecordBreakEnd implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordBreakEnd(ctx context.Context, req attendance.RecordRequest) (attendance.DayState, error) {
	return s.record(ctx, req, EndBreak)
}

// record runs load, transition and save under the employee-day lock so a
// concurrent second check-in observes the first one and fails.
func (s *AttendanceServiceImpl) record(ctx context.Context, req attendance.RecordRequest, apply transition) (attendance.DayState, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayState{}, err
	}

	config, err := s.GetConfig(ctx, req.CompanyID)
	if err != nil {
		return attendance.DayState{}, err
	}

	now := s.now()
	date, err := workDate(req, clock.LocalDateKey(now, config.Location()))
	if err != nil {
		return attendance.DayState{}, err
	}

	unlock, err := dependency.Fetch(ctx, s.timeout, "attendance lock", func(ctx context.Context) (func(), error) {
		return s.locker.Lock(ctx, LockKey(req.EmployeeID, date))
	})
	if err != nil {
		return attendance.DayState{}, err
	}
	defer unlock()

	event, err := s.loadEvent(ctx, req.CompanyID, req.EmployeeID, date)
	if err != nil {
		return attendance.DayState{}, err
	}

	if err := apply(&event, now); err != nil {
		return attendance.DayState{}, err
	}

	saved, err := dependency.Fetch(ctx, s.timeout, "save attendance", func(ctx context.Context) (attendance.AttendanceEvent, error) {
		return s.attendanceRepo.Save(ctx, event)
	})
	if err != nil {
		return attendance.DayState{}, fmt.Errorf("failed to save attendance: %w", err)
	}

	return Snapshot(saved, now), nil
}

// workDate resolves the day a transition applies to. Transitions are stamped
// with the current instant, so only today is accepted unless the caller may
// close out an earlier day.
func workDate(req attendance.RecordRequest, today clock.DateKey) (clock.DateKey, error) {
	if req.Date == nil || *req.Date == "" {
		return today, nil
	}

	date, err := clock.ParseDateKey(*req.Date)
	if err != nil {
		return clock.DateKey{}, err
	}

	switch {
	case date == today:
		return date, nil
	case date.After(today):
		return clock.DateKey{}, validator.ValidationErrors{{Field: "date", Message: "date cannot be in the future"}}
	case !req.AllowPastDate:
		return clock.DateKey{}, validator.ValidationErrors{{Field: "date", Message: "date must be today"}}
	}
	return date, nil
}

// loadEvent returns the stored event or an empty one for the day.
func (s *AttendanceServiceImpl) loadEvent(ctx context.Context, companyID, employeeID string, date clock.DateKey) (attendance.AttendanceEvent, error) {
	event, err := dependency.Fetch(ctx, s.timeout, "get attendance", func(ctx context.Context) (*attendance.AttendanceEvent, error) {
		return s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	})
	if err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if event == nil {
		return attendance.AttendanceEvent{
			CompanyID:  companyID,
			EmployeeID: employeeID,
			Date:       date,
		}, nil
	}
	return *event, nil
}

// GetDayState implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDayState(ctx context.Context, req attendance.ClassifyDayRequest) (attendance.DayState, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayState{}, err
	}
	date, err := clock.ParseDateKey(req.Date)
	if err != nil {
		return attendance.DayState{}, err
	}

	event, err := s.loadEvent(ctx, req.CompanyID, req.EmployeeID, date)
	if err != nil {
		return attendance.DayState{}, err
	}

	return Snapshot(event, s.now()), nil
}

// ClassifyDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClassifyDay(ctx context.Context, req attendance.ClassifyDayRequest) (attendance.DayClassification, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayClassification{}, err
	}
	date, err := clock.ParseDateKey(req.Date)
	if err != nil {
		return attendance.DayClassification{}, err
	}

	classifier, err := s.NewClassifier(ctx, req.CompanyID)
	if err != nil {
		return attendance.DayClassification{}, err
	}

	event, err := dependency.Fetch(ctx, s.timeout, "get attendance", func(ctx context.Context) (*attendance.AttendanceEvent, error) {
		return s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date, req.CompanyID)
	})
	if err != nil {
		return attendance.DayClassification{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return classifier.Classify(req.EmployeeID, date, event, s.now()), nil
}

// NewClassifier builds a classifier from the company's active config and holiday calendar.
func (s *AttendanceServiceImpl) NewClassifier(ctx context.Context, companyID string) (*Classifier, error) {
	config, err := s.GetConfig(ctx, companyID)
	if err != nil {
		return nil, err
	}

	holidays, err := dependency.Fetch(ctx, s.timeout, "list holidays", func(ctx context.Context) ([]clock.Holiday, error) {
		return s.holidayRepo.ListHolidays(ctx, companyID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	return NewClassifier(config, clock.NewHolidayCalendar(holidays))
}

// GetConfig implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetConfig(ctx context.Context, companyID string) (attendance.AttendanceConfig, error) {
	config, err := dependency.Fetch(ctx, s.timeout, "get attendance config", func(ctx context.Context) (attendance.AttendanceConfig, error) {
		return s.configRepo.GetConfig(ctx, companyID)
	})
	if err != nil {
		if errors.Is(err, attendance.ErrConfigNotFound) {
			return attendance.AttendanceConfig{}, attendance.ErrConfigNotFound
		}
		return attendance.AttendanceConfig{}, fmt.Errorf("failed to get attendance config: %w", err)
	}
	return config, nil
}

// UpdateConfig implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateConfig(ctx context.Context, req attendance.UpdateAttendanceConfigRequest) (attendance.AttendanceConfig, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceConfig{}, errors.Join(attendance.ErrInvalidConfig, err)
	}

	saved, err := dependency.Fetch(ctx, s.timeout, "save attendance config", func(ctx context.Context) (attendance.AttendanceConfig, error) {
		return s.configRepo.UpsertConfig(ctx, req.ToConfig())
	})
	if err != nil {
		return attendance.AttendanceConfig{}, fmt.Errorf("failed to save attendance config: %w", err)
	}

	slog.Info("Attendance config updated", "company_id", saved.CompanyID, "version", saved.Version)
	return saved, nil
}

// AutoCheckout implements attendance.AttendanceService.
// Sessions still open at the company's auto-checkout time are closed at that
// time, or at check-in when the employee arrived later than it.
func (s *AttendanceServiceImpl) AutoCheckout(ctx context.Context) (int, error) {
	companyIDs, err := dependency.Fetch(ctx, s.timeout, "list companies", s.configRepo.ListCompanyIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to list companies: %w", err)
	}

	now := s.now()
	closed := 0
	var errs []error

	for _, companyID := range companyIDs {
		n, err := s.autoCheckoutCompany(ctx, companyID, now)
		closed += n
		if err != nil {
			slog.Warn("Auto checkout failed", "company_id", companyID, "error", err)
			errs = append(errs, err)
		}
	}

	return closed, errors.Join(errs...)
}

func (s *AttendanceServiceImpl) autoCheckoutCompany(ctx context.Context, companyID string, now time.Time) (int, error) {
	config, err := s.GetConfig(ctx, companyID)
	if err != nil {
		return 0, err
	}
	cutoff, err := clock.ToMinutes(config.AutoCheckoutTime)
	if err != nil {
		return 0, fmt.Errorf("%w: auto_checkout_time: %v", attendance.ErrInvalidConfig, err)
	}
	loc := config.Location()

	open, err := dependency.Fetch(ctx, s.timeout, "list open sessions", func(ctx context.Context) ([]attendance.AttendanceEvent, error) {
		return s.attendanceRepo.ListOpenSessions(ctx, companyID, clock.LocalDateKey(now, loc))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}

	closed := 0
	var errs []error
	for _, candidate := range open {
		closeAt := candidate.Date.At(cutoff, loc)
		if closeAt.After(now) {
			continue
		}

		ok, err := s.closeSession(ctx, candidate, closeAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("employee %s on %s: %w", candidate.EmployeeID, candidate.Date, err))
			continue
		}
		if ok {
			closed++
		}
	}

	return closed, errors.Join(errs...)
}

// closeSession re-reads the event under lock; a manual checkout that raced
// the job wins and the event is left untouched.
func (s *AttendanceServiceImpl) closeSession(ctx context.Context, candidate attendance.AttendanceEvent, closeAt time.Time) (bool, error) {
	unlock, err := dependency.Fetch(ctx, s.timeout, "attendance lock", func(ctx context.Context) (func(), error) {
		return s.locker.Lock(ctx, LockKey(candidate.EmployeeID, candidate.Date))
	})
	if err != nil {
		return false, err
	}
	defer unlock()

	event, err := s.loadEvent(ctx, candidate.CompanyID, candidate.EmployeeID, candidate.Date)
	if err != nil {
		return false, err
	}
	if PhaseOf(event) == attendance.PhaseNotCheckedIn || PhaseOf(event) == attendance.PhaseCheckedOut {
		return false, nil
	}

	if event.CheckIn.After(closeAt) {
		closeAt = *event.CheckIn
	}
	if err := CheckOut(&event, closeAt); err != nil {
		return false, err
	}
	event.AutoClosed = true

	if _, err := dependency.Fetch(ctx, s.timeout, "save attendance", func(ctx context.Context) (attendance.AttendanceEvent, error) {
		return s.attendanceRepo.Save(ctx, event)
	}); err != nil {
		return false, fmt.Errorf("failed to save attendance: %w", err)
	}
	return true, nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	configRepo attendance.ConfigRepository,
	holidayRepo attendance.HolidayRepository,
	locker keylock.Locker,
	timeout time.Duration,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		configRepo:     configRepo,
		holidayRepo:    holidayRepo,
		locker:         locker,
		timeout:        timeout,
		now:            time.Now,
	}
}
