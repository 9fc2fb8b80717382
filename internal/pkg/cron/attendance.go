package cron

import (
	"context"
	"log/slog"
	"time"
)

// AutoCheckouter closes sessions left open past each company's auto-checkout time.
type AutoCheckouter interface {
	AutoCheckout(ctx context.Context) (int, error)
}

type AttendanceJobs struct {
	attendanceService AutoCheckouter
	interval          time.Duration
}

func NewAttendanceJobs(attendanceService AutoCheckouter, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		interval:          interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_checkout_open_sessions", j.interval, j.AutoCheckoutOpenSessions)
}

// AutoCheckoutOpenSessions is idempotent: sessions already closed are skipped.
func (j *AttendanceJobs) AutoCheckoutOpenSessions(ctx context.Context) error {
	closed, err := j.attendanceService.AutoCheckout(ctx)
	if err != nil {
		return err
	}

	if closed > 0 {
		slog.Info("Cron: auto-checkout closed open sessions", "count", closed)
	}
	return nil
}
