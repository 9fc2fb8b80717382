package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAutoCheckouter struct {
	calls  atomic.Int32
	closed int
	err    error
}

func (f *fakeAutoCheckouter) AutoCheckout(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.closed, f.err
}

func TestAttendanceJobs_AutoCheckoutOpenSessions(t *testing.T) {
	svc := &fakeAutoCheckouter{closed: 3}
	jobs := NewAttendanceJobs(svc, time.Minute)

	err := jobs.AutoCheckoutOpenSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestAttendanceJobs_PropagatesError(t *testing.T) {
	svc := &fakeAutoCheckouter{err: errors.New("db down")}
	jobs := NewAttendanceJobs(svc, time.Minute)

	err := jobs.AutoCheckoutOpenSessions(context.Background())

	assert.EqualError(t, err, "db down")
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &fakeAutoCheckouter{}
	scheduler := NewScheduler()
	NewAttendanceJobs(svc, time.Minute).RegisterJobs(scheduler)

	scheduler.RunOnce(context.Background())

	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	svc := &fakeAutoCheckouter{}
	scheduler := NewScheduler()
	NewAttendanceJobs(svc, time.Hour).RegisterJobs(scheduler)

	scheduler.Start()
	assert.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	scheduler.Stop()
}

func TestScheduler_RecoversPanickingJob(t *testing.T) {
	scheduler := NewScheduler()
	var ran atomic.Bool
	scheduler.AddJob("panics", time.Hour, func(ctx context.Context) error {
		ran.Store(true)
		panic("boom")
	})

	scheduler.Start()
	assert.Eventually(t, ran.Load, time.Second, 10*time.Millisecond)
	scheduler.Stop()
}
