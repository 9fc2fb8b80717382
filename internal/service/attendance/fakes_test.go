package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/keylock"
)

const (
	testCompanyID  = "company-1"
	testEmployeeID = "employee-1"
)

func testConfig() attendance.AttendanceConfig {
	return attendance.AttendanceConfig{
		CompanyID:             testCompanyID,
		Version:               1,
		Timezone:              "Asia/Jakarta",
		OfficeStartTime:       "10:00",
		OfficeEndTime:         "19:00",
		LateGraceMinutes:      15,
		HalfDayLoginCutoff:    "11:00",
		HalfDayCheckoutCutoff: "15:00",
		AutoCheckoutTime:      "21:00",
	}
}

var jakarta = clock.LoadLocation("Asia/Jakarta")

// at returns the instant of local HH:MM on date in Jakarta.
func at(date string, hhmm string) time.Time {
	d, err := clock.ParseDateKey(date)
	if err != nil {
		panic(err)
	}
	m, err := clock.ToMinutes(hhmm)
	if err != nil {
		panic(err)
	}
	return d.At(m, jakarta)
}

type memoryAttendanceRepo struct {
	mu     sync.Mutex
	events map[string]attendance.AttendanceEvent
	saves  int
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{events: make(map[string]attendance.AttendanceEvent)}
}

func eventKey(employeeID string, date clock.DateKey) string {
	return employeeID + "|" + date.String()
}

func (r *memoryAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date clock.DateKey, companyID string) (*attendance.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventKey(employeeID, date)]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	e.Breaks = append([]attendance.Break(nil), e.Breaks...)
	return &e, nil
}

func (r *memoryAttendanceRepo) ListByEmployee(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]attendance.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.AttendanceEvent
	for _, e := range r.events {
		if e.EmployeeID == employeeID && e.CompanyID == companyID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memoryAttendanceRepo) Save(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = eventKey(event.EmployeeID, event.Date)
	}
	r.events[eventKey(event.EmployeeID, event.Date)] = event
	r.saves++
	return event, nil
}

func (r *memoryAttendanceRepo) ListOpenSessions(ctx context.Context, companyID string, date clock.DateKey) ([]attendance.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.AttendanceEvent
	for _, e := range r.events {
		if e.CompanyID == companyID && e.CheckIn != nil && e.CheckOut == nil && !e.Date.After(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memoryConfigRepo struct {
	mu      sync.Mutex
	configs map[string]attendance.AttendanceConfig
	err     error
}

func newMemoryConfigRepo(configs ...attendance.AttendanceConfig) *memoryConfigRepo {
	r := &memoryConfigRepo{configs: make(map[string]attendance.AttendanceConfig)}
	for _, c := range configs {
		r.configs[c.CompanyID] = c
	}
	return r
}

func (r *memoryConfigRepo) GetConfig(ctx context.Context, companyID string) (attendance.AttendanceConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return attendance.AttendanceConfig{}, r.err
	}
	c, ok := r.configs[companyID]
	if !ok {
		return attendance.AttendanceConfig{}, attendance.ErrConfigNotFound
	}
	return c, nil
}

func (r *memoryConfigRepo) UpsertConfig(ctx context.Context, config attendance.AttendanceConfig) (attendance.AttendanceConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	config.Version = r.configs[config.CompanyID].Version + 1
	r.configs[config.CompanyID] = config
	return config, nil
}

func (r *memoryConfigRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryHolidayRepo struct {
	holidays []clock.Holiday
}

func (r *memoryHolidayRepo) ListHolidays(ctx context.Context, companyID string) ([]clock.Holiday, error) {
	return r.holidays, nil
}

type testEnv struct {
	svc      *AttendanceServiceImpl
	events   *memoryAttendanceRepo
	configs  *memoryConfigRepo
	holidays *memoryHolidayRepo
	now      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		events:   newMemoryAttendanceRepo(),
		configs:  newMemoryConfigRepo(testConfig()),
		holidays: &memoryHolidayRepo{},
	}
	env.svc = NewAttendanceService(env.events, env.configs, env.holidays, keylock.NewMemoryLocker(), time.Second)
	env.svc.now = func() time.Time { return env.now }
	return env
}
