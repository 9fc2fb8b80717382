package payroll

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	attendancesvc "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID  = "company-1"
	testEmployeeID = "employee-1"
)

var jakarta = clock.LoadLocation("Asia/Jakarta")

func testConfig() attendance.AttendanceConfig {
	return attendance.AttendanceConfig{
		CompanyID:             testCompanyID,
		Version:               3,
		Timezone:              "Asia/Jakarta",
		OfficeStartTime:       "10:00",
		OfficeEndTime:         "19:00",
		LateGraceMinutes:      15,
		HalfDayLoginCutoff:    "11:00",
		HalfDayCheckoutCutoff: "15:00",
		AutoCheckoutTime:      "21:00",
	}
}

func testRule() payroll.PayrollRule {
	return payroll.PayrollRule{
		CompanyID:               testCompanyID,
		Version:                 1,
		BaseSalaryType:          payroll.BaseSalaryFixed,
		PayDays:                 30,
		AbsentDeductionType:     payroll.AbsentDeductionFullDay,
		HalfDayDeductionPercent: decimal.NewFromInt(50),
		PaidLeave:               payroll.LeavePolicy{Type: payroll.LeavePayPaid, MonthlyQuota: 2},
		SickLeave:               payroll.LeavePolicy{Type: payroll.LeavePayHalfPaid, MonthlyQuota: 1},
		CasualLeave:             payroll.LeavePolicy{Type: payroll.LeavePayUnpaid},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) clock.DateKey {
	d, err := clock.ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return d
}

// at returns the instant of local HH:MM on day in Jakarta.
func at(day string, hhmm string) time.Time {
	m, err := clock.ToMinutes(hhmm)
	if err != nil {
		panic(err)
	}
	return date(day).At(m, jakarta)
}

func workday(employeeID, day, in, out string) attendance.AttendanceEvent {
	checkIn := at(day, in).UTC()
	e := attendance.AttendanceEvent{
		CompanyID:  testCompanyID,
		EmployeeID: employeeID,
		Date:       date(day),
		CheckIn:    &checkIn,
	}
	if out != "" {
		checkOut := at(day, out).UTC()
		e.CheckOut = &checkOut
	}
	return e
}

// fullMonth returns a regular 10:00-19:00 day for every non-Sunday date of
// the month except the skipped ones.
func fullMonth(employeeID string, year int, month time.Month, skip ...string) []attendance.AttendanceEvent {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	var events []attendance.AttendanceEvent
	for _, d := range clock.MonthDays(year, month) {
		if clock.IsSunday(d) || skipped[d.String()] {
			continue
		}
		events = append(events, workday(employeeID, d.String(), "10:00", "19:00"))
	}
	return events
}

func newTestClassifier(t *testing.T, holidays ...clock.Holiday) *attendancesvc.Classifier {
	t.Helper()
	c, err := attendancesvc.NewClassifier(testConfig(), clock.NewHolidayCalendar(holidays))
	require.NoError(t, err)
	return c
}

type staticClassifiers struct {
	classifier *attendancesvc.Classifier
	err        error
}

func (s *staticClassifiers) NewClassifier(ctx context.Context, companyID string) (*attendancesvc.Classifier, error) {
	return s.classifier, s.err
}

type memoryAttendanceRepo struct {
	events []attendance.AttendanceEvent
	err    error
}

func (r *memoryAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, d clock.DateKey, companyID string) (*attendance.AttendanceEvent, error) {
	for _, e := range r.events {
		if e.EmployeeID == employeeID && e.Date == d && e.CompanyID == companyID {
			return &e, nil
		}
	}
	return nil, r.err
}

func (r *memoryAttendanceRepo) ListByEmployee(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]attendance.AttendanceEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []attendance.AttendanceEvent
	for _, e := range r.events {
		if e.EmployeeID == employeeID && e.CompanyID == companyID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryAttendanceRepo) Save(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	r.events = append(r.events, event)
	return event, nil
}

func (r *memoryAttendanceRepo) ListOpenSessions(ctx context.Context, companyID string, d clock.DateKey) ([]attendance.AttendanceEvent, error) {
	return nil, nil
}

type memoryLeaveRepo struct {
	records []leave.LeaveRecord
}

func (r *memoryLeaveRepo) GetApprovedLeaves(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]leave.LeaveRecord, error) {
	var out []leave.LeaveRecord
	for _, l := range r.records {
		if l.EmployeeID == employeeID && l.IsApproved() && !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

type memoryPayrollRepo struct {
	mu        sync.Mutex
	rules     map[string]payroll.PayrollRule
	comps     map[string]payroll.EmployeeCompensation
	employees []string
}

func newMemoryPayrollRepo() *memoryPayrollRepo {
	return &memoryPayrollRepo{
		rules: map[string]payroll.PayrollRule{testCompanyID: testRule()},
		comps: map[string]payroll.EmployeeCompensation{
			testEmployeeID: {EmployeeID: testEmployeeID, CompanyID: testCompanyID, BaseAmount: dec("30000")},
		},
		employees: []string{testEmployeeID},
	}
}

func (r *memoryPayrollRepo) GetRule(ctx context.Context, companyID string) (payroll.PayrollRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[companyID]
	if !ok {
		return payroll.PayrollRule{}, payroll.ErrPayrollRuleNotFound
	}
	return rule, nil
}

func (r *memoryPayrollRepo) UpsertRule(ctx context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.Version = r.rules[rule.CompanyID].Version + 1
	r.rules[rule.CompanyID] = rule
	return rule, nil
}

func (r *memoryPayrollRepo) GetCompensation(ctx context.Context, employeeID string, companyID string) (payroll.EmployeeCompensation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comp, ok := r.comps[employeeID]
	if !ok || comp.CompanyID != companyID {
		return payroll.EmployeeCompensation{}, payroll.ErrCompensationNotFound
	}
	return comp, nil
}

func (r *memoryPayrollRepo) ListActiveEmployeeIDs(ctx context.Context, companyID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.employees...), nil
}

type memorySlipRepo struct {
	mu    sync.Mutex
	slips map[string]payroll.SalarySlip
}

func newMemorySlipRepo() *memorySlipRepo {
	return &memorySlipRepo{slips: make(map[string]payroll.SalarySlip)}
}

func (r *memorySlipRepo) CreateSlip(ctx context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slips[slip.ID]; ok {
		return payroll.SalarySlip{}, payroll.ErrDuplicateSlip
	}
	slip.CreatedAt = slip.SentAt
	r.slips[slip.ID] = slip
	return slip, nil
}

func (r *memorySlipRepo) GetSlipByID(ctx context.Context, id string, companyID string) (payroll.SalarySlip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slip, ok := r.slips[id]
	if !ok || slip.CompanyID != companyID {
		return payroll.SalarySlip{}, payroll.ErrSlipNotFound
	}
	return slip, nil
}

func (r *memorySlipRepo) ExistsForPeriod(ctx context.Context, employeeID string, month, year int, companyID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slips {
		if s.EmployeeID == employeeID && s.Month == month && s.Year == year && s.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memorySlipRepo) ListSlips(ctx context.Context, companyID string, filter payroll.SlipFilter) ([]payroll.SalarySlip, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.SalarySlip
	for _, s := range r.slips {
		if s.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, int64(len(out)), nil
}

func (r *memorySlipRepo) DeleteSlip(ctx context.Context, id string, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slip, ok := r.slips[id]
	if !ok || slip.CompanyID != companyID {
		return payroll.ErrSlipNotFound
	}
	delete(r.slips, id)
	return nil
}

type testEnv struct {
	svc        *PayrollServiceImpl
	payroll    *memoryPayrollRepo
	slips      *memorySlipRepo
	attendance *memoryAttendanceRepo
	leaves     *memoryLeaveRepo
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		payroll:    newMemoryPayrollRepo(),
		slips:      newMemorySlipRepo(),
		attendance: &memoryAttendanceRepo{},
		leaves:     &memoryLeaveRepo{},
		now:        at("2025-02-03", "09:00"),
	}
	env.svc = NewPayrollService(env.payroll, env.slips, env.attendance, env.leaves,
		&staticClassifiers{classifier: newTestClassifier(t)}, time.Second, 4)
	env.svc.now = func() time.Time { return env.now }
	return env
}
