package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/dependency"
	attendancesvc "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ClassifierProvider builds the company's day classifier from its active
// attendance config and holiday calendar.
type ClassifierProvider interface {
	NewClassifier(ctx context.Context, companyID string) (*attendancesvc.Classifier, error)
}

type PayrollServiceImpl struct {
	payrollRepo    payroll.PayrollRepository
	slipRepo       payroll.SlipRepository
	attendanceRepo attendance.AttendanceRepository
	leaveRepo      leave.LeaveRepository
	classifiers    ClassifierProvider
	timeout        time.Duration
	workers        int
	now            func() time.Time
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	slipRepo payroll.SlipRepository,
	attendanceRepo attendance.AttendanceRepository,
	leaveRepo leave.LeaveRepository,
	classifiers ClassifierProvider,
	timeout time.Duration,
	workers int,
) *PayrollServiceImpl {
	if workers < 1 {
		workers = 1
	}
	return &PayrollServiceImpl{
		payrollRepo:    payrollRepo,
		slipRepo:       slipRepo,
		attendanceRepo: attendanceRepo,
		leaveRepo:      leaveRepo,
		classifiers:    classifiers,
		timeout:        timeout,
		workers:        workers,
		now:            time.Now,
	}
}

// companyInputs are shared by every employee of one company-month.
type companyInputs struct {
	classifier *attendancesvc.Classifier
	rule       payroll.PayrollRule
}

// employeeInputs are the per-employee reads of one month.
type employeeInputs struct {
	events []attendance.AttendanceEvent
	leaves []leave.LeaveRecord
	comp   payroll.EmployeeCompensation
}

func (s *PayrollServiceImpl) loadCompany(ctx context.Context, companyID string, withRule bool) (companyInputs, error) {
	var in companyInputs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.classifiers.NewClassifier(gctx, companyID)
		if err != nil {
			return err
		}
		in.classifier = c
		return nil
	})

	if withRule {
		g.Go(func() error {
			rule, err := dependency.Fetch(gctx, s.timeout, "get payroll rule", func(ctx context.Context) (payroll.PayrollRule, error) {
				return s.payrollRepo.GetRule(ctx, companyID)
			})
			if err != nil {
				if errors.Is(err, payroll.ErrPayrollRuleNotFound) {
					return payroll.ErrPayrollRuleNotFound
				}
				return fmt.Errorf("failed to get payroll rule: %w", err)
			}
			in.rule = rule
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return companyInputs{}, err
	}
	return in, nil
}

func (s *PayrollServiceImpl) loadEmployee(ctx context.Context, companyID, employeeID string, month, year int, withComp bool) (employeeInputs, error) {
	var in employeeInputs
	from, to := clock.MonthRange(year, time.Month(month))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := dependency.Fetch(gctx, s.timeout, "list attendance", func(ctx context.Context) ([]attendance.AttendanceEvent, error) {
			return s.attendanceRepo.ListByEmployee(ctx, employeeID, from, to, companyID)
		})
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		in.events = events
		return nil
	})

	g.Go(func() error {
		leaves, err := dependency.Fetch(gctx, s.timeout, "list approved leaves", func(ctx context.Context) ([]leave.LeaveRecord, error) {
			return s.leaveRepo.GetApprovedLeaves(ctx, employeeID, from, to, companyID)
		})
		if err != nil {
			return fmt.Errorf("failed to list approved leaves: %w", err)
		}
		in.leaves = leaves
		return nil
	})

	if withComp {
		g.Go(func() error {
			comp, err := dependency.Fetch(gctx, s.timeout, "get compensation", func(ctx context.Context) (payroll.EmployeeCompensation, error) {
				return s.payrollRepo.GetCompensation(ctx, employeeID, companyID)
			})
			if err != nil {
				if errors.Is(err, payroll.ErrCompensationNotFound) || errors.Is(err, payroll.ErrEmployeeNotFound) {
					return err
				}
				return fmt.Errorf("failed to get compensation: %w", err)
			}
			in.comp = comp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return employeeInputs{}, err
	}
	return in, nil
}

func (s *PayrollServiceImpl) aggregate(company companyInputs, emp employeeInputs, employeeID string, month, year int, asOf time.Time) payroll.MonthlyAggregate {
	return Aggregate(MonthInput{
		EmployeeID: employeeID,
		Month:      month,
		Year:       year,
		Events:     emp.events,
		Leaves:     emp.leaves,
		Classifier: company.classifier,
		AsOf:       asOf,
	})
}

func (s *PayrollServiceImpl) calculate(ctx context.Context, company companyInputs, companyID, employeeID string, month, year int, asOf time.Time) (payroll.PayrollResult, error) {
	emp, err := s.loadEmployee(ctx, companyID, employeeID, month, year, true)
	if err != nil {
		return payroll.PayrollResult{}, err
	}

	agg := s.aggregate(company, emp, employeeID, month, year, asOf)
	result := Calculate(company.rule, emp.comp, agg)
	result.CompanyID = companyID
	result.Config = company.classifier.Config()

	if result.Clamped {
		slog.Warn(payroll.ErrClampedNegativeSalary.Error(),
			"company_id", companyID,
			"employee_id", employeeID,
			"month", month,
			"year", year,
			"gross", result.GrossSalary.StringFixed(payroll.MoneyPlaces),
			"deductions", result.TotalDeductions.StringFixed(payroll.MoneyPlaces),
		)
	}

	return result, nil
}

// ComputeMonth implements payroll.PayrollService.
func (s *PayrollServiceImpl) ComputeMonth(ctx context.Context, req payroll.PeriodRequest) (payroll.MonthlyAggregate, error) {
	if err := req.Validate(); err != nil {
		return payroll.MonthlyAggregate{}, err
	}

	var company companyInputs
	var emp employeeInputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		company, err = s.loadCompany(gctx, req.CompanyID, false)
		return err
	})
	g.Go(func() error {
		var err error
		emp, err = s.loadEmployee(gctx, req.CompanyID, req.EmployeeID, req.Month, req.Year, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return payroll.MonthlyAggregate{}, err
	}

	return s.aggregate(company, emp, req.EmployeeID, req.Month, req.Year, s.now()), nil
}

// CalculatePayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) CalculatePayroll(ctx context.Context, req payroll.PeriodRequest) (payroll.PayrollResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResult{}, err
	}

	company, err := s.loadCompany(ctx, req.CompanyID, true)
	if err != nil {
		return payroll.PayrollResult{}, err
	}

	return s.calculate(ctx, company, req.CompanyID, req.EmployeeID, req.Month, req.Year, s.now())
}

// CalculateCompanyPayroll implements payroll.PayrollService.
// Employees are computed in parallel, bounded by the configured worker count.
// A dependency outage aborts the batch; other per-employee errors are reported
// as failures next to the successful results.
func (s *PayrollServiceImpl) CalculateCompanyPayroll(ctx context.Context, req payroll.BatchPayrollRequest) (payroll.BatchPayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchPayrollResponse{}, err
	}

	company, err := s.loadCompany(ctx, req.CompanyID, true)
	if err != nil {
		return payroll.BatchPayrollResponse{}, err
	}

	employeeIDs := req.EmployeeIDs
	if len(employeeIDs) == 0 {
		employeeIDs, err = dependency.Fetch(ctx, s.timeout, "list employees", func(ctx context.Context) ([]string, error) {
			return s.payrollRepo.ListActiveEmployeeIDs(ctx, req.CompanyID)
		})
		if err != nil {
			return payroll.BatchPayrollResponse{}, fmt.Errorf("failed to list employees: %w", err)
		}
	}

	asOf := s.now()
	results := make([]*payroll.PayrollResult, len(employeeIDs))
	failures := make([]error, len(employeeIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, employeeID := range employeeIDs {
		i, employeeID := i, employeeID
		g.Go(func() error {
			result, err := s.calculate(gctx, company, req.CompanyID, employeeID, req.Month, req.Year, asOf)
			if err != nil {
				if errors.Is(err, dependency.ErrDependencyUnavailable) {
					return err
				}
				failures[i] = err
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.BatchPayrollResponse{}, err
	}

	resp := payroll.BatchPayrollResponse{
		Month:          req.Month,
		Year:           req.Year,
		Results:        []payroll.PayrollResultResponse{},
		Failures:       []payroll.BatchFailure{},
		TotalGross:     decimal.Zero,
		TotalNetSalary: decimal.Zero,
	}
	for i, employeeID := range employeeIDs {
		if failures[i] != nil {
			resp.Failures = append(resp.Failures, payroll.BatchFailure{EmployeeID: employeeID, Error: failures[i].Error()})
			continue
		}
		r := payroll.NewPayrollResultResponse(*results[i])
		resp.Results = append(resp.Results, r)
		resp.TotalGross = resp.TotalGross.Add(r.GrossSalary)
		resp.TotalNetSalary = resp.TotalNetSalary.Add(r.NetSalary)
	}

	return resp, nil
}

// ========== SLIPS ==========

// SendSlip implements payroll.PayrollService.
// Nothing is written unless every read succeeded; the insert is the only side effect.
func (s *PayrollServiceImpl) SendSlip(ctx context.Context, req payroll.PeriodRequest) (payroll.SalarySlip, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalarySlip{}, err
	}

	exists, err := dependency.Fetch(ctx, s.timeout, "check salary slip", func(ctx context.Context) (bool, error) {
		return s.slipRepo.ExistsForPeriod(ctx, req.EmployeeID, req.Month, req.Year, req.CompanyID)
	})
	if err != nil {
		return payroll.SalarySlip{}, fmt.Errorf("failed to check existing salary slip: %w", err)
	}
	if exists {
		return payroll.SalarySlip{}, payroll.ErrDuplicateSlip
	}

	result, err := s.CalculatePayroll(ctx, req)
	if err != nil {
		return payroll.SalarySlip{}, err
	}

	sentAt := s.now()
	slip, err := BuildSlip(req.CompanyID, req.EmployeeID, req.Month, req.Year, result.Aggregate, result, sentAt)
	if err != nil {
		return payroll.SalarySlip{}, err
	}

	created, err := dependency.Fetch(ctx, s.timeout, "create salary slip", func(ctx context.Context) (payroll.SalarySlip, error) {
		return s.slipRepo.CreateSlip(ctx, slip)
	})
	if err != nil {
		if errors.Is(err, payroll.ErrDuplicateSlip) {
			return payroll.SalarySlip{}, payroll.ErrDuplicateSlip
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}

	slog.Info("Salary slip sent",
		"slip_id", created.ID,
		"company_id", created.CompanyID,
		"employee_id", created.EmployeeID,
		"month", created.Month,
		"year", created.Year,
	)
	return created, nil
}

// GetSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSlip(ctx context.Context, id string, companyID string) (payroll.SalarySlip, error) {
	slip, err := dependency.Fetch(ctx, s.timeout, "get salary slip", func(ctx context.Context) (payroll.SalarySlip, error) {
		return s.slipRepo.GetSlipByID(ctx, id, companyID)
	})
	if err != nil {
		if errors.Is(err, payroll.ErrSlipNotFound) {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}
	return slip, nil
}

// ListSlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListSlips(ctx context.Context, companyID string, filter payroll.SlipFilter) (payroll.ListSalarySlipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListSalarySlipResponse{}, err
	}

	type page struct {
		slips []payroll.SalarySlip
		total int64
	}
	p, err := dependency.Fetch(ctx, s.timeout, "list salary slips", func(ctx context.Context) (page, error) {
		slips, total, err := s.slipRepo.ListSlips(ctx, companyID, filter)
		return page{slips: slips, total: total}, err
	})
	if err != nil {
		return payroll.ListSalarySlipResponse{}, fmt.Errorf("failed to list salary slips: %w", err)
	}

	data := make([]payroll.SalarySlipResponse, 0, len(p.slips))
	for _, slip := range p.slips {
		data = append(data, payroll.NewSalarySlipResponse(slip))
	}

	return payroll.ListSalarySlipResponse{
		Data:       data,
		TotalCount: p.total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// DeleteSlip implements payroll.PayrollService.
// Deleting is how a slip is corrected: delete, then send again.
func (s *PayrollServiceImpl) DeleteSlip(ctx context.Context, id string, companyID string) error {
	err := dependency.Exec(ctx, s.timeout, "delete salary slip", func(ctx context.Context) error {
		return s.slipRepo.DeleteSlip(ctx, id, companyID)
	})
	if err != nil {
		if errors.Is(err, payroll.ErrSlipNotFound) {
			return payroll.ErrSlipNotFound
		}
		return fmt.Errorf("failed to delete salary slip: %w", err)
	}
	return nil
}

// ========== RULE ==========

// GetRule implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetRule(ctx context.Context, companyID string) (payroll.PayrollRule, error) {
	rule, err := dependency.Fetch(ctx, s.timeout, "get payroll rule", func(ctx context.Context) (payroll.PayrollRule, error) {
		return s.payrollRepo.GetRule(ctx, companyID)
	})
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollRuleNotFound) {
			return payroll.PayrollRule{}, payroll.ErrPayrollRuleNotFound
		}
		return payroll.PayrollRule{}, fmt.Errorf("failed to get payroll rule: %w", err)
	}
	return rule, nil
}

// UpdateRule implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpdateRule(ctx context.Context, req payroll.UpdatePayrollRuleRequest) (payroll.PayrollRule, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRule{}, errors.Join(payroll.ErrInvalidPayrollRule, err)
	}

	saved, err := dependency.Fetch(ctx, s.timeout, "save payroll rule", func(ctx context.Context) (payroll.PayrollRule, error) {
		return s.payrollRepo.UpsertRule(ctx, req.ToRule())
	})
	if err != nil {
		return payroll.PayrollRule{}, fmt.Errorf("failed to save payroll rule: %w", err)
	}

	slog.Info("Payroll rule updated", "company_id", saved.CompanyID, "version", saved.Version)
	return saved, nil
}
