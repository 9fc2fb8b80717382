package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== RULE ==========

const payrollRuleColumns = `
	company_id, version, base_salary_type, pay_days, absent_deduction_type, absent_fixed_amount,
	half_day_deduction_percent, late_deduction_percent, early_checkout_deduction_percent,
	hra_percent, conveyance, children_allowance, fixed_allowance, professional_tax,
	paid_leave, sick_leave, casual_leave, created_at, updated_at
`

func scanPayrollRule(row pgx.Row) (payroll.PayrollRule, error) {
	var rule payroll.PayrollRule
	var paidLeave, sickLeave, casualLeave []byte
	err := row.Scan(
		&rule.CompanyID, &rule.Version, &rule.BaseSalaryType, &rule.PayDays, &rule.AbsentDeductionType, &rule.AbsentFixedAmount,
		&rule.HalfDayDeductionPercent, &rule.LateDeductionPercent, &rule.EarlyCheckoutDeductionPercent,
		&rule.HRAPercent, &rule.Conveyance, &rule.ChildrenAllowance, &rule.FixedAllowance, &rule.ProfessionalTax,
		&paidLeave, &sickLeave, &casualLeave, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollRule{}, err
	}

	policies := []struct {
		raw []byte
		dst *payroll.LeavePolicy
	}{
		{paidLeave, &rule.PaidLeave},
		{sickLeave, &rule.SickLeave},
		{casualLeave, &rule.CasualLeave},
	}
	for _, p := range policies {
		if len(p.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(p.raw, p.dst); err != nil {
			return payroll.PayrollRule{}, fmt.Errorf("failed to decode leave policy: %w", err)
		}
	}

	return rule, nil
}

// GetRule implements payroll.PayrollRepository.
func (r *payrollRepository) GetRule(ctx context.Context, companyID string) (payroll.PayrollRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollRuleColumns + ` FROM payroll_rules WHERE company_id = $1`

	rule, err := scanPayrollRule(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRule{}, payroll.ErrPayrollRuleNotFound
		}
		return payroll.PayrollRule{}, fmt.Errorf("failed to get payroll rule: %w", err)
	}
	return rule, nil
}

// UpsertRule implements payroll.PayrollRepository.
// The last saved rule wins; version counts the saves.
func (r *payrollRepository) UpsertRule(ctx context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	q := GetQuerier(ctx, r.db)

	paidLeave, _ := json.Marshal(rule.PaidLeave)
	sickLeave, _ := json.Marshal(rule.SickLeave)
	casualLeave, _ := json.Marshal(rule.CasualLeave)

	query := `
		INSERT INTO payroll_rules (
			company_id, version, base_salary_type, pay_days, absent_deduction_type, absent_fixed_amount,
			half_day_deduction_percent, late_deduction_percent, early_checkout_deduction_percent,
			hra_percent, conveyance, children_allowance, fixed_allowance, professional_tax,
			paid_leave, sick_leave, casual_leave
		) VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (company_id) DO UPDATE SET
			version = payroll_rules.version + 1,
			base_salary_type = EXCLUDED.base_salary_type,
			pay_days = EXCLUDED.pay_days,
			absent_deduction_type = EXCLUDED.absent_deduction_type,
			absent_fixed_amount = EXCLUDED.absent_fixed_amount,
			half_day_deduction_percent = EXCLUDED.half_day_deduction_percent,
			late_deduction_percent = EXCLUDED.late_deduction_percent,
			early_checkout_deduction_percent = EXCLUDED.early_checkout_deduction_percent,
			hra_percent = EXCLUDED.hra_percent,
			conveyance = EXCLUDED.conveyance,
			children_allowance = EXCLUDED.children_allowance,
			fixed_allowance = EXCLUDED.fixed_allowance,
			professional_tax = EXCLUDED.professional_tax,
			paid_leave = EXCLUDED.paid_leave,
			sick_leave = EXCLUDED.sick_leave,
			casual_leave = EXCLUDED.casual_leave,
			updated_at = NOW()
		RETURNING ` + payrollRuleColumns

	saved, err := scanPayrollRule(q.QueryRow(ctx, query,
		rule.CompanyID, rule.BaseSalaryType, rule.PayDays, rule.AbsentDeductionType, rule.AbsentFixedAmount,
		rule.HalfDayDeductionPercent, rule.LateDeductionPercent, rule.EarlyCheckoutDeductionPercent,
		rule.HRAPercent, rule.Conveyance, rule.ChildrenAllowance, rule.FixedAllowance, rule.ProfessionalTax,
		paidLeave, sickLeave, casualLeave,
	))
	if err != nil {
		return payroll.PayrollRule{}, fmt.Errorf("failed to upsert payroll rule: %w", err)
	}
	return saved, nil
}

// ========== EMPLOYEES ==========

// GetCompensation implements payroll.PayrollRepository.
func (r *payrollRepository) GetCompensation(ctx context.Context, employeeID string, companyID string) (payroll.EmployeeCompensation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, base_salary
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	var comp payroll.EmployeeCompensation
	var baseSalary decimal.NullDecimal
	err := q.QueryRow(ctx, query, employeeID, companyID).Scan(&comp.EmployeeID, &comp.CompanyID, &baseSalary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.EmployeeCompensation{}, payroll.ErrEmployeeNotFound
		}
		return payroll.EmployeeCompensation{}, fmt.Errorf("failed to get employee compensation: %w", err)
	}
	if !baseSalary.Valid {
		return payroll.EmployeeCompensation{}, payroll.ErrCompensationNotFound
	}
	comp.BaseAmount = baseSalary.Decimal

	return comp, nil
}

// ListActiveEmployeeIDs implements payroll.PayrollRepository.
func (r *payrollRepository) ListActiveEmployeeIDs(ctx context.Context, companyID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id
		FROM employees
		WHERE company_id = $1 AND employment_status = 'active' AND deleted_at IS NULL
		ORDER BY employee_code, id
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee id: %w", err)
	}
	return ids, nil
}
