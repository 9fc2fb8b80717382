package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type salarySlipRepository struct {
	db *database.DB
}

func NewSalarySlipRepository(db *database.DB) payroll.SlipRepository {
	return &salarySlipRepository{db: db}
}

const salarySlipColumns = `
	id, company_id, employee_id, period_month, period_year, aggregate, earnings, deductions,
	gross_salary, total_deductions, net_salary, remarks, clamped, rule_snapshot, config_snapshot,
	sent_at, created_at
`

// slipDocuments are the JSONB columns of a slip.
type slipDocuments struct {
	aggregate, earnings, deductions, rule, config []byte
}

func (d *slipDocuments) targets(slip *payroll.SalarySlip) []struct {
	raw *[]byte
	dst interface{}
} {
	return []struct {
		raw *[]byte
		dst interface{}
	}{
		{&d.aggregate, &slip.Aggregate},
		{&d.earnings, &slip.Earnings},
		{&d.deductions, &slip.Deductions},
		{&d.rule, &slip.RuleSnapshot},
		{&d.config, &slip.ConfigSnapshot},
	}
}

func encodeSlipDocuments(slip payroll.SalarySlip) (slipDocuments, error) {
	var docs slipDocuments
	for _, t := range docs.targets(&slip) {
		raw, err := json.Marshal(t.dst)
		if err != nil {
			return slipDocuments{}, fmt.Errorf("failed to encode salary slip: %w", err)
		}
		*t.raw = raw
	}
	return docs, nil
}

func scanSalarySlip(row pgx.Row) (payroll.SalarySlip, error) {
	var slip payroll.SalarySlip
	var docs slipDocuments
	err := row.Scan(
		&slip.ID, &slip.CompanyID, &slip.EmployeeID, &slip.Month, &slip.Year,
		&docs.aggregate, &docs.earnings, &docs.deductions,
		&slip.GrossSalary, &slip.TotalDeductions, &slip.NetSalary, &slip.Remarks, &slip.Clamped,
		&docs.rule, &docs.config, &slip.SentAt, &slip.CreatedAt,
	)
	if err != nil {
		return payroll.SalarySlip{}, err
	}

	for _, t := range docs.targets(&slip) {
		if len(*t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(*t.raw, t.dst); err != nil {
			return payroll.SalarySlip{}, fmt.Errorf("failed to decode salary slip: %w", err)
		}
	}
	return slip, nil
}

// CreateSlip implements payroll.SlipRepository.
func (r *salarySlipRepository) CreateSlip(ctx context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	docs, err := encodeSlipDocuments(slip)
	if err != nil {
		return payroll.SalarySlip{}, err
	}

	query := `
		INSERT INTO salary_slips (
			id, company_id, employee_id, period_month, period_year, aggregate, earnings, deductions,
			gross_salary, total_deductions, net_salary, remarks, clamped, rule_snapshot, config_snapshot, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + salarySlipColumns

	created, err := scanSalarySlip(q.QueryRow(ctx, query,
		slip.ID, slip.CompanyID, slip.EmployeeID, slip.Month, slip.Year,
		docs.aggregate, docs.earnings, docs.deductions,
		slip.GrossSalary, slip.TotalDeductions, slip.NetSalary, slip.Remarks, slip.Clamped,
		docs.rule, docs.config, slip.SentAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return payroll.SalarySlip{}, payroll.ErrDuplicateSlip
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}

	return created, nil
}

// GetSlipByID implements payroll.SlipRepository.
func (r *salarySlipRepository) GetSlipByID(ctx context.Context, id string, companyID string) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salarySlipColumns + ` FROM salary_slips WHERE id = $1 AND company_id = $2`

	slip, err := scanSalarySlip(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" { // invalid_text_representation
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}
	return slip, nil
}

// ExistsForPeriod implements payroll.SlipRepository.
func (r *salarySlipRepository) ExistsForPeriod(ctx context.Context, employeeID string, month, year int, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM salary_slips
			WHERE employee_id = $1 AND period_month = $2 AND period_year = $3 AND company_id = $4
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, month, year, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check salary slip: %w", err)
	}
	return exists, nil
}

// ListSlips implements payroll.SlipRepository.
func (r *salarySlipRepository) ListSlips(ctx context.Context, companyID string, filter payroll.SlipFilter) ([]payroll.SalarySlip, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM salary_slips WHERE company_id = $1`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Month != nil {
		baseQuery += fmt.Sprintf(" AND period_month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND period_year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary slips: %w", err)
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := "SELECT " + salarySlipColumns + baseQuery +
		fmt.Sprintf(" ORDER BY period_year DESC, period_month DESC, employee_id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list salary slips: %w", err)
	}
	defer rows.Close()

	var slips []payroll.SalarySlip
	for rows.Next() {
		slip, err := scanSalarySlip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan salary slip: %w", err)
		}
		slips = append(slips, slip)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate salary slips: %w", err)
	}

	return slips, totalCount, nil
}

// DeleteSlip implements payroll.SlipRepository.
func (r *salarySlipRepository) DeleteSlip(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_slips WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			return payroll.ErrSlipNotFound
		}
		return fmt.Errorf("failed to delete salary slip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSlipNotFound
	}
	return nil
}
