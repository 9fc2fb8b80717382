package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
)

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRequestRepository{db: db}
}

// GetApprovedLeaves implements leave.LeaveRepository.
// Each approved request is expanded into one record per day that overlaps [from, to].
// The record type is the payroll category of the request's leave type.
func (r *leaveRequestRepository) GetApprovedLeaves(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT d::date, lr.status, lt.payroll_category
		FROM leave_requests lr
		JOIN leave_types lt ON lr.leave_type_id = lt.id
		JOIN employees e ON lr.employee_id = e.id
		CROSS JOIN LATERAL generate_series(
			GREATEST(lr.start_date, $3::date),
			LEAST(lr.end_date, $4::date),
			INTERVAL '1 day'
		) AS d
		WHERE lr.employee_id = $1
		  AND e.company_id = $2
		  AND lr.status = $5
		  AND lr.start_date <= $4
		  AND lr.end_date >= $3
		ORDER BY d, lr.submitted_at
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, dateArg(from), dateArg(to), leave.LeaveStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	defer rows.Close()

	var records []leave.LeaveRecord
	for rows.Next() {
		var day time.Time
		rec := leave.LeaveRecord{EmployeeID: employeeID}
		if err := rows.Scan(&day, &rec.Status, &rec.Type); err != nil {
			return nil, fmt.Errorf("failed to scan leave day: %w", err)
		}
		rec.Date = dateKeyOf(day)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave days: %w", err)
	}

	return records, nil
}
