package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// dateArg stores a DateKey as a DATE column value.
func dateArg(d clock.DateKey) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func dateKeyOf(t time.Time) clock.DateKey {
	return clock.NewDateKey(t.Year(), t.Month(), t.Day())
}

const attendanceDayColumns = `
	id, company_id, employee_id, date, check_in, check_out, auto_closed, created_at, updated_at
`

func scanAttendanceDay(row pgx.Row) (attendance.AttendanceEvent, error) {
	var e attendance.AttendanceEvent
	var date time.Time
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.EmployeeID, &date, &e.CheckIn, &e.CheckOut, &e.AutoClosed, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceEvent{}, err
	}
	e.Date = dateKeyOf(date)
	return e, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date clock.DateKey, companyID string) (*attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceDayColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date = $2 AND company_id = $3
	`

	e, err := scanAttendanceDay(q.QueryRow(ctx, query, employeeID, dateArg(date), companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance day: %w", err)
	}

	breaks, err := r.loadBreaks(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Breaks = breaks[e.ID]

	return &e, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceDayColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND company_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	return r.queryDays(ctx, q, query, employeeID, companyID, dateArg(from), dateArg(to))
}

// ListOpenSessions implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListOpenSessions(ctx context.Context, companyID string, date clock.DateKey) ([]attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceDayColumns + `
		FROM attendance_days
		WHERE company_id = $1 AND date <= $2 AND check_in IS NOT NULL AND check_out IS NULL
		ORDER BY date, employee_id
	`

	return r.queryDays(ctx, q, query, companyID, dateArg(date))
}

func (r *attendanceRepository) queryDays(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]attendance.AttendanceEvent, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var events []attendance.AttendanceEvent
	var ids []string
	for rows.Next() {
		e, err := scanAttendanceDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance days: %w", err)
	}

	if len(ids) == 0 {
		return events, nil
	}

	breaks, err := r.loadBreaks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Breaks = breaks[events[i].ID]
	}

	return events, nil
}

func (r *attendanceRepository) loadBreaks(ctx context.Context, dayIDs []string) (map[string][]attendance.Break, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT attendance_day_id, start_at, end_at
		FROM attendance_breaks
		WHERE attendance_day_id = ANY($1)
		ORDER BY attendance_day_id, seq
	`

	rows, err := q.Query(ctx, query, dayIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance breaks: %w", err)
	}
	defer rows.Close()

	breaks := make(map[string][]attendance.Break, len(dayIDs))
	for rows.Next() {
		var dayID string
		var b attendance.Break
		if err := rows.Scan(&dayID, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("failed to scan attendance break: %w", err)
		}
		breaks[dayID] = append(breaks[dayID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance breaks: %w", err)
	}

	return breaks, nil
}

// Save implements attendance.AttendanceRepository.
// The day row and its breaks are replaced together in one transaction.
func (r *attendanceRepository) Save(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO attendance_days (company_id, employee_id, date, check_in, check_out, auto_closed)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (employee_id, date) DO UPDATE SET
				check_in = EXCLUDED.check_in,
				check_out = EXCLUDED.check_out,
				auto_closed = EXCLUDED.auto_closed,
				updated_at = NOW()
			WHERE attendance_days.company_id = EXCLUDED.company_id
			RETURNING id, created_at, updated_at
		`

		err := q.QueryRow(ctx, query,
			event.CompanyID, event.EmployeeID, dateArg(event.Date), event.CheckIn, event.CheckOut, event.AutoClosed,
		).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save attendance day: %w", err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM attendance_breaks WHERE attendance_day_id = $1`, event.ID); err != nil {
			return fmt.Errorf("failed to clear attendance breaks: %w", err)
		}

		if len(event.Breaks) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, b := range event.Breaks {
			batch.Queue(`
				INSERT INTO attendance_breaks (attendance_day_id, seq, start_at, end_at)
				VALUES ($1, $2, $3, $4)
			`, event.ID, i, b.Start, b.End)
		}

		tx, ok := q.(pgx.Tx)
		if !ok {
			return fmt.Errorf("failed to save attendance breaks: no transaction")
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save attendance breaks: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceEvent{}, err
	}

	return event, nil
}
