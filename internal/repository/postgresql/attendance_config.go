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

type attendanceConfigRepository struct {
	db *database.DB
}

func NewAttendanceConfigRepository(db *database.DB) attendance.ConfigRepository {
	return &attendanceConfigRepository{db: db}
}

const attendanceConfigColumns = `
	company_id, version, timezone, office_start_time, office_end_time, late_grace_minutes,
	half_day_login_cutoff, half_day_checkout_cutoff, early_checkout_grace_minutes,
	auto_checkout_time, count_sunday_payable, count_holiday_payable, created_at, updated_at
`

func scanAttendanceConfig(row pgx.Row) (attendance.AttendanceConfig, error) {
	var c attendance.AttendanceConfig
	err := row.Scan(
		&c.CompanyID, &c.Version, &c.Timezone, &c.OfficeStartTime, &c.OfficeEndTime, &c.LateGraceMinutes,
		&c.HalfDayLoginCutoff, &c.HalfDayCheckoutCutoff, &c.EarlyCheckoutGraceMinutes,
		&c.AutoCheckoutTime, &c.CountSundayPayable, &c.CountHolidayPayable, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetConfig implements attendance.ConfigRepository.
func (r *attendanceConfigRepository) GetConfig(ctx context.Context, companyID string) (attendance.AttendanceConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceConfigColumns + ` FROM attendance_configs WHERE company_id = $1`

	c, err := scanAttendanceConfig(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceConfig{}, attendance.ErrConfigNotFound
		}
		return attendance.AttendanceConfig{}, fmt.Errorf("failed to get attendance config: %w", err)
	}
	return c, nil
}

// UpsertConfig implements attendance.ConfigRepository.
// Every save bumps the version so slips can record which config they used.
func (r *attendanceConfigRepository) UpsertConfig(ctx context.Context, config attendance.AttendanceConfig) (attendance.AttendanceConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_configs (
			company_id, version, timezone, office_start_time, office_end_time, late_grace_minutes,
			half_day_login_cutoff, half_day_checkout_cutoff, early_checkout_grace_minutes,
			auto_checkout_time, count_sunday_payable, count_holiday_payable
		) VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (company_id) DO UPDATE SET
			version = attendance_configs.version + 1,
			timezone = EXCLUDED.timezone,
			office_start_time = EXCLUDED.office_start_time,
			office_end_time = EXCLUDED.office_end_time,
			late_grace_minutes = EXCLUDED.late_grace_minutes,
			half_day_login_cutoff = EXCLUDED.half_day_login_cutoff,
			half_day_checkout_cutoff = EXCLUDED.half_day_checkout_cutoff,
			early_checkout_grace_minutes = EXCLUDED.early_checkout_grace_minutes,
			auto_checkout_time = EXCLUDED.auto_checkout_time,
			count_sunday_payable = EXCLUDED.count_sunday_payable,
			count_holiday_payable = EXCLUDED.count_holiday_payable,
			updated_at = NOW()
		RETURNING ` + attendanceConfigColumns

	saved, err := scanAttendanceConfig(q.QueryRow(ctx, query,
		config.CompanyID, config.Timezone, config.OfficeStartTime, config.OfficeEndTime, config.LateGraceMinutes,
		config.HalfDayLoginCutoff, config.HalfDayCheckoutCutoff, config.EarlyCheckoutGraceMinutes,
		config.AutoCheckoutTime, config.CountSundayPayable, config.CountHolidayPayable,
	))
	if err != nil {
		return attendance.AttendanceConfig{}, fmt.Errorf("failed to upsert attendance config: %w", err)
	}
	return saved, nil
}

// ListCompanyIDs implements attendance.ConfigRepository.
func (r *attendanceConfigRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT company_id FROM attendance_configs ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list configured companies: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan company id: %w", err)
	}
	return ids, nil
}

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) attendance.HolidayRepository {
	return &holidayRepository{db: db}
}

// ListHolidays implements attendance.HolidayRepository.
func (r *holidayRepository) ListHolidays(ctx context.Context, companyID string) ([]clock.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT name, date, COALESCE(rrule, '')
		FROM company_holidays
		WHERE company_id = $1
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []clock.Holiday
	for rows.Next() {
		var h clock.Holiday
		var date time.Time
		if err := rows.Scan(&h.Name, &date, &h.RRule); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date = dateKeyOf(date)
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}
