package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/dependency"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, auth.ErrEmployeeIDRequired):
		BadRequest(w, "employee_id is required", nil)
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, auth.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance state machine errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in")
	case errors.Is(err, attendance.ErrNoActiveSession):
		Conflict(w, "No active session")
	case errors.Is(err, attendance.ErrBreakAlreadyActive):
		Conflict(w, "A break is already active")
	case errors.Is(err, attendance.ErrNoActiveBreak):
		Conflict(w, "No active break")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Already checked out")
	case errors.Is(err, attendance.ErrConfigNotFound):
		NotFound(w, "Attendance config not found")
	case errors.Is(err, attendance.ErrInvalidConfig):
		UnprocessableEntity(w, "Invalid attendance config")

	// Payroll errors
	case errors.Is(err, payroll.ErrPayrollRuleNotFound):
		NotFound(w, "Payroll rule not found")
	case errors.Is(err, payroll.ErrInvalidPayrollRule):
		UnprocessableEntity(w, "Invalid payroll rule")
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, payroll.ErrCompensationNotFound):
		NotFound(w, "Employee has no base salary configured")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		UnprocessableEntity(w, "Invalid payroll period")
	case errors.Is(err, payroll.ErrSlipNotFound):
		NotFound(w, "Salary slip not found")
	case errors.Is(err, payroll.ErrDuplicateSlip):
		Conflict(w, "Salary slip already sent for this period")

	case errors.Is(err, dependency.ErrDependencyUnavailable):
		ServiceUnavailable(w, "A dependency is temporarily unavailable, retry later")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
