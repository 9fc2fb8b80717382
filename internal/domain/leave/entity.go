package leave

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

// LeaveStatus enum
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// LeaveType enum, the payroll category of a leave
type LeaveType string

const (
	LeaveTypePaid   LeaveType = "paid"
	LeaveTypeSick   LeaveType = "sick"
	LeaveTypeCasual LeaveType = "casual"
)

// AllLeaveTypes lists the payroll leave categories in reporting order.
var AllLeaveTypes = []LeaveType{LeaveTypePaid, LeaveTypeSick, LeaveTypeCasual}

// LeaveRecord - One leave day of an employee, expanded from a leave request
type LeaveRecord struct {
	EmployeeID string
	Date       clock.DateKey
	Status     LeaveStatus
	Type       LeaveType
}

func (r LeaveRecord) IsApproved() bool {
	return r.Status == LeaveStatusApproved
}
