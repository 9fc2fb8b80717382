package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

// LeaveRepository reads leave data owned by the leave workflow.
type LeaveRepository interface {
	// GetApprovedLeaves returns one record per approved leave day within [from, to]
	GetApprovedLeaves(ctx context.Context, employeeID string, from, to clock.DateKey, companyID string) ([]LeaveRecord, error)
}
