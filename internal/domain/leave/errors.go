package leave

import "errors"

var (
	ErrUnknownLeaveType = errors.New("unknown leave payroll category")
)
