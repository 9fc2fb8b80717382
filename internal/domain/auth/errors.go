package auth

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrTokenExpired            = errors.New("token expired")
	ErrCompanyIDRequired       = errors.New("company ID is required")
	ErrEmployeeIDRequired      = errors.New("employee ID is required")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
