package auth

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Claims is the subset of an access token the engine relies on.
// Tokens are issued by the HR core; this service only verifies them.
type Claims struct {
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       Role
	IsAdmin    bool
}

// ClaimsFromMap reads claims decoded by jwtauth. company_id is mandatory.
func ClaimsFromMap(m map[string]interface{}) (Claims, error) {
	var c Claims
	c.UserID, _ = m["user_id"].(string)
	c.EmployeeID, _ = m["employee_id"].(string)
	c.IsAdmin, _ = m["is_admin"].(bool)
	if role, ok := m["role"].(string); ok {
		c.Role = Role(role)
	}

	companyID, ok := m["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, ErrCompanyIDRequired
	}
	c.CompanyID = companyID

	return c, nil
}

// CanManage reports whether the caller may act on other employees of the company.
func (c Claims) CanManage() bool {
	return c.IsAdmin || c.Role == RoleOwner || c.Role == RoleManager
}

// ResolveEmployee returns the employee a request targets. An empty requested id
// means the caller; other employees require manager access.
func (c Claims) ResolveEmployee(requested string) (string, error) {
	if requested == "" || requested == c.EmployeeID {
		if c.EmployeeID == "" {
			return "", ErrEmployeeIDRequired
		}
		return c.EmployeeID, nil
	}
	if !c.CanManage() {
		return "", ErrInsufficientPermissions
	}
	return requested, nil
}
