package domain

// Role is the access level carried by an API client's token.
type Role string

const (
	// RoleAdmin may open accounts and apply movements.
	RoleAdmin Role = "admin"

	// RoleOperator may apply movements. The switch runs as an operator.
	RoleOperator Role = "operator"

	// RoleViewer may only read accounts and history.
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r grants at least the access of min.
func (r Role) Allows(min Role) bool {
	return r.IsValid() && roleRank[r] >= roleRank[min]
}
