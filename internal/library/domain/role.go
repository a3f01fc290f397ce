package domain

import "fmt"

// Role is the closed set of account roles. Authorization decisions go through
// capabilities rather than comparing role strings at call sites.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned when registration omits a role.
const DefaultRole = RoleMember

// ParseRole validates a role string. The empty string maps to DefaultRole.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return DefaultRole, nil
	case RoleMember, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Capability names one thing a role is allowed to do.
type Capability string

const (
	// CapManageCatalog covers creating, updating and deleting books.
	CapManageCatalog Capability = "catalog:manage"

	// CapBorrow covers borrowing, returning and viewing one's own history.
	// Admin accounts do not borrow; circulation is a member activity.
	CapBorrow Capability = "circulation:borrow"

	// CapViewReports covers the availability and most-borrowed aggregates.
	CapViewReports Capability = "reports:read"

	// CapViewMemberReports covers the active-members aggregate, which exposes
	// member emails and is admin-only.
	CapViewMemberReports Capability = "reports:members"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleMember: {
		CapBorrow:      {},
		CapViewReports: {},
	},
	RoleAdmin: {
		CapManageCatalog:     {},
		CapViewReports:       {},
		CapViewMemberReports: {},
	},
}

// Can reports whether the role grants the capability. Unknown roles grant
// nothing.
func (r Role) Can(c Capability) bool {
	_, ok := roleCapabilities[r][c]
	return ok
}
