// Package rbac is the role gate: a closed, totally ordered role enum and the
// minimum role of every privileged action.
package rbac

import "strings"

// Role is a user role. The zero value is RoleNone (no session or unknown role).
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleOperator
	RoleAdmin
	RoleSuperAdmin
)

var roleNames = map[Role]string{
	RoleViewer:     "viewer",
	RoleOperator:   "operator",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "super_admin",
}

// ParseRole maps the role claim to a Role. Unknown strings yield RoleNone.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewer":
		return RoleViewer
	case "operator":
		return RoleOperator
	case "admin":
		return RoleAdmin
	case "super_admin":
		return RoleSuperAdmin
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "none"
}

// Rank is the position of the role in the total order. RoleNone ranks below viewer.
func (r Role) Rank() int {
	if r < RoleNone || r > RoleSuperAdmin {
		return int(RoleNone)
	}
	return int(r)
}

// CanPerform grants iff the user has a role and its rank is at least required's rank.
func CanPerform(user, required Role) bool {
	if user.Rank() == int(RoleNone) {
		return false
	}
	return user.Rank() >= required.Rank()
}

// Capability is a privileged action of the UI.
type Capability string

const (
	CapViewDashboard   Capability = "view_dashboard"
	CapAIChat          Capability = "ai_chat"
	CapAIAnalysis      Capability = "ai_analysis"
	CapAIReport        Capability = "ai_report"
	CapManageCompanies Capability = "manage_companies"
	CapManageUsers     Capability = "manage_users"
)

// Requirements is the minimum role of each capability.
var Requirements = map[Capability]Role{
	CapViewDashboard:   RoleViewer,
	CapAIChat:          RoleOperator,
	CapAIAnalysis:      RoleOperator,
	CapAIReport:        RoleOperator,
	CapManageCompanies: RoleAdmin,
	CapManageUsers:     RoleSuperAdmin,
}

// Allows reports whether role may use capability. Unknown capabilities are denied.
func Allows(role Role, c Capability) bool {
	required, ok := Requirements[c]
	if !ok {
		return false
	}
	return CanPerform(role, required)
}

// Availability returns the action-availability flags the UI renders.
func Availability(role Role) map[Capability]bool {
	out := make(map[Capability]bool, len(Requirements))
	for c := range Requirements {
		out[c] = Allows(role, c)
	}
	return out
}
