package domain

import "strings"

// Role is the closed set of principal roles carried in a session.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleRGA      Role = "rga"
)

// ParseRole normalizes a role tag. The second result is false for unknown roles.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleEmployee, RoleRGA:
		return role, true
	default:
		return "", false
	}
}

// Is compares roles case-insensitively.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// MaxPharmacies returns how many pharmacies a profile with this role may list.
func (r Role) MaxPharmacies() int {
	switch {
	case r.Is(RoleEmployee):
		return 1
	case r.Is(RoleRGA):
		return 5
	default:
		return 0
	}
}
