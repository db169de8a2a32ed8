package domain

import "strings"

// Role is the privilege level carried by a principal. Roles are not ordered for
// authorization purposes: every protected operation names its own allow-set.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// DefaultRole is assigned to every self-registered principal.
const DefaultRole = RoleUser

// ParseRole returns the Role named by s. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleModerator, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// RoleSet is the set of roles allowed to invoke an operation.
// A nil or empty set allows nobody.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows reports whether r is a member of the set.
func (s RoleSet) Allows(r Role) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[r]
	return ok
}

// Clone returns an independent copy of the set.
func (s RoleSet) Clone() RoleSet {
	out := make(RoleSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Roles lists the members in a stable order (user, moderator, admin).
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range []Role{RoleUser, RoleModerator, RoleAdmin} {
		if _, ok := s[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
