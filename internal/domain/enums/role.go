package enums

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleVisitor    Role = "visitor"
	RoleAdvertiser Role = "advertiser"
	RoleSuperAdmin Role = "super_admin"
)

func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleVisitor, RoleAdvertiser, RoleSuperAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// SelfAssignable reports whether a role may be picked at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleVisitor || r == RoleAdvertiser
}
