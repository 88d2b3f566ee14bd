package models

import "fmt"

// Role decides what a participant may do. Seeker/Helper belong to the
// queue policy, Caller/Callee to the legacy two-slot policy.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleSeeker
	RoleHelper
	RoleCaller
	RoleCallee
)

func (r Role) String() string {
	switch r {
	case RoleSeeker:
		return "blind"
	case RoleHelper:
		return "volunteer"
	case RoleCaller:
		return "caller"
	case RoleCallee:
		return "callee"
	default:
		return "unknown"
	}
}

// ParseRole maps a wire role name to a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "blind":
		return RoleSeeker, nil
	case "volunteer":
		return RoleHelper, nil
	case "caller":
		return RoleCaller, nil
	case "callee":
		return RoleCallee, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}
