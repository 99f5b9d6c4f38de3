package roles

import "time"

// Role is the enumerated authorization label of an identity. Checks go
// through IsPrivileged instead of comparing strings at call sites.
type Role string

const (
	// RoleAdmin is the elevated label handed to the very first identity.
	RoleAdmin Role = "admin"
	// RoleManager is the secondary privileged label.
	RoleManager Role = "manager"
	// RoleUser is the default label.
	RoleUser Role = "user"
)

// ParseRole validates a role label.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(raw), true
	default:
		return "", false
	}
}

// IsPrivileged reports whether the role may create users or archive
// contracts. This predicate is the single place privilege is decided.
func IsPrivileged(role Role) bool {
	return role == RoleAdmin || role == RoleManager
}

// Record maps one identity to its role label. Exactly one record exists per
// identity; it only changes through manual reassignment by a privileged
// caller.
type Record struct {
	UID       string
	Role      Role
	Email     string
	CreatedAt time.Time
}
