// Package domain contains entities without logic, just meta-data.
package domain

const (
	MaxDisplayNameLen = 64
	MaxRoomIDLen      = 64
	MaxChatTextLen    = 2000
)

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Identity is the caller identity resolved at connection time. It is
// constructed once and passed by value into every transition, never
// re-fetched or mutated mid-session.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id, displayName string, role Role) (Identity, error) {
	if id == "" {
		return Identity{}, Validation("empty identity id")
	}
	if displayName == "" {
		return Identity{}, Validation("empty display name")
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, Validation("display name too long")
	}
	if !role.Valid() {
		return Identity{}, Validation("unknown role")
	}
	return Identity{ID: id, DisplayName: displayName, Role: role}, nil
}
