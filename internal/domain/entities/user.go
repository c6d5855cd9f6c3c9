package entities

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes ordinary players from the treasury counterparty.
type UserRole string

const (
	// RoleUser - an ordinary wallet owner; balances must stay non-negative.
	RoleUser UserRole = "USER"
	// RoleSystem - the treasury owner. At most one SYSTEM user holds a
	// wallet per asset type; its balances may go negative (it mints supply).
	RoleSystem UserRole = "SYSTEM"
)

// IsValid checks if the role is one of the known values.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleSystem
}

// User is read-only for the ledger core; only id and role matter here.
type User struct {
	ID        uuid.UUID
	Username  string
	Role      UserRole
	CreatedAt time.Time
}

// IsSystem reports whether this user is the treasury counterparty.
func (u *User) IsSystem() bool {
	return u.Role == RoleSystem
}
