package actor

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// Actor identifies who performs an operation. Services receive it explicitly
// instead of reading request globals. A zero Actor stands for the system
// itself (cron jobs, migrations).
type Actor struct {
	UserID    *uuid.UUID
	Username  string
	Role      enums.UserRole
	RequestID string
}

// System is the actor used by background jobs.
func System() Actor {
	return Actor{Username: "system"}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// IsSystem reports whether no user is attached.
func (a Actor) IsSystem() bool {
	return a.UserID == nil
}
