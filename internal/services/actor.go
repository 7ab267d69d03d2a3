package services

import (
	"fmt"

	"github.com/transparencity/backend/internal/models"
)

// SystemActor is recorded for actions the platform takes on its own, such as closing an expired vote.
const SystemActor = "system"

// Actor identifies who performs an operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// String is the identity written to the audit log.
func (a Actor) String() string {
	return UserActor(a.UserID)
}

// UserActor formats the audit identity of a user.
func UserActor(id uint) string {
	return fmt.Sprintf("user:%d", id)
}
