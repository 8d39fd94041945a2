// Package directory defines the lookup contracts the orchestrator consumes:
// complaint snapshots, staff accounts, and role-permission resolution. They
// are implemented by the persistence layer.
package directory

import (
	"context"
	"errors"

	"github.com/civicops/complaintflow/pkg/models"
)

// ErrNotFound is wrapped by implementations when a lookup target does not
// exist. Notification handlers treat it as a skippable condition rather than
// a run failure.
var ErrNotFound = errors.New("directory record not found")

// ComplaintSource loads complaint snapshots. The orchestrator fetches the
// target complaint exactly once at run start.
type ComplaintSource interface {
	ComplaintByID(ctx context.Context, id string) (*models.Complaint, error)
}

// UserSource looks up staff accounts.
type UserSource interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	AllUsers(ctx context.Context) ([]*models.User, error)
}

// RoleSource resolves which roles are permitted for a configured action id,
// used for role_based notification recipients.
type RoleSource interface {
	RolesForAction(ctx context.Context, actionID string) ([]string, error)
}

// UsersWithRoles filters users down to those holding at least one of the
// given roles. Inactive accounts are excluded.
func UsersWithRoles(users []*models.User, roles []string) []*models.User {
	matched := make([]*models.User, 0, len(users))

	for _, user := range users {
		if !user.Active {
			continue
		}

		for _, role := range roles {
			if user.HasRole(role) {
				matched = append(matched, user)

				break
			}
		}
	}

	return matched
}
