package store

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// GroupsStore is the read/write contract for the group directory.
type GroupsStore interface {
	// FetchGroup retrieves a group by name with its roles and users
	// materialized. Absent or soft-deleted groups yield an
	// errs.ErrNotFound-kind error.
	FetchGroup(ctx context.Context, name string) (*model.Group, error)

	// FetchGroupsForUser returns the active groups the subject is a direct
	// member of.
	FetchGroupsForUser(ctx context.Context, subject identity.Subject) ([]model.Group, error)

	// FetchGroupsForRoles returns the active groups granted any of the
	// given role ids.
	FetchGroupsForRoles(ctx context.Context, roleIDs []string) ([]model.Group, error)

	// AddGroup persists a new group.
	AddGroup(ctx context.Context, group model.Group) (*model.Group, error)

	// AddUserToGroup adds a subject to a group.
	AddUserToGroup(ctx context.Context, groupName string, subject identity.Subject) error
}
