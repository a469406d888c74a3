package store

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// RolesStore is the read/write contract for the role directory. All fetch
// operations exclude soft-deleted roles and return roles with their
// permission collections fully materialized; the resolver never sees a
// partial view.
type RolesStore interface {
	// FetchRolesForSecurableItem returns the active roles scoped to the
	// given grain/securable item.
	FetchRolesForSecurableItem(ctx context.Context, scope model.Scope) ([]model.Role, error)

	// FetchRole retrieves a role by id. Absent or soft-deleted roles yield
	// an errs.ErrNotFound-kind error.
	FetchRole(ctx context.Context, id string) (*model.Role, error)

	// FetchRolesForGroups returns the active roles granted to any of the
	// named groups.
	FetchRolesForGroups(ctx context.Context, groupNames []string) ([]model.Role, error)

	// FetchRolesForUser returns the active roles assigned directly to the
	// subject.
	FetchRolesForUser(ctx context.Context, subject identity.Subject) ([]model.Role, error)

	// FetchChildRoles returns the active roles whose parent is the given
	// role id. Children are derived from the parent index.
	FetchChildRoles(ctx context.Context, id string) ([]model.Role, error)

	// AddRole persists a new role.
	AddRole(ctx context.Context, role model.Role) (*model.Role, error)

	// DeleteRole soft-deletes a role by id.
	DeleteRole(ctx context.Context, id string) error

	// AddGroupToRole grants the role to a group by name.
	AddGroupToRole(ctx context.Context, roleID, groupName string) error

	// AddUserToRole assigns the role directly to a subject.
	AddUserToRole(ctx context.Context, roleID string, subject identity.Subject) error

	// AddPermissionsToRole attaches permissions (by id) to a role.
	AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error
}
