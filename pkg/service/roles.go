package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// RoleService manages role definitions and their grant edges.
type RoleService struct {
	roles       store.RolesStore
	permissions store.PermissionsStore
}

// NewRoleService creates a RoleService.
func NewRoleService(roles store.RolesStore, permissions store.PermissionsStore) *RoleService {
	return &RoleService{roles: roles, permissions: permissions}
}

// GetRole retrieves an active role by id.
func (s *RoleService) GetRole(ctx context.Context, id string) (*model.Role, error) {
	return s.roles.FetchRole(ctx, id)
}

// GetRolesForSecurableItem lists the active roles in a scope.
func (s *RoleService) GetRolesForSecurableItem(ctx context.Context, scope model.Scope) ([]model.Role, error) {
	return s.roles.FetchRolesForSecurableItem(ctx, scope)
}

// GetChildRoles lists the active roles whose parent is the given role. The
// children are derived from the parent index; no back-pointer collection is
// maintained.
func (s *RoleService) GetChildRoles(ctx context.Context, id string) ([]model.Role, error) {
	if _, err := s.roles.FetchRole(ctx, id); err != nil {
		return nil, err
	}
	return s.roles.FetchChildRoles(ctx, id)
}

// AddRole creates a role. The parent link, when present, must reference an
// existing role and must not close a cycle.
func (s *RoleService) AddRole(ctx context.Context, role model.Role) (*model.Role, error) {
	if role.Name == "" {
		return nil, errs.Validation("role name is required")
	}
	if _, err := model.NewScope(role.Grain, role.SecurableItem); err != nil {
		return nil, errs.Validation("%s", err.Error())
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}

	if role.ParentRoleID != "" {
		if err := s.validateParentChain(ctx, role.ID, role.ParentRoleID); err != nil {
			return nil, err
		}
	}

	return s.roles.AddRole(ctx, role)
}

// DeleteRole soft-deletes a role by id.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	return s.roles.DeleteRole(ctx, id)
}

// AddGroupToRole grants a role to a group by name.
func (s *RoleService) AddGroupToRole(ctx context.Context, roleID, groupName string) error {
	if groupName == "" {
		return errs.Validation("group name is required")
	}
	return s.roles.AddGroupToRole(ctx, roleID, groupName)
}

// AddUserToRole assigns a role directly to a subject.
func (s *RoleService) AddUserToRole(ctx context.Context, roleID string, subject identity.Subject) error {
	if subject.SubjectID == "" || subject.IdentityProvider == "" {
		return errs.Validation("subject id and identity provider are required")
	}
	return s.roles.AddUserToRole(ctx, roleID, subject)
}

// AddPermissionsToRole attaches permissions to a role. Each permission must
// exist, be active, and share the role's scope.
func (s *RoleService) AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	role, err := s.roles.FetchRole(ctx, roleID)
	if err != nil {
		return err
	}

	for _, id := range permissionIDs {
		p, err := s.permissions.FetchPermission(ctx, id)
		if err != nil {
			return err
		}
		if p.Grain != role.Grain || p.SecurableItem != role.SecurableItem {
			return errs.Validation("permission %s is scoped to %s:%s, not the role's %s",
				p.Name, p.Grain, p.SecurableItem, role.Scope())
		}
	}

	return s.roles.AddPermissionsToRole(ctx, roleID, permissionIDs)
}

// validateParentChain walks the parent links from parentID upward and
// rejects the link if it would close a cycle. A visited set bounds the walk
// even over malformed data.
func (s *RoleService) validateParentChain(ctx context.Context, roleID, parentID string) error {
	visited := map[string]bool{roleID: true}
	current := parentID
	for current != "" {
		if visited[current] {
			return errs.Validation("role parent chain contains a cycle at %s", current)
		}
		visited[current] = true

		parent, err := s.roles.FetchRole(ctx, current)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.Validation("parent role %s not found", current)
			}
			return err
		}
		current = parent.ParentRoleID
	}
	return nil
}
